package token

import (
	"encoding/hex"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// Address identifies an account on the ledger: the 20-byte
// HASH160 (RIPEMD160 of SHA256) of a compressed secp256k1 public key.
type Address [20]byte

// ZeroAddress is the all-zero address, used as the "unbound" marker
// (for example the lessee slot of an open lease offer).
var ZeroAddress Address

// AddressFromPublicKey derives the ledger address for a public key.
func AddressFromPublicKey(pub *ec.PublicKey) Address {
	var a Address
	copy(a[:], bsvhash.Hash160(pub.Compressed()))
	return a
}

// ServiceAddress derives a well-known address for an internal service
// account (marketplace escrow, distributor pool) from its name.
// Service accounts hold funds but never sign anything.
func ServiceAddress(name string) Address {
	var a Address
	copy(a[:], bsvhash.Hash160([]byte(name)))
	return a
}

// IsZero reports whether the address is the zero (unbound) address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the hex encoding of the address.
func (a Address) String() string { return hex.EncodeToString(a[:]) }
