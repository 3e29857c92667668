package lease

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/faas-tech/space-markets-sub006/token"
)

// SignDigest produces a 65-byte compact signature over the digest, from
// which the signer's public key can be recovered. This is the signature
// format MintLease expects from both parties.
func SignDigest(priv *ec.PrivateKey, digest [32]byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrMalformedSignature)
	}
	sig, err := ec.SignCompact(ec.S256(), priv, digest[:], true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSignature, err)
	}
	return sig, nil
}

// RecoverSigner recovers the ledger address of whoever produced the compact
// signature over the digest.
func RecoverSigner(sig []byte, digest [32]byte) (token.Address, error) {
	pub, _, err := ec.RecoverCompact(sig, digest[:])
	if err != nil {
		return token.Address{}, fmt.Errorf("%w: %w", ErrMalformedSignature, err)
	}
	return token.AddressFromPublicKey(pub), nil
}
