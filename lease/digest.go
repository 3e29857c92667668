package lease

import (
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// Type tags separate the inner terms hash from the outer intent digest, so
// a terms encoding can never collide with an intent encoding.
var (
	tagLeaseTerms  = []byte("space-markets/lease-terms")
	tagLeaseIntent = []byte("space-markets/lease-intent")
)

// DomainParams identify the authority instance. They are mixed into every
// digest so a signature for one deployment never verifies on another.
type DomainParams struct {
	Name      string // authority name, e.g. "space-markets-lease-authority"
	Version   string // digest format version
	ContextID string // execution-context identifier (deployment id)
}

// separator returns the 32-byte domain separator for these parameters.
func (p DomainParams) separator() [32]byte {
	buf := make([]byte, 0, len(p.Name)+len(p.Version)+len(p.ContextID)+2)
	buf = append(buf, p.Name...)
	buf = append(buf, 0x00)
	buf = append(buf, p.Version...)
	buf = append(buf, 0x00)
	buf = append(buf, p.ContextID...)
	var sep [32]byte
	copy(sep[:], bsvhash.Sha256(buf))
	return sep
}

// TermsDigest hashes the lease terms alone. This inner hash is embedded in
// the intent digest and also serves as the deterministic certificate id
// under the terms-hash scheme.
func TermsDigest(terms *LeaseTerms) [32]byte {
	buf := append(append([]byte(nil), tagLeaseTerms...), terms.encode()...)
	var d [32]byte
	copy(d[:], bsvhash.Sha256d(buf))
	return d
}

// ComputeDigest returns the digest both parties sign: the domain separator,
// the intent type tag, the intent's own fields, and the embedded terms
// hash, double-SHA256'd. It is a pure function of its inputs, so off-ledger
// signers can compute exactly what they are about to sign.
func ComputeDigest(params DomainParams, intent *LeaseIntent) [32]byte {
	sep := params.separator()
	terms := TermsDigest(&intent.Lease)

	buf := make([]byte, 0, 32+len(tagLeaseIntent)+8+32+8+32)
	buf = append(buf, sep[:]...)
	buf = append(buf, tagLeaseIntent...)
	buf = appendUint64(buf, uint64(intent.Deadline))
	buf = append(buf, intent.AssetTypeSchemaHash[:]...)
	buf = appendUint64(buf, intent.Nonce)
	buf = append(buf, terms[:]...)

	var d [32]byte
	copy(d[:], bsvhash.Sha256d(buf))
	return d
}
