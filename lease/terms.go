// Package lease implements the dual-signature lease-intent authority: the
// structured digest off-ledger parties sign, signer recovery against that
// digest, and the minting of lease certificates once both signatures verify.
package lease

import (
	"encoding/binary"

	"github.com/faas-tech/space-markets-sub006/token"
)

// MetadataEntry is one lease field: the content hash of the field name and
// the field value. Required fields of the asset type must appear with a
// nonempty value.
type MetadataEntry struct {
	FieldID [32]byte
	Value   []byte
}

// LeaseTerms is the agreed economic substance of a lease. Immutable once
// embedded in a signed intent; every field below is covered by the digest.
type LeaseTerms struct {
	Lessor          token.Address
	Lessee          token.Address
	AssetID         uint64
	PaymentToken    [32]byte // settlement-token identifier
	RentAmount      uint64
	RentPeriod      uint64 // seconds per rent payment
	SecurityDeposit uint64
	StartTime       int64 // unix seconds
	EndTime         int64 // unix seconds
	LegalDocHash    [32]byte
	TermsVersion    uint32
	Metadata        []MetadataEntry
}

// LeaseIntent is a lease proposal. It becomes authoritative only when both
// the lessor and lessee signatures verify against its digest before the
// deadline.
type LeaseIntent struct {
	Deadline            int64 // unix seconds; verification fails after this
	AssetTypeSchemaHash [32]byte
	Nonce               uint64 // replay discriminator for the counter id scheme
	Lease               LeaseTerms
}

// Field returns the value of the lease field with the given id, or nil.
func (t *LeaseTerms) Field(fieldID [32]byte) []byte {
	for _, e := range t.Metadata {
		if e.FieldID == fieldID {
			return e.Value
		}
	}
	return nil
}

// encode serializes the terms in the fixed field order covered by the
// digest. All integers are big-endian.
func (t *LeaseTerms) encode() []byte {
	buf := make([]byte, 0, 196+len(t.Metadata)*40)
	buf = append(buf, t.Lessor[:]...)
	buf = append(buf, t.Lessee[:]...)
	buf = appendUint64(buf, t.AssetID)
	buf = append(buf, t.PaymentToken[:]...)
	buf = appendUint64(buf, t.RentAmount)
	buf = appendUint64(buf, t.RentPeriod)
	buf = appendUint64(buf, t.SecurityDeposit)
	buf = appendUint64(buf, uint64(t.StartTime))
	buf = appendUint64(buf, uint64(t.EndTime))
	buf = append(buf, t.LegalDocHash[:]...)
	buf = appendUint32(buf, t.TermsVersion)
	buf = appendUint32(buf, uint32(len(t.Metadata)))
	for _, e := range t.Metadata {
		buf = append(buf, e.FieldID[:]...)
		buf = appendUint32(buf, uint32(len(e.Value)))
		buf = append(buf, e.Value...)
	}
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}
