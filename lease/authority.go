package lease

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/token"
)

// CertificateID keys a minted lease certificate. Under the terms-hash
// scheme it is the terms digest; under the counter scheme it carries the
// sequential counter in its trailing 8 bytes.
type CertificateID [32]byte

// String returns the hex encoding of the id.
func (id CertificateID) String() string { return hex.EncodeToString(id[:]) }

// Certificate is the minted record proving the lessee holds usage rights
// under the embedded terms. Certificates are not transferable.
type Certificate struct {
	ID       CertificateID
	Digest   [32]byte // intent digest both parties signed
	Intent   LeaseIntent
	MintedAt int64 // unix seconds
}

// Lessee returns the certificate holder.
func (c *Certificate) Lessee() token.Address { return c.Intent.Lease.Lessee }

// IDScheme assigns certificate ids. Two schemes exist with different
// replay-safety trade-offs; the deployment picks one.
type IDScheme interface {
	// IssueID returns the id a mint of this intent would commit under.
	// Must be pure: the authority calls it during verification too, and
	// advances the scheme with Observe only when a mint commits.
	IssueID(intent *LeaseIntent) CertificateID

	// Observe advances internal state past a minted or restored id, so
	// later issued ids never collide with it.
	Observe(id CertificateID)
}

// TermsHashScheme keys certificates by the terms digest. Two intents with
// identical terms map to the same id, so re-executing an agreement is
// rejected as a duplicate no matter how the nonce changes.
type TermsHashScheme struct{}

// IssueID implements IDScheme.
func (TermsHashScheme) IssueID(intent *LeaseIntent) CertificateID {
	return CertificateID(TermsDigest(&intent.Lease))
}

// Observe implements IDScheme.
func (TermsHashScheme) Observe(CertificateID) {}

// CounterScheme keys certificates by a sequential counter. Identical terms
// can mint twice under distinct nonces; replay of one signed intent is
// blocked by the authority's consumed-digest set instead.
type CounterScheme struct {
	next uint64
}

// IssueID implements IDScheme.
func (s *CounterScheme) IssueID(*LeaseIntent) CertificateID {
	var id CertificateID
	binary.BigEndian.PutUint64(id[24:], s.next+1)
	return id
}

// Observe implements IDScheme.
func (s *CounterScheme) Observe(id CertificateID) {
	n := binary.BigEndian.Uint64(id[24:])
	if n > s.next {
		s.next = n
	}
}

// AssetChecker answers the authority's questions about registered assets.
// The asset registry implements it.
type AssetChecker interface {
	LeaseRequirements(assetID uint64) (schemaHash [32]byte, required [][32]byte, ok bool)
}

// Authority verifies dual-signed lease intents and owns the certificate
// records it mints.
type Authority struct {
	mu sync.Mutex

	params  DomainParams
	scheme  IDScheme
	assets  AssetChecker
	emitter events.Emitter
	now     func() time.Time

	certs    map[CertificateID]*Certificate
	order    []CertificateID   // mint order, for enumeration
	consumed map[[32]byte]bool // executed intent digests
}

// NewAuthority creates an authority. emitter may be nil; now defaults to
// time.Now and exists so tests can pin the clock.
func NewAuthority(params DomainParams, scheme IDScheme, assets AssetChecker, emitter events.Emitter) *Authority {
	if emitter == nil {
		emitter = events.Discard{}
	}
	return &Authority{
		params:   params,
		scheme:   scheme,
		assets:   assets,
		emitter:  emitter,
		now:      time.Now,
		certs:    make(map[CertificateID]*Certificate),
		consumed: make(map[[32]byte]bool),
	}
}

// SetClock replaces the authority's time source.
func (a *Authority) SetClock(now func() time.Time) { a.now = now }

// Params returns the authority's domain parameters.
func (a *Authority) Params() DomainParams { return a.params }

// Digest computes the signing digest for an intent under this authority's
// domain parameters. Pure; safe to expose to off-ledger signers.
func (a *Authority) Digest(intent *LeaseIntent) [32]byte {
	return ComputeDigest(a.params, intent)
}

// VerifyIntent runs every MintLease check without mutating state and
// returns the intent digest. MintLease performs exactly these checks before
// committing, so a caller that sequences VerifyIntent and MintLease inside
// one serialized transaction cannot see the latter fail.
func (a *Authority) VerifyIntent(intent *LeaseIntent, lessorSig, lesseeSig []byte) ([32]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	digest, _, err := a.verifyLocked(intent, lessorSig, lesseeSig)
	return digest, err
}

// MintLease verifies the intent and both signatures, then mints exactly one
// certificate to the lessee. All checks pass before any state mutation; a
// failed call changes nothing.
func (a *Authority) MintLease(intent *LeaseIntent, lessorSig, lesseeSig []byte) (CertificateID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	digest, id, err := a.verifyLocked(intent, lessorSig, lesseeSig)
	if err != nil {
		return CertificateID{}, err
	}

	cert := &Certificate{
		ID:       id,
		Digest:   digest,
		Intent:   *intent,
		MintedAt: a.now().Unix(),
	}
	cert.Intent.Lease.Metadata = append([]MetadataEntry(nil), intent.Lease.Metadata...)

	a.consumed[digest] = true
	a.certs[id] = cert
	a.order = append(a.order, id)
	a.scheme.Observe(id)

	a.emitter.Emit(events.New("LeaseMinted", map[string]any{
		"certificate": id.String(),
		"asset_id":    intent.Lease.AssetID,
		"lessor":      intent.Lease.Lessor.String(),
		"lessee":      intent.Lease.Lessee.String(),
		"start_time":  intent.Lease.StartTime,
		"end_time":    intent.Lease.EndTime,
	}))
	return id, nil
}

// verifyLocked performs the full check sequence, including the id the mint
// would commit under, and mutates nothing. Caller holds a.mu.
func (a *Authority) verifyLocked(intent *LeaseIntent, lessorSig, lesseeSig []byte) ([32]byte, CertificateID, error) {
	if intent == nil {
		return [32]byte{}, CertificateID{}, ErrNilIntent
	}
	terms := &intent.Lease

	if a.now().Unix() > intent.Deadline {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: deadline %d", ErrDeadlinePassed, intent.Deadline)
	}
	if terms.StartTime >= terms.EndTime {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: start %d, end %d", ErrInvalidWindow, terms.StartTime, terms.EndTime)
	}
	if terms.Lessee.IsZero() {
		return [32]byte{}, CertificateID{}, ErrUnboundLessee
	}

	schemaHash, required, ok := a.assets.LeaseRequirements(terms.AssetID)
	if !ok {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: asset %d", ErrAssetNotFound, terms.AssetID)
	}
	if intent.AssetTypeSchemaHash != schemaHash {
		return [32]byte{}, CertificateID{}, ErrSchemaMismatch
	}
	for _, fieldID := range required {
		if len(terms.Field(fieldID)) == 0 {
			return [32]byte{}, CertificateID{}, fmt.Errorf("%w: field %x", ErrMissingLeaseField, fieldID[:8])
		}
	}

	digest := ComputeDigest(a.params, intent)

	signer, err := RecoverSigner(lessorSig, digest)
	if err != nil {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: lessor: %w", ErrLessorSignature, err)
	}
	if signer != terms.Lessor {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: recovered %s", ErrLessorSignature, signer)
	}

	signer, err = RecoverSigner(lesseeSig, digest)
	if err != nil {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: lessee: %w", ErrLesseeSignature, err)
	}
	if signer != terms.Lessee {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: recovered %s", ErrLesseeSignature, signer)
	}

	if a.consumed[digest] {
		return [32]byte{}, CertificateID{}, ErrIntentReplayed
	}

	id := a.scheme.IssueID(intent)
	if _, exists := a.certs[id]; exists {
		return [32]byte{}, CertificateID{}, fmt.Errorf("%w: %s", ErrDuplicateCertificate, id)
	}
	return digest, id, nil
}

// Certificate returns the minted certificate under id.
func (a *Authority) Certificate(id CertificateID) (*Certificate, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cert, ok := a.certs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCertificateNotFound, id)
	}
	return cert, nil
}

// Certificates returns every minted certificate in mint order.
func (a *Authority) Certificates() []*Certificate {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Certificate, len(a.order))
	for i, id := range a.order {
		out[i] = a.certs[id]
	}
	return out
}

// RestoreCertificate reinserts a persisted certificate, marking its digest
// consumed and advancing the id scheme past its id.
func (a *Authority) RestoreCertificate(cert *Certificate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.certs[cert.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCertificate, cert.ID)
	}
	a.certs[cert.ID] = cert
	a.order = append(a.order, cert.ID)
	a.consumed[cert.Digest] = true
	a.scheme.Observe(cert.ID)
	return nil
}
