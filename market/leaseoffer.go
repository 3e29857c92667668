package market

import (
	"fmt"

	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/lease"
	"github.com/faas-tech/space-markets-sub006/token"
)

// LeaseOffer wraps a lessee-blank lease intent posted by the lessor.
// Accepting one bid binds the lessee, mints the certificate, and closes
// the offer permanently; offers are never partially filled or reused.
type LeaseOffer struct {
	ID          uint64
	Lessor      token.Address
	AssetID     uint64
	Token       *token.OwnershipToken
	Intent      lease.LeaseIntent // Lease.Lessee is zero until acceptance
	Active      bool
	AcceptedBid uint64              // 0 until accepted
	Certificate lease.CertificateID // zero until accepted
	Bids        []*LeaseBid
}

// LeaseBid is one escrowed bid on a lease offer: the candidate lessee's
// signature over the intent with itself bound as lessee, plus funds.
type LeaseBid struct {
	ID        uint64
	Lessee    token.Address
	Funds     uint64
	LesseeSig []byte
	Active    bool
}

// boundIntent returns the offer's intent with the lessee slot bound.
func (o *LeaseOffer) boundIntent(lessee token.Address) lease.LeaseIntent {
	intent := o.Intent
	intent.Lease.Lessee = lessee
	intent.Lease.Metadata = append([]lease.MetadataEntry(nil), o.Intent.Lease.Metadata...)
	return intent
}

// PostLeaseOffer posts an offer around intent, whose lessee slot must be
// unbound. The caller must be the intent's lessor.
func (m *Marketplace) PostLeaseOffer(lessor token.Address, intent *lease.LeaseIntent) (uint64, error) {
	if intent == nil {
		return 0, lease.ErrNilIntent
	}
	if intent.Lease.Lessor != lessor {
		return 0, ErrNotLessor
	}
	if !intent.Lease.Lessee.IsZero() {
		return 0, ErrLesseeBound
	}
	asset, err := m.assets.Asset(intent.Lease.AssetID)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	offer := &LeaseOffer{
		ID:      uint64(len(m.offers)) + 1,
		Lessor:  lessor,
		AssetID: intent.Lease.AssetID,
		Token:   asset.Token,
		Intent:  *intent,
		Active:  true,
	}
	offer.Intent.Lease.Metadata = append([]lease.MetadataEntry(nil), intent.Lease.Metadata...)
	m.offers = append(m.offers, offer)
	m.mu.Unlock()

	m.emitter.Emit(events.New("LeaseOfferPosted", map[string]any{
		"offer_id": offer.ID,
		"asset_id": offer.AssetID,
		"lessor":   lessor.String(),
	}))
	return offer.ID, nil
}

// PlaceLeaseBid escrows funds and records the candidate lessee's bid. The
// signature must be the lessee's compact signature over the offer's intent
// digest with the lessee slot bound to the bidder; it is checked here so a
// bid that can never settle is rejected before its funds are escrowed.
func (m *Marketplace) PlaceLeaseBid(lessee token.Address, offerID, funds uint64, lesseeSig []byte) (uint64, error) {
	if funds == 0 {
		return 0, ErrZeroAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	offer, err := m.offerLocked(offerID)
	if err != nil {
		return 0, err
	}
	if !offer.Active {
		return 0, fmt.Errorf("%w: offer %d", ErrOfferClosed, offerID)
	}

	intent := offer.boundIntent(lessee)
	digest := m.authority.Digest(&intent)
	signer, err := lease.RecoverSigner(lesseeSig, digest)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", lease.ErrLesseeSignature, err)
	}
	if signer != lessee {
		return 0, fmt.Errorf("%w: recovered %s", lease.ErrLesseeSignature, signer)
	}

	if err := m.settle.TransferFrom(lessee, m.account, funds); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEscrow, err)
	}
	bid := &LeaseBid{
		ID:        uint64(len(offer.Bids)) + 1,
		Lessee:    lessee,
		Funds:     funds,
		LesseeSig: append([]byte(nil), lesseeSig...),
		Active:    true,
	}
	offer.Bids = append(offer.Bids, bid)

	m.emitter.Emit(events.New("LeaseBidPlaced", map[string]any{
		"offer_id": offerID,
		"bid_id":   bid.ID,
		"lessee":   lessee.String(),
		"funds":    funds,
	}))
	return bid.ID, nil
}

// AcceptLeaseBid settles a lease offer against one bid: it binds the
// bidder as lessee, verifies the lessor's fresh signature over the
// now-complete intent, mints the lease certificate, refunds every other
// bid, and routes the winning escrow through the revenue strategy. The
// offer is closed permanently. The call either settles completely or
// changes nothing.
func (m *Marketplace) AcceptLeaseBid(actor token.Address, offerID, bidID uint64, lessorSig []byte) (lease.CertificateID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offer, err := m.offerLocked(offerID)
	if err != nil {
		return lease.CertificateID{}, err
	}
	if actor != offer.Lessor {
		return lease.CertificateID{}, ErrNotLessor
	}
	if !offer.Active {
		return lease.CertificateID{}, fmt.Errorf("%w: offer %d", ErrOfferClosed, offerID)
	}
	if bidID == 0 || bidID > uint64(len(offer.Bids)) {
		return lease.CertificateID{}, fmt.Errorf("%w: bid %d", ErrBidNotFound, bidID)
	}
	bid := offer.Bids[bidID-1]
	if !bid.Active {
		return lease.CertificateID{}, ErrBidInactive
	}

	// Every mint check runs before any state changes. Execution is
	// serialized, so the mint below cannot fail once this passes.
	intent := offer.boundIntent(bid.Lessee)
	if _, err := m.authority.VerifyIntent(&intent, lessorSig, bid.LesseeSig); err != nil {
		return lease.CertificateID{}, err
	}

	// Bookkeeping before any external transfer.
	var j journal
	offer.Active = false
	bid.Active = false
	j.record(func() { offer.Active, bid.Active = true, true })

	var losers []token.Address
	var loserFunds []uint64
	for _, other := range offer.Bids {
		if other.Active {
			other := other
			other.Active = false
			j.record(func() { other.Active = true })
			losers = append(losers, other.Lessee)
			loserFunds = append(loserFunds, other.Funds)
		}
	}

	if err := m.refund(losers, loserFunds); err != nil {
		j.rollback()
		return lease.CertificateID{}, fmt.Errorf("%w: refund: %w", ErrSettlement, err)
	}
	if err := m.strategy.Distribute(offer.Token, bid.Funds, m.account); err != nil {
		m.unrefund(losers, loserFunds)
		j.rollback()
		return lease.CertificateID{}, fmt.Errorf("%w: distribute: %w", ErrSettlement, err)
	}

	certID, err := m.authority.MintLease(&intent, lessorSig, bid.LesseeSig)
	if err != nil {
		// Unreachable after VerifyIntent in a serialized deployment.
		m.unrefund(losers, loserFunds)
		j.rollback()
		return lease.CertificateID{}, err
	}
	offer.AcceptedBid = bidID
	offer.Certificate = certID

	m.emitter.Emit(events.New("LeaseBidAccepted", map[string]any{
		"offer_id":    offerID,
		"bid_id":      bidID,
		"lessee":      bid.Lessee.String(),
		"funds":       bid.Funds,
		"certificate": certID.String(),
		"refunded":    len(losers),
	}))
	return certID, nil
}

// LeaseOffer returns the offer record for id.
func (m *Marketplace) LeaseOffer(id uint64) (*LeaseOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offerLocked(id)
}

// offerLocked resolves an offer id. Caller holds m.mu.
func (m *Marketplace) offerLocked(id uint64) (*LeaseOffer, error) {
	if id == 0 || id > uint64(len(m.offers)) {
		return nil, fmt.Errorf("%w: id %d", ErrOfferNotFound, id)
	}
	return m.offers[id-1], nil
}
