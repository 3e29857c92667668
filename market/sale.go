package market

import (
	"fmt"
	"math/bits"

	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/token"
)

// Sale lists ownership units of one asset for sale. Partial fills are
// allowed: the sale stays active until its remaining amount reaches zero.
type Sale struct {
	ID        uint64
	Seller    token.Address
	AssetID   uint64
	Token     *token.OwnershipToken
	Remaining uint64
	AskPrice  uint64 // asking price per unit, informational
	Active    bool
	Bids      []*SaleBid
}

// SaleBid is one escrowed bid on a sale.
type SaleBid struct {
	ID           uint64
	Bidder       token.Address
	Amount       uint64 // ownership units requested
	PricePerUnit uint64
	Funds        uint64 // escrowed: Amount * PricePerUnit
	Active       bool
}

// PostSale lists amount units of the asset at askPrice per unit.
func (m *Marketplace) PostSale(seller token.Address, assetID, amount, askPrice uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	asset, err := m.assets.Asset(assetID)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	sale := &Sale{
		ID:        uint64(len(m.sales)) + 1,
		Seller:    seller,
		AssetID:   assetID,
		Token:     asset.Token,
		Remaining: amount,
		AskPrice:  askPrice,
		Active:    true,
	}
	m.sales = append(m.sales, sale)
	m.mu.Unlock()

	m.emitter.Emit(events.New("SalePosted", map[string]any{
		"sale_id":   sale.ID,
		"asset_id":  assetID,
		"seller":    seller.String(),
		"amount":    amount,
		"ask_price": askPrice,
	}))
	return sale.ID, nil
}

// PlaceSaleBid escrows amount*pricePerUnit from the bidder and records the
// bid. The escrow stays with the marketplace until the bid is accepted or
// refunded.
func (m *Marketplace) PlaceSaleBid(bidder token.Address, saleID, amount, pricePerUnit uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	hi, funds := bits.Mul64(amount, pricePerUnit)
	if hi != 0 {
		return 0, ErrAmountOverflow
	}
	if funds == 0 {
		return 0, ErrZeroAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sale, err := m.saleLocked(saleID)
	if err != nil {
		return 0, err
	}
	if !sale.Active {
		return 0, fmt.Errorf("%w: sale %d", ErrSaleClosed, saleID)
	}

	bid := &SaleBid{
		ID:           uint64(len(sale.Bids)) + 1,
		Bidder:       bidder,
		Amount:       amount,
		PricePerUnit: pricePerUnit,
		Funds:        funds,
		Active:       true,
	}
	// Escrow pull before the bid becomes visible.
	if err := m.settle.TransferFrom(bidder, m.account, funds); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEscrow, err)
	}
	sale.Bids = append(sale.Bids, bid)

	m.emitter.Emit(events.New("SaleBidPlaced", map[string]any{
		"sale_id": saleID,
		"bid_id":  bid.ID,
		"bidder":  bidder.String(),
		"amount":  amount,
		"funds":   funds,
	}))
	return bid.ID, nil
}

// AcceptSaleBid settles one bid: units move from seller to bidder, the
// escrowed funds move to the seller, the sale's remaining amount drops
// (closing the sale at zero), and every other active bid is refunded in
// the same call. Only the seller may accept. The call either settles
// completely or changes nothing.
func (m *Marketplace) AcceptSaleBid(actor token.Address, saleID, bidID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sale, err := m.saleLocked(saleID)
	if err != nil {
		return err
	}
	if actor != sale.Seller {
		return ErrNotSeller
	}
	if !sale.Active {
		return fmt.Errorf("%w: sale %d", ErrSaleClosed, saleID)
	}
	if bidID == 0 || bidID > uint64(len(sale.Bids)) {
		return fmt.Errorf("%w: bid %d", ErrBidNotFound, bidID)
	}
	bid := sale.Bids[bidID-1]
	if !bid.Active {
		return ErrBidInactive
	}
	if bid.Amount > sale.Remaining {
		return fmt.Errorf("%w: remaining %d, bid %d", ErrInsufficientRemaining, sale.Remaining, bid.Amount)
	}

	// Bookkeeping before any external transfer.
	var j journal
	bid.Active = false
	j.record(func() { bid.Active = true })

	prevRemaining, prevActive := sale.Remaining, sale.Active
	sale.Remaining -= bid.Amount
	if sale.Remaining == 0 {
		sale.Active = false
	}
	j.record(func() { sale.Remaining, sale.Active = prevRemaining, prevActive })

	var losers []token.Address
	var loserFunds []uint64
	for _, other := range sale.Bids {
		if other.Active {
			other := other
			other.Active = false
			j.record(func() { other.Active = true })
			losers = append(losers, other.Bidder)
			loserFunds = append(loserFunds, other.Funds)
		}
	}

	// External transfers, most easily reversed last.
	if err := sale.Token.Transfer(sale.Seller, bid.Bidder, bid.Amount); err != nil {
		j.rollback()
		return fmt.Errorf("%w: units: %w", ErrSettlement, err)
	}
	if err := m.settle.Transfer(m.account, sale.Seller, bid.Funds); err != nil {
		_ = sale.Token.Transfer(bid.Bidder, sale.Seller, bid.Amount)
		j.rollback()
		return fmt.Errorf("%w: payment: %w", ErrSettlement, err)
	}
	if err := m.refund(losers, loserFunds); err != nil {
		_ = m.settle.TransferFrom(sale.Seller, m.account, bid.Funds)
		_ = sale.Token.Transfer(bid.Bidder, sale.Seller, bid.Amount)
		j.rollback()
		return fmt.Errorf("%w: refund: %w", ErrSettlement, err)
	}

	m.emitter.Emit(events.New("SaleBidAccepted", map[string]any{
		"sale_id":   saleID,
		"bid_id":    bidID,
		"bidder":    bid.Bidder.String(),
		"amount":    bid.Amount,
		"funds":     bid.Funds,
		"remaining": sale.Remaining,
		"refunded":  len(losers),
	}))
	return nil
}

// Sale returns the sale record for id.
func (m *Marketplace) Sale(id uint64) (*Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saleLocked(id)
}

// saleLocked resolves a sale id. Caller holds m.mu.
func (m *Marketplace) saleLocked(id uint64) (*Sale, error) {
	if id == 0 || id > uint64(len(m.sales)) {
		return nil, fmt.Errorf("%w: id %d", ErrSaleNotFound, id)
	}
	return m.sales[id-1], nil
}
