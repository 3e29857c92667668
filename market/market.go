// Package market brokers ownership-unit sales and lease offers: it escrows
// bidder funds, runs the bid/acceptance state machines, and settles
// accepted bids atomically. Settlement pays the seller, mints the lease
// certificate through the lease authority, routes lease proceeds through
// the configured revenue strategy, and refunds every losing bid in the
// same call.
package market

import (
	"sync"

	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/lease"
	"github.com/faas-tech/space-markets-sub006/registry"
	"github.com/faas-tech/space-markets-sub006/revenue"
	"github.com/faas-tech/space-markets-sub006/token"
)

// Marketplace owns sale and lease-offer records and the escrow account
// their funds sit in until paid out or refunded.
type Marketplace struct {
	mu sync.Mutex

	account   token.Address // escrow account on the settlement token
	settle    SettlementToken
	assets    *registry.Registry
	authority *lease.Authority
	strategy  revenue.Strategy
	emitter   events.Emitter

	sales  []*Sale
	offers []*LeaseOffer
}

// New creates a marketplace escrowing into account. emitter may be nil.
func New(account token.Address, settle SettlementToken, assets *registry.Registry, authority *lease.Authority, strategy revenue.Strategy, emitter events.Emitter) *Marketplace {
	if emitter == nil {
		emitter = events.Discard{}
	}
	return &Marketplace{
		account:   account,
		settle:    settle,
		assets:    assets,
		authority: authority,
		strategy:  strategy,
		emitter:   emitter,
	}
}

// Account returns the marketplace escrow account.
func (m *Marketplace) Account() token.Address { return m.account }

// journal collects undo steps for one acceptance call. Steps run in
// reverse order when the call must roll back.
type journal struct {
	undos []func()
}

func (j *journal) record(undo func()) { j.undos = append(j.undos, undo) }

func (j *journal) rollback() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
}

// refund pays every listed escrow back from the marketplace account. On
// failure it walks back the refunds already made and reports which ones
// went through so the caller can abort.
func (m *Marketplace) refund(payees []token.Address, amounts []uint64) error {
	for i := range payees {
		if err := m.settle.Transfer(m.account, payees[i], amounts[i]); err != nil {
			for j := 0; j < i; j++ {
				_ = m.settle.TransferFrom(payees[j], m.account, amounts[j])
			}
			return err
		}
	}
	return nil
}

// unrefund claws refunds back during a rollback. Best effort: the escrow
// invariant guarantees the payees were just credited.
func (m *Marketplace) unrefund(payees []token.Address, amounts []uint64) {
	for i := range payees {
		_ = m.settle.TransferFrom(payees[i], m.account, amounts[i])
	}
}
