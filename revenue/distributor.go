// Package revenue distributes lease proceeds to fractional owners: either
// immediately pro-rata to the live holder set, or through snapshot-based
// claim rounds that are immune to holder-set changes between acceptance and
// claim.
package revenue

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/faas-tech/space-markets-sub006/access"
	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/token"
)

// TransferFunc moves settlement funds between accounts. The marketplace
// supplies its settlement token's transfer here.
type TransferFunc func(from, to token.Address, amount uint64) error

// Round is one revenue distribution event: a fixed amount split pro-rata
// among holders as of one snapshot. Rounds never expire.
type Round struct {
	ID          uint64
	Token       *token.OwnershipToken
	SnapshotID  uint64
	TotalAmount uint64
	Claimed     map[token.Address]bool
	ClaimedSum  uint64
}

// Distributor owns revenue rounds and the pool account their funds sit in
// until claimed.
type Distributor struct {
	mu sync.Mutex

	checker  access.Checker
	account  token.Address // pool account holding unclaimed funds
	transfer TransferFunc
	emitter  events.Emitter

	rounds []*Round
}

// NewDistributor creates a distributor paying out of pool via transfer.
// Opening rounds requires the distributor capability on the checker.
func NewDistributor(checker access.Checker, pool token.Address, transfer TransferFunc, emitter events.Emitter) *Distributor {
	if emitter == nil {
		emitter = events.Discard{}
	}
	return &Distributor{
		checker:  checker,
		account:  pool,
		transfer: transfer,
		emitter:  emitter,
	}
}

// Account returns the pool account unclaimed funds sit in.
func (d *Distributor) Account() token.Address { return d.account }

// OpenRound takes a fresh snapshot of tok and records a round of amount,
// pulling the funds from payer into the pool account. Only holders of the
// distributor capability (the marketplace) may open rounds.
func (d *Distributor) OpenRound(actor token.Address, tok *token.OwnershipToken, amount uint64, payer token.Address) (uint64, error) {
	if !d.checker.HasCapability(actor, access.RoleDistributor) {
		return 0, ErrNotDistributor
	}
	if amount == 0 {
		return 0, ErrZeroAmount
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Funds first: a failed pull must not leave an orphan snapshot behind.
	if err := d.transfer(payer, d.account, amount); err != nil {
		return 0, fmt.Errorf("%w: fund round: %w", ErrPayout, err)
	}
	snapshotID, err := tok.Snapshot(d.account)
	if err != nil {
		_ = d.transfer(d.account, payer, amount)
		return 0, fmt.Errorf("revenue: snapshot: %w", err)
	}

	round := &Round{
		ID:          uint64(len(d.rounds)) + 1,
		Token:       tok,
		SnapshotID:  snapshotID,
		TotalAmount: amount,
		Claimed:     make(map[token.Address]bool),
	}
	d.rounds = append(d.rounds, round)

	d.emitter.Emit(events.New("RevenueRoundOpened", map[string]any{
		"round_id":    round.ID,
		"snapshot_id": snapshotID,
		"amount":      amount,
	}))
	return round.ID, nil
}

// Claim pays the holder its pro-rata share of the round, at most once.
// share = amount * balanceOfAt(holder, snap) / totalSupplyAt(snap), floor
// division; the dust this leaves in the pool is never reconciled.
func (d *Distributor) Claim(roundID uint64, holder token.Address) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if roundID == 0 || roundID > uint64(len(d.rounds)) {
		return 0, fmt.Errorf("%w: id %d", ErrRoundNotFound, roundID)
	}
	round := d.rounds[roundID-1]

	if round.Claimed[holder] {
		return 0, ErrAlreadyClaimed
	}

	supply, err := round.Token.TotalSupplyAt(round.SnapshotID)
	if err != nil {
		return 0, fmt.Errorf("revenue: snapshot supply: %w", err)
	}
	if supply == 0 {
		return 0, ErrZeroSnapshotSupply
	}
	balance, err := round.Token.BalanceOfAt(holder, round.SnapshotID)
	if err != nil {
		return 0, fmt.Errorf("revenue: snapshot balance: %w", err)
	}
	if balance == 0 {
		return 0, ErrNoShare
	}

	share := proRata(round.TotalAmount, balance, supply)

	// Mark claimed before paying out so a reentrant callee cannot claim twice.
	round.Claimed[holder] = true
	round.ClaimedSum += share

	if share > 0 {
		if err := d.transfer(d.account, holder, share); err != nil {
			round.Claimed[holder] = false
			round.ClaimedSum -= share
			return 0, fmt.Errorf("%w: %w", ErrPayout, err)
		}
	}

	d.emitter.Emit(events.New("RevenueClaimed", map[string]any{
		"round_id": roundID,
		"holder":   holder.String(),
		"amount":   share,
	}))
	return share, nil
}

// Round returns the round record for id.
func (d *Distributor) Round(id uint64) (*Round, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id == 0 || id > uint64(len(d.rounds)) {
		return nil, fmt.Errorf("%w: id %d", ErrRoundNotFound, id)
	}
	return d.rounds[id-1], nil
}

// RoundCount returns the number of opened rounds.
func (d *Distributor) RoundCount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint64(len(d.rounds))
}

// RestoreRound reinserts a persisted round. The id must be the next
// sequential id; used only while rehydrating from the store.
func (d *Distributor) RestoreRound(round *Round) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if round.ID != uint64(len(d.rounds))+1 {
		return fmt.Errorf("%w: restore out of order, id %d", ErrRoundNotFound, round.ID)
	}
	if round.Claimed == nil {
		round.Claimed = make(map[token.Address]bool)
	}
	d.rounds = append(d.rounds, round)
	return nil
}

// proRata computes amount * balance / supply with a 128-bit intermediate.
// balance <= supply guarantees the quotient fits in 64 bits.
func proRata(amount, balance, supply uint64) uint64 {
	hi, lo := bits.Mul64(amount, balance)
	q, _ := bits.Div64(hi, lo, supply)
	return q
}
