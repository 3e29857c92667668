package market

import (
	"fmt"
	"sync"

	"github.com/faas-tech/space-markets-sub006/token"
)

// SettlementToken is the external fungible-balance service the marketplace
// settles payments in. Any failure is fatal to the operation that caused
// the transfer.
type SettlementToken interface {
	// TransferFrom pulls amount from payer into to (escrow pull).
	TransferFrom(payer, to token.Address, amount uint64) error

	// Transfer pushes amount from one of the marketplace's own accounts.
	Transfer(from, to token.Address, amount uint64) error
}

// FundsLedger is the in-process reference settlement token: a plain
// balance map with all-or-nothing transfers. FailHook lets tests inject
// transfer failures to exercise the marketplace's rollback paths.
type FundsLedger struct {
	mu       sync.Mutex
	balances map[token.Address]uint64

	// FailHook, if set, runs before every transfer; a non-nil return
	// aborts the transfer with that error.
	FailHook func(from, to token.Address, amount uint64) error
}

// NewFundsLedger creates an empty funds ledger.
func NewFundsLedger() *FundsLedger {
	return &FundsLedger{balances: make(map[token.Address]uint64)}
}

// Mint credits amount to addr out of thin air. Test and genesis helper.
func (l *FundsLedger) Mint(addr token.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

// BalanceOf returns addr's balance.
func (l *FundsLedger) BalanceOf(addr token.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

// TransferFrom implements SettlementToken.
func (l *FundsLedger) TransferFrom(payer, to token.Address, amount uint64) error {
	return l.move(payer, to, amount)
}

// Transfer implements SettlementToken.
func (l *FundsLedger) Transfer(from, to token.Address, amount uint64) error {
	return l.move(from, to, amount)
}

func (l *FundsLedger) move(from, to token.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailHook != nil {
		if err := l.FailHook(from, to, amount); err != nil {
			return err
		}
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, from, l.balances[from], amount)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
