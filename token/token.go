// Package token implements the fungible ownership-unit ledger backing a
// single registered asset. Balances, the enumerable holder set, and
// point-in-time snapshots live here; every other component reads and
// mutates ownership exclusively through this package.
package token

import (
	"fmt"
	"sync"
)

// SnapshotGuard authorizes snapshot callers. The registry wires this to the
// deployment's capability checker when it creates the token, so the
// privileged caller is a configuration decision, not a hard-coded role.
type SnapshotGuard func(actor Address) bool

// HolderEntry is one row of the holder set: an address and its balance.
type HolderEntry struct {
	Address Address
	Balance uint64
}

// OwnershipToken is a fungible balance ledger with holder enumeration and
// sequential snapshots. The sum of holder balances equals the total supply
// after every operation.
type OwnershipToken struct {
	mu sync.Mutex

	name   string
	symbol string

	totalSupply uint64
	entries     []HolderEntry   // insertion-ordered holder set
	index       map[Address]int // address -> entries offset

	snapshots []snapshotRecord // snapshot id n is snapshots[n-1]
	guard     SnapshotGuard
}

// New creates a token with the full supply minted to issuer. guard decides
// who may take snapshots; a nil guard denies everyone.
func New(name, symbol string, issuer Address, totalSupply uint64, guard SnapshotGuard) (*OwnershipToken, error) {
	if totalSupply == 0 {
		return nil, ErrZeroSupply
	}
	t := &OwnershipToken{
		name:   name,
		symbol: symbol,
		index:  make(map[Address]int),
		guard:  guard,
	}
	t.credit(issuer, totalSupply)
	t.totalSupply = totalSupply
	return t, nil
}

// Name returns the token name.
func (t *OwnershipToken) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *OwnershipToken) Symbol() string { return t.symbol }

// TotalSupply returns the fixed total supply.
func (t *OwnershipToken) TotalSupply() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalSupply
}

// BalanceOf returns the current balance of holder (zero if not a holder).
func (t *OwnershipToken) BalanceOf(holder Address) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[holder]; ok {
		return t.entries[i].Balance
	}
	return 0
}

// Transfer moves amount units from one holder to another, maintaining the
// holder set: the sender is removed when its balance reaches zero and the
// receiver is added on its first nonzero balance.
func (t *OwnershipToken) Transfer(from, to Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.index[from]
	if !ok || t.entries[i].Balance < amount {
		have := uint64(0)
		if ok {
			have = t.entries[i].Balance
		}
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, have, amount)
	}
	if from == to {
		return nil // balance and holder set unchanged
	}

	t.entries[i].Balance -= amount
	if t.entries[i].Balance == 0 {
		t.removeHolder(from)
	}
	t.credit(to, amount)
	return nil
}

// Holders enumerates the live holder set as parallel address and balance
// slices, in holder-set order. The slices are copies.
func (t *OwnershipToken) Holders() ([]Address, []uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	addrs := make([]Address, len(t.entries))
	bals := make([]uint64, len(t.entries))
	for i, e := range t.entries {
		addrs[i] = e.Address
		bals[i] = e.Balance
	}
	return addrs, bals
}

// HolderCount returns the number of addresses with a nonzero balance.
func (t *OwnershipToken) HolderCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// credit adds amount to addr, inserting it into the holder set if absent.
// Caller holds t.mu.
func (t *OwnershipToken) credit(addr Address, amount uint64) {
	if i, ok := t.index[addr]; ok {
		t.entries[i].Balance += amount
		return
	}
	t.index[addr] = len(t.entries)
	t.entries = append(t.entries, HolderEntry{Address: addr, Balance: amount})
}

// removeHolder drops addr from the holder set, preserving the order of the
// remaining entries. Caller holds t.mu.
func (t *OwnershipToken) removeHolder(addr Address) {
	i, ok := t.index[addr]
	if !ok {
		return
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, addr)
	for j := i; j < len(t.entries); j++ {
		t.index[t.entries[j].Address] = j
	}
}
