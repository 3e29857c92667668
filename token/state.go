package token

import (
	"bytes"
	"sort"
)

// State is the exported, codec-friendly form of a token ledger, used by the
// persistence layer. Holder order and snapshot order are preserved so a
// restored token behaves identically to the original.
type State struct {
	Name        string
	Symbol      string
	TotalSupply uint64
	Holders     []HolderEntry
	Snapshots   []SnapshotState
}

// SnapshotState is the exported form of one frozen snapshot.
type SnapshotState struct {
	TotalSupply uint64
	Balances    []HolderEntry
}

// State exports a deep copy of the ledger for persistence.
func (t *OwnershipToken) State() *State {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := &State{
		Name:        t.name,
		Symbol:      t.symbol,
		TotalSupply: t.totalSupply,
		Holders:     append([]HolderEntry(nil), t.entries...),
	}
	for _, snap := range t.snapshots {
		ss := SnapshotState{TotalSupply: snap.totalSupply}
		// Map order is not stable; snapshot entries are ordered by live
		// holder position first, then departed holders by address bytes.
		for _, e := range t.entries {
			if bal, ok := snap.balances[e.Address]; ok {
				ss.Balances = append(ss.Balances, HolderEntry{Address: e.Address, Balance: bal})
			}
		}
		var departed []HolderEntry
		for addr, bal := range snap.balances {
			if _, live := t.index[addr]; !live {
				departed = append(departed, HolderEntry{Address: addr, Balance: bal})
			}
		}
		sort.Slice(departed, func(i, j int) bool {
			return bytes.Compare(departed[i].Address[:], departed[j].Address[:]) < 0
		})
		ss.Balances = append(ss.Balances, departed...)
		st.Snapshots = append(st.Snapshots, ss)
	}
	return st
}

// FromState rebuilds a token ledger from persisted state. guard replaces the
// snapshot guard, which is wiring and is never persisted.
func FromState(st *State, guard SnapshotGuard) (*OwnershipToken, error) {
	if st == nil || st.TotalSupply == 0 {
		return nil, ErrZeroSupply
	}
	t := &OwnershipToken{
		name:        st.Name,
		symbol:      st.Symbol,
		totalSupply: st.TotalSupply,
		index:       make(map[Address]int, len(st.Holders)),
		guard:       guard,
	}
	for _, e := range st.Holders {
		t.index[e.Address] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	for _, ss := range st.Snapshots {
		rec := snapshotRecord{
			totalSupply: ss.TotalSupply,
			balances:    make(map[Address]uint64, len(ss.Balances)),
		}
		for _, e := range ss.Balances {
			rec.balances[e.Address] = e.Balance
		}
		t.snapshots = append(t.snapshots, rec)
	}
	return t, nil
}
