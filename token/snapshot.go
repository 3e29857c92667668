package token

// snapshotRecord freezes the full balance table as of one Snapshot call.
type snapshotRecord struct {
	totalSupply uint64
	balances    map[Address]uint64
}

// Snapshot freezes the current balances under a new sequential id (starting
// at 1). The record reflects every transfer committed before this call and
// none after; later transfers never change it.
func (t *OwnershipToken) Snapshot(actor Address) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.guard == nil || !t.guard(actor) {
		return 0, ErrSnapshotDenied
	}

	frozen := make(map[Address]uint64, len(t.entries))
	for _, e := range t.entries {
		frozen[e.Address] = e.Balance
	}
	t.snapshots = append(t.snapshots, snapshotRecord{
		totalSupply: t.totalSupply,
		balances:    frozen,
	})
	return uint64(len(t.snapshots)), nil
}

// BalanceOfAt returns holder's balance as of the given snapshot.
func (t *OwnershipToken) BalanceOfAt(holder Address, snapshotID uint64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.snapshotLocked(snapshotID)
	if err != nil {
		return 0, err
	}
	return rec.balances[holder], nil
}

// TotalSupplyAt returns the total supply as of the given snapshot.
func (t *OwnershipToken) TotalSupplyAt(snapshotID uint64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.snapshotLocked(snapshotID)
	if err != nil {
		return 0, err
	}
	return rec.totalSupply, nil
}

// SnapshotCount returns the number of snapshots taken so far.
func (t *OwnershipToken) SnapshotCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return uint64(len(t.snapshots))
}

// snapshotLocked resolves a snapshot id. Caller holds t.mu.
func (t *OwnershipToken) snapshotLocked(id uint64) (*snapshotRecord, error) {
	if id == 0 || id > uint64(len(t.snapshots)) {
		return nil, ErrUnknownSnapshot
	}
	return &t.snapshots[id-1], nil
}
