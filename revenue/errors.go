package revenue

import "errors"

var (
	// ErrNotDistributor indicates the caller lacks the distributor capability.
	ErrNotDistributor = errors.New("revenue: caller may not open rounds")

	// ErrZeroAmount indicates a round cannot be opened with no funds.
	ErrZeroAmount = errors.New("revenue: round amount must be nonzero")

	// ErrRoundNotFound indicates the round id does not exist.
	ErrRoundNotFound = errors.New("revenue: round not found")

	// ErrAlreadyClaimed indicates the holder already claimed this round.
	ErrAlreadyClaimed = errors.New("revenue: already claimed")

	// ErrZeroSnapshotSupply indicates the snapshot recorded no supply.
	ErrZeroSnapshotSupply = errors.New("revenue: zero total supply at snapshot")

	// ErrNoShare indicates the claimer held no units at the snapshot.
	ErrNoShare = errors.New("revenue: no units held at snapshot")

	// ErrNoHolders indicates the token has no holders to distribute to.
	ErrNoHolders = errors.New("revenue: no holders")

	// ErrPayout indicates a settlement transfer failed during distribution.
	ErrPayout = errors.New("revenue: payout transfer failed")
)
