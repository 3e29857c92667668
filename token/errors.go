package token

import "errors"

var (
	// ErrInsufficientBalance indicates the sender holds fewer units than requested.
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	// ErrZeroAmount indicates a transfer of zero units.
	ErrZeroAmount = errors.New("token: zero transfer amount")

	// ErrZeroSupply indicates a token cannot be created with zero total supply.
	ErrZeroSupply = errors.New("token: total supply must be nonzero")

	// ErrSnapshotDenied indicates the caller lacks the snapshot capability.
	ErrSnapshotDenied = errors.New("token: caller may not take snapshots")

	// ErrUnknownSnapshot indicates the snapshot id was never issued.
	ErrUnknownSnapshot = errors.New("token: unknown snapshot id")
)
