package revenue

import (
	"fmt"

	"github.com/faas-tech/space-markets-sub006/token"
)

// Strategy routes an accepted lease's escrowed funds to the asset's
// fractional owners. Two strategies exist with different consistency
// guarantees; the deployment picks one.
type Strategy interface {
	// Distribute moves amount from payer to the owners of tok.
	Distribute(tok *token.OwnershipToken, amount uint64, payer token.Address) error
}

// DirectStrategy credits the live holder set immediately, pro-rata by
// current balance. The last holder receives the remainder, so the full
// amount is always paid out. Holder-set changes after the call do not
// affect anything, but a transfer racing the acceptance would have; the
// round strategy closes that gap.
type DirectStrategy struct {
	Transfer TransferFunc
}

// Distribute implements Strategy.
func (s *DirectStrategy) Distribute(tok *token.OwnershipToken, amount uint64, payer token.Address) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	holders, balances := tok.Holders()
	if len(holders) == 0 {
		return ErrNoHolders
	}
	supply := tok.TotalSupply()
	if supply == 0 {
		return ErrZeroSnapshotSupply
	}

	var distributed uint64
	for i, holder := range holders {
		var share uint64
		if i == len(holders)-1 {
			share = amount - distributed // last holder gets remainder
		} else {
			share = proRata(amount, balances[i], supply)
			distributed += share
		}
		if share == 0 {
			continue
		}
		if err := s.Transfer(payer, holder, share); err != nil {
			// Walk back what was already paid so the caller sees either a
			// complete distribution or none.
			for j := 0; j < i; j++ {
				back := proRata(amount, balances[j], supply)
				if back > 0 {
					_ = s.Transfer(holders[j], payer, back)
				}
			}
			return fmt.Errorf("%w: holder %s: %w", ErrPayout, holder, err)
		}
	}
	return nil
}

// RoundStrategy opens a snapshot-backed claim round instead of paying
// immediately. Owners claim their shares from the distributor later.
type RoundStrategy struct {
	Distributor *Distributor
	Actor       token.Address // capability holder opening the round
}

// Distribute implements Strategy.
func (s *RoundStrategy) Distribute(tok *token.OwnershipToken, amount uint64, payer token.Address) error {
	_, err := s.Distributor.OpenRound(s.Actor, tok, amount, payer)
	return err
}
