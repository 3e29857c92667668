package market

import "errors"

var (
	// ErrSaleNotFound indicates the sale id does not exist.
	ErrSaleNotFound = errors.New("market: sale not found")

	// ErrSaleClosed indicates the sale is no longer active.
	ErrSaleClosed = errors.New("market: sale closed")

	// ErrOfferNotFound indicates the lease offer id does not exist.
	ErrOfferNotFound = errors.New("market: lease offer not found")

	// ErrOfferClosed indicates the lease offer already accepted a bid.
	ErrOfferClosed = errors.New("market: lease offer closed")

	// ErrBidNotFound indicates the bid id does not exist.
	ErrBidNotFound = errors.New("market: bid not found")

	// ErrBidInactive indicates the bid was already settled or refunded.
	ErrBidInactive = errors.New("market: bid no longer active")

	// ErrNotSeller indicates the caller is not the sale's seller.
	ErrNotSeller = errors.New("market: caller is not the seller")

	// ErrNotLessor indicates the caller is not the offer's lessor.
	ErrNotLessor = errors.New("market: caller is not the lessor")

	// ErrLesseeBound indicates a posted offer's intent already names a lessee.
	ErrLesseeBound = errors.New("market: offer intent must leave the lessee unbound")

	// ErrZeroAmount indicates a zero unit amount or zero escrow.
	ErrZeroAmount = errors.New("market: amount must be nonzero")

	// ErrAmountOverflow indicates amount * price does not fit in 64 bits.
	ErrAmountOverflow = errors.New("market: bid value overflows")

	// ErrInsufficientRemaining indicates the bid asks for more units than
	// the sale has left.
	ErrInsufficientRemaining = errors.New("market: insufficient remaining sale amount")

	// ErrEscrow indicates the escrow pull from the bidder failed.
	ErrEscrow = errors.New("market: escrow transfer failed")

	// ErrSettlement indicates a settlement transfer failed during
	// acceptance; the whole acceptance was rolled back.
	ErrSettlement = errors.New("market: settlement transfer failed")

	// ErrInsufficientFunds is returned by the in-process funds ledger.
	ErrInsufficientFunds = errors.New("market: insufficient settlement funds")
)
