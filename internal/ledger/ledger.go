package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientShares = errors.New("not enough shares to sell")
	ErrZeroShares         = errors.New("shares must be positive")
)

// Lot is the blended holding of one symbol: share count, weighted-average
// cost per share in the lot currency and weighted-average exchange rate
// locked in at purchase (base-currency units per lot-currency unit).
type Lot struct {
	Shares       float64
	CostPerShare float64
	ExchangeRate float64
}

// Merge folds a new buy into an existing lot. Cost per share is a
// share-value weighted average; the exchange rate is weighted by each
// side's cost contribution (shares*cost), since the rate applies to
// monetary value rather than unit count. A combined cost of zero leaves
// the existing rate untouched.
func Merge(existing, buy Lot) (Lot, error) {
	if buy.Shares <= 0 {
		return Lot{}, fmt.Errorf("%w: got %f", ErrZeroShares, buy.Shares)
	}

	totalShares := existing.Shares + buy.Shares
	existingCost := existing.Shares * existing.CostPerShare
	buyCost := buy.Shares * buy.CostPerShare
	totalCost := existingCost + buyCost

	merged := Lot{
		Shares:       totalShares,
		CostPerShare: totalCost / totalShares,
		ExchangeRate: existing.ExchangeRate,
	}
	if totalCost > 0 {
		merged.ExchangeRate = (existingCost*existing.ExchangeRate + buyCost*buy.ExchangeRate) / totalCost
	}

	return merged, nil
}

// Sell reduces a lot by the given share count. The remaining lot keeps its
// original cost per share and purchase rate: this is a single blended lot,
// not FIFO/LIFO tracking. The second return value reports full disposal.
func Sell(current Lot, shares float64) (Lot, bool, error) {
	if shares <= 0 {
		return Lot{}, false, fmt.Errorf("%w: got %f", ErrZeroShares, shares)
	}
	if shares > current.Shares {
		return Lot{}, false, fmt.Errorf("%w: have %f, want to sell %f", ErrInsufficientShares, current.Shares, shares)
	}

	if shares == current.Shares {
		return Lot{ExchangeRate: current.ExchangeRate, CostPerShare: current.CostPerShare}, true, nil
	}

	remaining := current
	remaining.Shares -= shares
	return remaining, false, nil
}
