package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing Lot
		buy      Lot
		want     Lot
	}{
		{
			name:     "same price same rate",
			existing: Lot{Shares: 10, CostPerShare: 100, ExchangeRate: 1.0},
			buy:      Lot{Shares: 10, CostPerShare: 150, ExchangeRate: 1.0},
			want:     Lot{Shares: 20, CostPerShare: 125, ExchangeRate: 1.0},
		},
		{
			name:     "rate weighted by cost value not share count",
			existing: Lot{Shares: 10, CostPerShare: 100, ExchangeRate: 1.0},
			buy:      Lot{Shares: 10, CostPerShare: 300, ExchangeRate: 2.0},
			// cost contributions 1000 vs 3000, so rate = (1000*1 + 3000*2) / 4000
			want: Lot{Shares: 20, CostPerShare: 200, ExchangeRate: 1.75},
		},
		{
			name:     "first buy into empty lot",
			existing: Lot{},
			buy:      Lot{Shares: 5, CostPerShare: 40, ExchangeRate: 1.1},
			want:     Lot{Shares: 5, CostPerShare: 40, ExchangeRate: 1.1},
		},
		{
			name:     "zero-cost lots keep existing rate",
			existing: Lot{Shares: 10, CostPerShare: 0, ExchangeRate: 1.3},
			buy:      Lot{Shares: 5, CostPerShare: 0, ExchangeRate: 2.0},
			want:     Lot{Shares: 15, CostPerShare: 0, ExchangeRate: 1.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.existing, tt.buy)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Shares, got.Shares, 1e-9)
			assert.InDelta(t, tt.want.CostPerShare, got.CostPerShare, 1e-9)
			assert.InDelta(t, tt.want.ExchangeRate, got.ExchangeRate, 1e-9)
		})
	}
}

func TestMergeRejectsNonPositiveShares(t *testing.T) {
	_, err := Merge(Lot{Shares: 10, CostPerShare: 100, ExchangeRate: 1}, Lot{Shares: 0})
	require.ErrorIs(t, err, ErrZeroShares)

	_, err = Merge(Lot{}, Lot{Shares: -1, CostPerShare: 100, ExchangeRate: 1})
	require.ErrorIs(t, err, ErrZeroShares)
}

func TestMergeNeverProducesNegativeShares(t *testing.T) {
	got, err := Merge(Lot{Shares: 0.0001, CostPerShare: 1, ExchangeRate: 1}, Lot{Shares: 0.0001, CostPerShare: 1, ExchangeRate: 1})
	require.NoError(t, err)
	assert.Greater(t, got.Shares, 0.0)
}

func TestSellPartial(t *testing.T) {
	current := Lot{Shares: 20, CostPerShare: 125, ExchangeRate: 1.0}

	remaining, closed, err := Sell(current, 5)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.InDelta(t, 15, remaining.Shares, 1e-9)
	// blended lot: cost basis and purchase rate survive a partial disposal
	assert.Equal(t, current.CostPerShare, remaining.CostPerShare)
	assert.Equal(t, current.ExchangeRate, remaining.ExchangeRate)
}

func TestSellFullDisposal(t *testing.T) {
	_, closed, err := Sell(Lot{Shares: 7, CostPerShare: 10, ExchangeRate: 1.2}, 7)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestSellInsufficientShares(t *testing.T) {
	current := Lot{Shares: 3, CostPerShare: 10, ExchangeRate: 1}

	_, _, err := Sell(current, 4)
	require.ErrorIs(t, err, ErrInsufficientShares)
}

func TestSellRejectsNonPositiveShares(t *testing.T) {
	_, _, err := Sell(Lot{Shares: 3}, 0)
	require.ErrorIs(t, err, ErrZeroShares)
}
