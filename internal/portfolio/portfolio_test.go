package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/market"
	"github.com/finview/portfolio-tracker/internal/model"
)

type fakePositions struct {
	positions []model.Investment
	trades    []model.Trade
}

func (f *fakePositions) ListByWatchlist(context.Context, int64) ([]model.Investment, error) {
	return f.positions, nil
}

func (f *fakePositions) RecentTrades(context.Context, model.User, int) ([]model.Trade, error) {
	return f.trades, nil
}

type fakeMarket struct {
	quotes map[string]model.StockQuote
	rates  map[string]float64
}

func (f *fakeMarket) GetQuote(_ context.Context, symbol string) (model.StockQuote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return model.StockQuote{}, market.ErrQuoteNotFound
	}
	return q, nil
}

func (f *fakeMarket) GetRates(context.Context, string) map[string]float64 {
	return f.rates
}

func TestOverviewMixedCurrencies(t *testing.T) {
	positions := &fakePositions{
		positions: []model.Investment{
			{ID: 1, Symbol: "AAPL", Currency: "USD", Shares: 10, CostPerShare: 100, ExchangeRateAtPurchase: 1},
			{ID: 2, Symbol: "ASML.AS", Currency: "EUR", Shares: 20, CostPerShare: 45, ExchangeRateAtPurchase: 1.05},
		},
		trades: []model.Trade{{ID: 7, Symbol: "AAPL", TradeType: model.TradeBuy}},
	}
	mkt := &fakeMarket{
		quotes: map[string]model.StockQuote{
			"AAPL":    {Symbol: "AAPL", Price: 110, Currency: "USD"},
			"ASML.AS": {Symbol: "ASML.AS", Price: 50, Currency: "EUR"},
		},
		rates: map[string]float64{"USD": 1, "EUR": 0.92},
	}

	svc := NewService(positions, mkt, "USD", logger.Nop{})
	ov, err := svc.Overview(context.Background(), model.User{ID: "u1"}, 1)
	require.NoError(t, err)

	require.Len(t, ov.Lines, 2)

	usd := ov.Lines[0]
	assert.InDelta(t, 1000.0, usd.TotalCost, 1e-9)
	assert.InDelta(t, 1100.0, usd.MarketValue, 1e-9)
	assert.Equal(t, 1.0, usd.CurrentExchangeRate)

	eur := ov.Lines[1]
	// cost via the purchase-time rate, market value via the live rate
	assert.InDelta(t, 20*45*1.05, eur.TotalCost, 0.01)
	assert.InDelta(t, 1086.96, eur.MarketValue, 0.01)

	assert.InDelta(t, usd.MarketValue+eur.MarketValue, ov.Summary.TotalMarketValue, 0.01)
	assert.InDelta(t, 100.0, usd.PortfolioWeight+eur.PortfolioWeight, 0.01)
	assert.Equal(t, 2, ov.Summary.InvestmentCount)
	assert.Len(t, ov.Trades, 1)
}

func TestOverviewMissingQuoteValuedAtCost(t *testing.T) {
	positions := &fakePositions{
		positions: []model.Investment{
			{ID: 1, Symbol: "GHOST", Currency: "USD", Shares: 5, CostPerShare: 30, ExchangeRateAtPurchase: 1},
		},
	}
	mkt := &fakeMarket{quotes: map[string]model.StockQuote{}, rates: map[string]float64{"USD": 1}}

	svc := NewService(positions, mkt, "USD", logger.Nop{})
	ov, err := svc.Overview(context.Background(), model.User{ID: "u1"}, 1)
	require.NoError(t, err)

	require.Len(t, ov.Lines, 1)
	assert.Equal(t, 30.0, ov.Lines[0].CurrentPrice)
	assert.Equal(t, 0.0, ov.Lines[0].GainLoss)
	assert.Equal(t, 0.0, ov.Summary.TotalGainLoss)
}

func TestOverviewEmptyWatchlist(t *testing.T) {
	svc := NewService(&fakePositions{}, &fakeMarket{rates: map[string]float64{"USD": 1}}, "USD", logger.Nop{})

	ov, err := svc.Overview(context.Background(), model.User{ID: "u1"}, 1)
	require.NoError(t, err)

	assert.Empty(t, ov.Lines)
	assert.Equal(t, 0.0, ov.Summary.TotalMarketValue)
}

func TestOverviewIsIdempotent(t *testing.T) {
	positions := &fakePositions{
		positions: []model.Investment{
			{ID: 1, Symbol: "AAPL", Currency: "USD", Shares: 10, CostPerShare: 100, ExchangeRateAtPurchase: 1, TradeDate: time.Now()},
		},
	}
	mkt := &fakeMarket{
		quotes: map[string]model.StockQuote{"AAPL": {Symbol: "AAPL", Price: 110, Currency: "USD"}},
		rates:  map[string]float64{"USD": 1},
	}

	svc := NewService(positions, mkt, "USD", logger.Nop{})
	first, err := svc.Overview(context.Background(), model.User{ID: "u1"}, 1)
	require.NoError(t, err)
	second, err := svc.Overview(context.Background(), model.User{ID: "u1"}, 1)
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Lines, second.Lines)
}
