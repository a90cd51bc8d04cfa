package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/model"
	"github.com/finview/portfolio-tracker/internal/tools"
	"github.com/finview/portfolio-tracker/internal/valuation"
)

const _recentTradesLimit = 10

// Positions is the slice of the investment service the read path needs.
type Positions interface {
	ListByWatchlist(ctx context.Context, watchlistID int64) ([]model.Investment, error)
	RecentTrades(ctx context.Context, user model.User, limit int) ([]model.Trade, error)
}

// Market serves quotes and the rate table, falling back to cached or
// default data on upstream failure.
type Market interface {
	GetQuote(ctx context.Context, symbol string) (model.StockQuote, error)
	GetRates(ctx context.Context, base string) map[string]float64
}

type Service struct {
	positions Positions
	market    Market
	logger    logger.Logger

	baseCurrency string
}

func NewService(positions Positions, market Market, baseCurrency string, logger logger.Logger) *Service {
	return &Service{
		positions:    positions,
		market:       market,
		logger:       logger,
		baseCurrency: baseCurrency,
	}
}

// Line is one valued position, monetary figures in the base currency.
type Line struct {
	ID                     int64     `json:"id"`
	Symbol                 string    `json:"symbol"`
	Name                   string    `json:"name"`
	Currency               string    `json:"currency"`
	Shares                 float64   `json:"shares"`
	CostPerShare           float64   `json:"costPerShare"`
	ExchangeRateAtPurchase float64   `json:"exchangeRateAtPurchase"`
	TradeDate              time.Time `json:"tradeDate"`
	Notes                  string    `json:"notes,omitempty"`

	CurrentPrice        float64 `json:"currentPrice"`
	PreviousClose       float64 `json:"previousClose,omitempty"`
	ChangePercent       float64 `json:"changePercent,omitempty"`
	CurrentExchangeRate float64 `json:"currentExchangeRate"`
	TotalCost           float64 `json:"totalCost"`
	MarketValue         float64 `json:"marketValue"`
	GainLoss            float64 `json:"gainLoss"`
	GainLossPercent     float64 `json:"gainLossPercent"`
	PortfolioWeight     float64 `json:"portfolioWeight"`
}

type Summary struct {
	BaseCurrency         string  `json:"baseCurrency"`
	TotalMarketValue     float64 `json:"totalMarketValue"`
	TotalCost            float64 `json:"totalCost"`
	TotalGainLoss        float64 `json:"totalGainLoss"`
	TotalGainLossPercent float64 `json:"totalGainLossPercent"`
	InvestmentCount      int     `json:"investmentCount"`
}

type Overview struct {
	Summary Summary       `json:"summary"`
	Lines   []Line        `json:"investments"`
	Trades  []model.Trade `json:"-"`
}

// Overview values every position in the watchlist against cached quotes
// and rates, fetching lazily what the cache is missing. A symbol that
// can't be priced at all is valued at its cost basis rather than
// dropped.
func (s *Service) Overview(ctx context.Context, user model.User, watchlistID int64) (Overview, error) {
	positions, err := s.positions.ListByWatchlist(ctx, watchlistID)
	if err != nil {
		return Overview{}, fmt.Errorf("%w: can't load positions", err)
	}

	rates := s.market.GetRates(ctx, s.baseCurrency)

	lines := make([]valuation.Line, len(positions))
	out := make([]Line, len(positions))
	for i, pos := range positions {
		quote, qErr := s.market.GetQuote(ctx, pos.Symbol)
		if qErr != nil {
			s.logger.Warnf("%s: no quote for %s, valuing at cost", qErr, pos.Symbol)
			quote = model.StockQuote{}
		}

		lines[i] = valuation.Evaluate(valuation.Position{
			Shares:                 pos.Shares,
			CostPerShare:           pos.CostPerShare,
			ExchangeRateAtPurchase: pos.ExchangeRateAtPurchase,
			Currency:               pos.Currency,
		}, quote.Price, rates, s.baseCurrency)

		out[i] = Line{
			ID:                     pos.ID,
			Symbol:                 pos.Symbol,
			Name:                   pos.Name,
			Currency:               pos.Currency,
			Shares:                 pos.Shares,
			CostPerShare:           pos.CostPerShare,
			ExchangeRateAtPurchase: pos.ExchangeRateAtPurchase,
			TradeDate:              pos.TradeDate,
			Notes:                  pos.Notes.String,
			PreviousClose:          quote.PreviousClose,
			ChangePercent:          tools.RoundMoney(quote.ChangePercent, 4),
		}
	}

	sum := valuation.Summarize(lines)

	for i := range out {
		out[i].CurrentPrice = lines[i].CurrentPrice
		out[i].CurrentExchangeRate = tools.RoundMoney(lines[i].CurrentExchangeRate, 6)
		out[i].TotalCost = tools.RoundCents(lines[i].TotalCost)
		out[i].MarketValue = tools.RoundCents(lines[i].MarketValue)
		out[i].GainLoss = tools.RoundCents(lines[i].GainLoss)
		out[i].GainLossPercent = tools.RoundMoney(lines[i].GainLossPercent, 4)
		out[i].PortfolioWeight = tools.RoundMoney(lines[i].Weight, 4)
	}

	trades, err := s.positions.RecentTrades(ctx, user, _recentTradesLimit)
	if err != nil {
		return Overview{}, fmt.Errorf("%w: can't load trades", err)
	}

	return Overview{
		Summary: Summary{
			BaseCurrency:         s.baseCurrency,
			TotalMarketValue:     tools.RoundCents(sum.TotalMarketValue),
			TotalCost:            tools.RoundCents(sum.TotalCost),
			TotalGainLoss:        tools.RoundCents(sum.TotalGainLoss),
			TotalGainLossPercent: tools.RoundMoney(sum.TotalGainLossPercent, 4),
			InvestmentCount:      len(positions),
		},
		Lines:  out,
		Trades: trades,
	}, nil
}
