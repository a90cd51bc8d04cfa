package investment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/finview/portfolio-tracker/internal/ledger"
	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/model"
)

var (
	ErrNotFound       = errors.New("investment not found")
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNotOwned       = errors.New("watchlist not owned by user")
	ErrInvalidInput   = errors.New("invalid investment input")
)

// QuoteSource resolves a symbol into a quote, caching it as a side effect.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (model.StockQuote, error)
}

type Service struct {
	db     *sqlx.DB
	logger logger.Logger
	quotes QuoteSource
}

func NewService(db *sqlx.DB, quotes QuoteSource, logger logger.Logger) *Service {
	return &Service{db: db, logger: logger, quotes: quotes}
}

type BuyParams struct {
	WatchlistID  int64
	Symbol       string
	Shares       float64
	CostPerShare float64
	ExchangeRate float64
	TradeDate    time.Time
	Notes        string
}

type UpdateParams struct {
	InvestmentID int64
	Shares       float64
	CostPerShare float64
	ExchangeRate float64
	TradeDate    time.Time
}

type SellParams struct {
	InvestmentID  int64
	Shares        float64
	PricePerShare float64
	ExchangeRate  float64
}

// Buy records a purchase. A first buy inserts the position; a repeat buy
// folds into the existing row with weighted-average cost and rate. The
// symbol must resolve against the quote source before anything is
// written, and the row merge plus the trade append happen in one
// transaction.
func (s *Service) Buy(ctx context.Context, user model.User, p BuyParams) error {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	if p.Symbol == "" || p.Shares <= 0 || p.CostPerShare < 0 {
		return ErrInvalidInput
	}
	if p.ExchangeRate <= 0 {
		p.ExchangeRate = 1
	}
	if p.TradeDate.IsZero() {
		p.TradeDate = time.Now()
	}

	if err := s.checkWatchlistOwned(ctx, p.WatchlistID, user.ID); err != nil {
		return err
	}

	quote, err := s.quotes.GetQuote(ctx, p.Symbol)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSymbolNotFound, p.Symbol)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: can't begin buy tx", err)
	}
	defer tx.Rollback()

	var existing model.Investment
	exists := true
	if err := tx.GetContext(ctx, &existing, _queryPositionForUpdate, p.WatchlistID, p.Symbol); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: can't lock position", err)
		}
		exists = false
	}

	if exists {
		merged, err := ledger.Merge(
			ledger.Lot{Shares: existing.Shares, CostPerShare: existing.CostPerShare, ExchangeRate: existing.ExchangeRateAtPurchase},
			ledger.Lot{Shares: p.Shares, CostPerShare: p.CostPerShare, ExchangeRate: p.ExchangeRate},
		)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, _updateMergedPosition,
			merged.Shares, merged.CostPerShare, merged.ExchangeRate, existing.ID,
		); err != nil {
			return fmt.Errorf("%w: can't merge position", err)
		}
	} else {
		var notes sql.NullString
		if p.Notes != "" {
			notes = sql.NullString{String: p.Notes, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, _insertPosition,
			p.WatchlistID, p.Symbol, quote.Name, quote.Currency,
			p.Shares, p.CostPerShare, p.ExchangeRate, p.TradeDate, notes,
		); err != nil {
			return fmt.Errorf("%w: can't insert position", err)
		}
	}

	if _, err := tx.ExecContext(ctx, _insertTrade,
		user.ID, sql.NullInt64{Int64: p.WatchlistID, Valid: true}, p.Symbol, quote.Name, model.TradeBuy,
		p.Shares, p.CostPerShare, quote.Currency, p.ExchangeRate, p.Shares*p.CostPerShare, p.TradeDate,
	); err != nil {
		return fmt.Errorf("%w: can't record buy trade", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: can't commit buy tx", err)
	}
	return nil
}

// Update overwrites a position's figures after an ownership check. No
// trade row is appended: this is a correction, not a trade.
func (s *Service) Update(ctx context.Context, user model.User, p UpdateParams) error {
	if p.Shares <= 0 || p.CostPerShare < 0 {
		return ErrInvalidInput
	}
	if p.ExchangeRate <= 0 {
		p.ExchangeRate = 1
	}

	existing, err := s.ownedPosition(ctx, p.InvestmentID, user.ID)
	if err != nil {
		return err
	}

	tradeDate := p.TradeDate
	if tradeDate.IsZero() {
		tradeDate = existing.TradeDate
	}

	if _, err := s.db.ExecContext(ctx, _updatePosition,
		p.Shares, p.CostPerShare, p.ExchangeRate, tradeDate, existing.ID,
	); err != nil {
		return fmt.Errorf("%w: can't update position", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, user model.User, investmentID int64) error {
	existing, err := s.ownedPosition(ctx, investmentID, user.ID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, _deletePosition, existing.ID); err != nil {
		return fmt.Errorf("%w: can't delete position", err)
	}
	return nil
}

// RecordSale disposes shares from a position. The SELL trade row is
// appended only once the sale is accepted; a rejected sale leaves
// nothing behind. Full disposal removes the position row, partial
// disposal decrements shares and leaves cost basis and purchase rate
// untouched.
func (s *Service) RecordSale(ctx context.Context, user model.User, p SellParams) error {
	if p.Shares <= 0 || p.PricePerShare < 0 {
		return ErrInvalidInput
	}
	if p.ExchangeRate <= 0 {
		p.ExchangeRate = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: can't begin sell tx", err)
	}
	defer tx.Rollback()

	var existing model.Investment
	if err := tx.GetContext(ctx, &existing, _queryOwnedPositionForUpdate, p.InvestmentID, user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: can't lock position", err)
	}

	remaining, closed, err := ledger.Sell(
		ledger.Lot{Shares: existing.Shares, CostPerShare: existing.CostPerShare, ExchangeRate: existing.ExchangeRateAtPurchase},
		p.Shares,
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, _insertTrade,
		user.ID, sql.NullInt64{Int64: existing.WatchlistID, Valid: true}, existing.Symbol, existing.Name, model.TradeSell,
		p.Shares, p.PricePerShare, existing.Currency, p.ExchangeRate, p.Shares*p.PricePerShare, time.Now(),
	); err != nil {
		return fmt.Errorf("%w: can't record sell trade", err)
	}

	if closed {
		if _, err := tx.ExecContext(ctx, _deletePosition, existing.ID); err != nil {
			return fmt.Errorf("%w: can't delete sold-out position", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, _updatePositionShares, remaining.Shares, existing.ID); err != nil {
			return fmt.Errorf("%w: can't decrement position shares", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: can't commit sell tx", err)
	}
	return nil
}

func (s *Service) ListByWatchlist(ctx context.Context, watchlistID int64) ([]model.Investment, error) {
	var positions []model.Investment
	if err := s.db.SelectContext(ctx, &positions, _queryPositions, watchlistID); err != nil {
		return nil, fmt.Errorf("%w: can't query positions", err)
	}
	return positions, nil
}

// Symbols returns the distinct symbols in a watchlist the user owns.
func (s *Service) Symbols(ctx context.Context, user model.User, watchlistID int64) ([]string, error) {
	var symbols []string
	if err := s.db.SelectContext(ctx, &symbols, _querySymbols, watchlistID, user.ID); err != nil {
		return nil, fmt.Errorf("%w: can't query watchlist symbols", err)
	}
	return symbols, nil
}

func (s *Service) RecentTrades(ctx context.Context, user model.User, limit int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 10
	}
	var trades []model.Trade
	if err := s.db.SelectContext(ctx, &trades, _queryRecentTrades, user.ID, limit); err != nil {
		return nil, fmt.Errorf("%w: can't query trades", err)
	}
	return trades, nil
}

func (s *Service) checkWatchlistOwned(ctx context.Context, watchlistID int64, userID string) error {
	var owned bool
	if err := s.db.GetContext(ctx, &owned, _queryWatchlistOwned, watchlistID, userID); err != nil {
		return fmt.Errorf("%w: can't verify watchlist ownership", err)
	}
	if !owned {
		return ErrNotOwned
	}
	return nil
}

func (s *Service) ownedPosition(ctx context.Context, investmentID int64, userID string) (model.Investment, error) {
	var existing model.Investment
	if err := s.db.GetContext(ctx, &existing, _queryOwnedPosition, investmentID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return existing, ErrNotFound
		}
		return existing, fmt.Errorf("%w: can't query position", err)
	}
	return existing, nil
}
