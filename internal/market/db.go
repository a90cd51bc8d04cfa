package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finview/portfolio-tracker/internal/model"
)

const (
	_queryQuote = "SELECT symbol, name, price, previous_close, change_amount, change_percent, currency, market_cap, updated_at FROM stock_price_cache WHERE symbol = $1"

	_upsertQuote = `INSERT INTO stock_price_cache (
							symbol,
							name,
							price,
							previous_close,
							change_amount,
							change_percent,
							currency,
							market_cap,
							updated_at
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
						ON CONFLICT (symbol)
						DO UPDATE SET
							name = EXCLUDED.name,
							price = EXCLUDED.price,
							previous_close = EXCLUDED.previous_close,
							change_amount = EXCLUDED.change_amount,
							change_percent = EXCLUDED.change_percent,
							currency = EXCLUDED.currency,
							market_cap = EXCLUDED.market_cap,
							updated_at = NOW();`

	_queryRates = "SELECT from_currency, to_currency, rate, updated_at FROM exchange_rate_cache WHERE from_currency = $1"

	_upsertRate = `INSERT INTO exchange_rate_cache (
							from_currency, to_currency, rate, updated_at
						) VALUES ($1,$2,$3,NOW())
						ON CONFLICT (from_currency, to_currency)
						DO UPDATE SET
							rate = EXCLUDED.rate,
							updated_at = NOW();`
)

func (s *Service) cachedQuote(ctx context.Context, symbol string) (model.StockQuote, bool, error) {
	var q model.StockQuote
	if err := s.db.GetContext(ctx, &q, _queryQuote, symbol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return q, false, nil
		}
		return q, false, fmt.Errorf("%w: can't query cached quote", err)
	}
	return q, true, nil
}

func (s *Service) storeQuote(ctx context.Context, q model.StockQuote) error {
	if _, err := s.db.ExecContext(ctx, _upsertQuote,
		q.Symbol,
		q.Name,
		q.Price,
		q.PreviousClose,
		q.ChangeAmount,
		q.ChangePercent,
		q.Currency,
		q.MarketCap,
	); err != nil {
		return fmt.Errorf("%w: can't upsert quote", err)
	}
	return nil
}

func (s *Service) cachedRates(ctx context.Context, base string) ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	if err := s.db.SelectContext(ctx, &rates, _queryRates, base); err != nil {
		return nil, fmt.Errorf("%w: can't query cached rates", err)
	}
	return rates, nil
}

func (s *Service) storeRates(ctx context.Context, base string, rates map[string]float64) error {
	for currency, rate := range rates {
		if _, err := s.db.ExecContext(ctx, _upsertRate, base, currency, rate); err != nil {
			return fmt.Errorf("%w: can't upsert rate %s/%s", err, base, currency)
		}
	}
	return nil
}
