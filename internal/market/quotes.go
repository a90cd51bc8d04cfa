package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/finview/portfolio-tracker/internal/config"
	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/model"
)

var ErrQuoteNotFound = errors.New("quote not found")

// Service serves quotes and exchange rates from the database cache,
// refreshing them from the upstream providers when stale. Upstream
// failures fall back to whatever the cache holds, however old.
type Service struct {
	db     *sqlx.DB
	logger logger.Logger

	quotes *resty.Client
	rates  *resty.Client

	rateLimiter ratelimit.Limiter

	cfg config.MarketConfig
}

func NewService(cfg config.MarketConfig, db *sqlx.DB, logger logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		quotes: resty.New().
			SetBaseURL(cfg.QuoteBaseURL).
			SetTimeout(cfg.FetchTimeout).
			SetHeader("User-Agent", "portfolio-tracker/1.0"),
		rates: resty.New().
			SetBaseURL(cfg.RatesBaseURL).
			SetTimeout(cfg.FetchTimeout),
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(1*time.Minute)),
		cfg:         cfg,
	}
}

// GetQuote returns a quote for symbol: fresh cache first, then upstream,
// then stale cache as a last resort.
func (s *Service) GetQuote(ctx context.Context, symbol string) (model.StockQuote, error) {
	cached, ok, err := s.cachedQuote(ctx, symbol)
	if err != nil {
		s.logger.Errorf("%s: can't read quote cache for %s", err, symbol)
	}
	if ok && time.Since(cached.UpdatedAt) < s.cfg.QuoteTTL {
		return cached, nil
	}

	quote, err := s.fetchQuote(ctx, symbol)
	if err != nil {
		s.logger.Warnf("%s: can't fetch quote for %s", err, symbol)
		if ok {
			return cached, nil
		}
		return model.StockQuote{}, fmt.Errorf("%w: %s", ErrQuoteNotFound, symbol)
	}

	if err := s.storeQuote(ctx, quote); err != nil {
		s.logger.Errorf("%s: can't cache quote for %s", err, symbol)
	}

	return quote, nil
}

// RefreshSymbols re-fetches every symbol sequentially behind the rate
// limiter so one refresh can't hammer the provider. A bad symbol is
// logged and skipped; the loop always runs to the end and finishes by
// refreshing the base-currency rate table.
func (s *Service) RefreshSymbols(ctx context.Context, symbols []string, base string) {
	for _, symbol := range symbols {
		quote, err := s.fetchQuote(ctx, symbol)
		if err != nil {
			s.logger.Warnf("%s: skipping refresh for %s", err, symbol)
			continue
		}
		if err := s.storeQuote(ctx, quote); err != nil {
			s.logger.Errorf("%s: can't cache quote for %s", err, symbol)
		}
	}

	rates, err := s.fetchRates(ctx, base)
	if err != nil {
		s.logger.Warnf("%s: can't refresh rates for %s", err, base)
		return
	}
	if err := s.storeRates(ctx, base, rates); err != nil {
		s.logger.Errorf("%s: can't cache rates for %s", err, base)
	}
}

const _chartURL = "/v8/finance/chart/%s?interval=1d&range=1d"

func (s *Service) fetchQuote(ctx context.Context, symbol string) (model.StockQuote, error) {
	s.rateLimiter.Take()

	resp, err := s.quotes.R().
		SetContext(ctx).
		Get(fmt.Sprintf(_chartURL, url.PathEscape(symbol)))
	if err != nil {
		return model.StockQuote{}, fmt.Errorf("%w: can't request quote", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return model.StockQuote{}, fmt.Errorf("quote request error: %s", resp.Status())
	}

	s.logger.Debugf("got quote response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	return parseChartResponse(resp.Bytes())
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				ShortName          string  `json:"shortName"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				MarketCap          float64 `json:"marketCap"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// parseChartResponse extracts a quote from a Yahoo chart v8 payload.
func parseChartResponse(body []byte) (model.StockQuote, error) {
	var raw chartResponse
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return model.StockQuote{}, fmt.Errorf("%w: can't unmarshal chart response", err)
	}
	if len(raw.Chart.Result) == 0 {
		return model.StockQuote{}, fmt.Errorf("empty chart result")
	}

	meta := raw.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return model.StockQuote{}, fmt.Errorf("no market price for %s", meta.Symbol)
	}

	previousClose := meta.PreviousClose
	if previousClose == 0 {
		previousClose = meta.ChartPreviousClose
	}

	quote := model.StockQuote{
		Symbol:        meta.Symbol,
		Name:          meta.ShortName,
		Price:         meta.RegularMarketPrice,
		PreviousClose: previousClose,
		Currency:      meta.Currency,
	}
	if quote.Name == "" {
		quote.Name = meta.Symbol
	}
	if quote.Currency == "" {
		quote.Currency = "USD"
	}
	if previousClose > 0 {
		quote.ChangeAmount = quote.Price - previousClose
		quote.ChangePercent = quote.ChangeAmount / previousClose * 100
	}
	if meta.MarketCap > 0 {
		quote.MarketCap.Float64 = meta.MarketCap
		quote.MarketCap.Valid = true
	}

	return quote, nil
}
