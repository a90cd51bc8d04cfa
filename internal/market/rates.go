package market

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/finview/portfolio-tracker/internal/model"
)

// GetRates returns the base -> currency rate table: fresh cache first,
// then upstream, then stale cache, then the fixed fallback table. It
// never fails; the worst case is the hardcoded defaults.
func (s *Service) GetRates(ctx context.Context, base string) map[string]float64 {
	cached, err := s.cachedRates(ctx, base)
	if err != nil {
		s.logger.Errorf("%s: can't read rate cache for %s", err, base)
	}
	if fresh := s.freshRates(cached, base); fresh != nil {
		return fresh
	}

	rates, err := s.fetchRates(ctx, base)
	if err != nil {
		s.logger.Warnf("%s: can't fetch rates for %s", err, base)
		if len(cached) > 0 {
			return ratesToMap(cached, base)
		}
		return defaultRates()
	}

	if err := s.storeRates(ctx, base, rates); err != nil {
		s.logger.Errorf("%s: can't cache rates for %s", err, base)
	}

	rates[base] = 1
	return rates
}

func (s *Service) freshRates(cached []model.ExchangeRate, base string) map[string]float64 {
	fresh := make([]model.ExchangeRate, 0, len(cached))
	for _, r := range cached {
		if time.Since(r.UpdatedAt) < s.cfg.RatesTTL {
			fresh = append(fresh, r)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return ratesToMap(fresh, base)
}

func ratesToMap(rows []model.ExchangeRate, base string) map[string]float64 {
	rates := map[string]float64{base: 1}
	for _, r := range rows {
		rates[r.ToCurrency] = r.Rate
	}
	return rates
}

const _latestRatesURL = "/latest"

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (s *Service) fetchRates(ctx context.Context, base string) (map[string]float64, error) {
	resp, err := s.rates.R().
		SetContext(ctx).
		SetQueryParam("from", base).
		Get(_latestRatesURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't request rates", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("rates request error: %s", resp.Status())
	}

	return parseRatesResponse(resp.Bytes(), base)
}

func parseRatesResponse(body []byte, base string) (map[string]float64, error) {
	var raw ratesResponse
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: can't unmarshal rates response", err)
	}
	if len(raw.Rates) == 0 {
		return nil, fmt.Errorf("empty rates for %s", base)
	}

	rates := make(map[string]float64, len(raw.Rates)+1)
	rates[base] = 1
	for currency, rate := range raw.Rates {
		rates[currency] = rate
	}
	return rates, nil
}

// defaultRates is the last-resort table used when both the provider and
// the cache are unavailable.
func defaultRates() map[string]float64 {
	return map[string]float64{
		"USD": 1,
		"EUR": 0.92,
		"GBP": 0.79,
		"JPY": 149.5,
		"CHF": 0.88,
		"CAD": 1.36,
		"AUD": 1.53,
		"ARS": 1050,
		"BRL": 5.0,
		"MXN": 17.2,
		"CLP": 980,
		"COP": 4100,
	}
}
