package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finview/portfolio-tracker/internal/config"
	"github.com/finview/portfolio-tracker/internal/model"
)

func TestParseChartResponse(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"meta":{
		"symbol":"AAPL","shortName":"Apple Inc.","currency":"USD",
		"regularMarketPrice":190.5,"previousClose":188.0,"marketCap":2950000000000
	}}]}}`)

	q, err := parseChartResponse(body)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc.", q.Name)
	assert.Equal(t, "USD", q.Currency)
	assert.InDelta(t, 190.5, q.Price, 1e-9)
	assert.InDelta(t, 188.0, q.PreviousClose, 1e-9)
	assert.InDelta(t, 2.5, q.ChangeAmount, 1e-9)
	assert.InDelta(t, 2.5/188.0*100, q.ChangePercent, 1e-9)
	require.True(t, q.MarketCap.Valid)
	assert.InDelta(t, 2.95e12, q.MarketCap.Float64, 1)
}

func TestParseChartResponseDefaults(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"meta":{
		"symbol":"VWRA.L","regularMarketPrice":104.2,"chartPreviousClose":103.9
	}}]}}`)

	q, err := parseChartResponse(body)
	require.NoError(t, err)

	assert.Equal(t, "VWRA.L", q.Name)
	assert.Equal(t, "USD", q.Currency)
	assert.InDelta(t, 103.9, q.PreviousClose, 1e-9)
	assert.False(t, q.MarketCap.Valid)
}

func TestParseChartResponseErrors(t *testing.T) {
	_, err := parseChartResponse([]byte(`{"chart":{"result":[]}}`))
	require.Error(t, err)

	_, err = parseChartResponse([]byte(`Too Many Requests`))
	require.Error(t, err)

	_, err = parseChartResponse([]byte(`{"chart":{"result":[{"meta":{"symbol":"X","regularMarketPrice":0}}]}}`))
	require.Error(t, err)
}

func TestParseRatesResponse(t *testing.T) {
	body := []byte(`{"amount":1,"base":"USD","date":"2026-08-28","rates":{"EUR":0.92,"JPY":149.5}}`)

	rates, err := parseRatesResponse(body, "USD")
	require.NoError(t, err)

	assert.Equal(t, 1.0, rates["USD"])
	assert.Equal(t, 0.92, rates["EUR"])
	assert.Equal(t, 149.5, rates["JPY"])
}

func TestParseRatesResponseEmpty(t *testing.T) {
	_, err := parseRatesResponse([]byte(`{"rates":{}}`), "USD")
	require.Error(t, err)

	_, err = parseRatesResponse([]byte(`<html>`), "USD")
	require.Error(t, err)
}

func TestFreshRatesFiltersStale(t *testing.T) {
	s := &Service{cfg: config.MarketConfig{RatesTTL: time.Hour}}

	stale := []model.ExchangeRate{
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: 0.92, UpdatedAt: time.Now().Add(-2 * time.Hour)},
	}
	assert.Nil(t, s.freshRates(stale, "USD"))

	fresh := []model.ExchangeRate{
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: 0.92, UpdatedAt: time.Now().Add(-time.Minute)},
	}
	got := s.freshRates(fresh, "USD")
	require.NotNil(t, got)
	assert.Equal(t, 0.92, got["EUR"])
	assert.Equal(t, 1.0, got["USD"])
}

func TestDefaultRatesCoverBase(t *testing.T) {
	rates := defaultRates()
	assert.Equal(t, 1.0, rates["USD"])
	assert.Greater(t, rates["JPY"], 1.0)
}
