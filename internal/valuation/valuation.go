package valuation

// Position is the slice of an investment row the valuation needs.
type Position struct {
	Shares                 float64
	CostPerShare           float64
	ExchangeRateAtPurchase float64
	Currency               string
}

// Line is one valued position, everything monetary in the base currency.
type Line struct {
	CurrentPrice        float64
	CurrentExchangeRate float64
	TotalCost           float64
	MarketValue         float64
	GainLoss            float64
	GainLossPercent     float64
	Weight              float64
}

// Summary aggregates a watchlist's lines.
type Summary struct {
	TotalMarketValue     float64
	TotalCost            float64
	TotalGainLoss        float64
	TotalGainLossPercent float64
}

// Evaluate derives market value, cost basis and gain/loss for one position.
//
// Cost basis is converted with the rate locked in at purchase time; market
// value with the current rate. That asymmetry is deliberate: it keeps the
// gain/loss figure meaningful when the currency itself has moved since the
// lot was bought.
//
// rates maps currency -> units of that currency per 1 base unit, so the
// base-per-unit display rate is its inverse. currentPrice <= 0 means no
// quote is available and the cost price stands in for it.
func Evaluate(p Position, currentPrice float64, rates map[string]float64, base string) Line {
	if currentPrice <= 0 {
		currentPrice = p.CostPerShare
	}

	rateFromBase := 1.0
	displayRate := 1.0
	if p.Currency != base {
		if r, ok := rates[p.Currency]; ok && r > 0 {
			rateFromBase = r
		}
		displayRate = 1 / rateFromBase
	}

	totalCost := p.Shares * p.CostPerShare
	marketValue := p.Shares * currentPrice
	if p.Currency != base {
		totalCost *= p.ExchangeRateAtPurchase
		marketValue *= displayRate
	}

	gainLoss := marketValue - totalCost
	gainLossPercent := 0.0
	if totalCost > 0 {
		gainLossPercent = gainLoss / totalCost * 100
	}

	return Line{
		CurrentPrice:        currentPrice,
		CurrentExchangeRate: displayRate,
		TotalCost:           totalCost,
		MarketValue:         marketValue,
		GainLoss:            gainLoss,
		GainLossPercent:     gainLossPercent,
	}
}

// Summarize totals the lines and fills in each line's portfolio weight.
func Summarize(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		s.TotalMarketValue += l.MarketValue
		s.TotalCost += l.TotalCost
	}

	for i := range lines {
		if s.TotalMarketValue > 0 {
			lines[i].Weight = lines[i].MarketValue / s.TotalMarketValue * 100
		}
	}

	s.TotalGainLoss = s.TotalMarketValue - s.TotalCost
	if s.TotalCost > 0 {
		s.TotalGainLossPercent = s.TotalGainLoss / s.TotalCost * 100
	}

	return s
}
