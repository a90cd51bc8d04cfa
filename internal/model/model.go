package model

import (
	"database/sql"
	"time"
)

type User struct {
	ID                string         `db:"id"`
	Email             string         `db:"email"`
	Name              sql.NullString `db:"name"`
	PasswordHash      string         `db:"password_hash"`
	PreferredCurrency string         `db:"preferred_currency"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

type Watchlist struct {
	ID          int64          `db:"id"`
	UserID      string         `db:"user_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Investment is one position row: a single blended lot per (watchlist, symbol).
type Investment struct {
	ID                     int64          `db:"id"`
	WatchlistID            int64          `db:"watchlist_id"`
	Symbol                 string         `db:"symbol"`
	Name                   string         `db:"name"`
	Currency               string         `db:"currency"`
	Shares                 float64        `db:"shares"`
	CostPerShare           float64        `db:"cost_per_share"`
	ExchangeRateAtPurchase float64        `db:"exchange_rate_at_purchase"`
	TradeDate              time.Time      `db:"trade_date"`
	Notes                  sql.NullString `db:"notes"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Trade rows are append-only; nothing updates or deletes them.
type Trade struct {
	ID            int64         `db:"id"`
	UserID        string        `db:"user_id"`
	WatchlistID   sql.NullInt64 `db:"watchlist_id"`
	Symbol        string        `db:"symbol"`
	Name          string        `db:"name"`
	TradeType     TradeType     `db:"trade_type"`
	Shares        float64       `db:"shares"`
	PricePerShare float64       `db:"price_per_share"`
	Currency      string        `db:"currency"`
	ExchangeRate  float64       `db:"exchange_rate"`
	TotalValue    float64       `db:"total_value"`
	TradeDate     time.Time     `db:"trade_date"`
	CreatedAt     time.Time     `db:"created_at"`
}

type StockQuote struct {
	Symbol        string          `db:"symbol"`
	Name          string          `db:"name"`
	Price         float64         `db:"price"`
	PreviousClose float64         `db:"previous_close"`
	ChangeAmount  float64         `db:"change_amount"`
	ChangePercent float64         `db:"change_percent"`
	Currency      string          `db:"currency"`
	MarketCap     sql.NullFloat64 `db:"market_cap"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

type ExchangeRate struct {
	FromCurrency string    `db:"from_currency"`
	ToCurrency   string    `db:"to_currency"`
	Rate         float64   `db:"rate"`
	UpdatedAt    time.Time `db:"updated_at"`
}
