package investment

const (
	_queryWatchlistOwned = "SELECT EXISTS (SELECT 1 FROM watchlists WHERE id = $1 AND user_id = $2)"

	// Mutation paths lock the position row so concurrent buys/sells on the
	// same symbol serialize instead of losing updates.
	_queryPositionForUpdate = `SELECT i.id, i.watchlist_id, i.symbol, i.name, i.currency, i.shares, i.cost_per_share,
									i.exchange_rate_at_purchase, i.trade_date, i.notes, i.created_at, i.updated_at
								FROM investments i
								WHERE i.watchlist_id = $1 AND i.symbol = $2
								FOR UPDATE`

	_queryOwnedPositionForUpdate = `SELECT i.id, i.watchlist_id, i.symbol, i.name, i.currency, i.shares, i.cost_per_share,
										i.exchange_rate_at_purchase, i.trade_date, i.notes, i.created_at, i.updated_at
									FROM investments i
									INNER JOIN watchlists w ON w.id = i.watchlist_id
									WHERE i.id = $1 AND w.user_id = $2
									FOR UPDATE OF i`

	_queryOwnedPosition = `SELECT i.id, i.watchlist_id, i.symbol, i.name, i.currency, i.shares, i.cost_per_share,
								i.exchange_rate_at_purchase, i.trade_date, i.notes, i.created_at, i.updated_at
							FROM investments i
							INNER JOIN watchlists w ON w.id = i.watchlist_id
							WHERE i.id = $1 AND w.user_id = $2`

	_insertPosition = `INSERT INTO investments (
							watchlist_id, symbol, name, currency, shares, cost_per_share,
							exchange_rate_at_purchase, trade_date, notes
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_updateMergedPosition = `UPDATE investments
								SET shares = $1,
									cost_per_share = $2,
									exchange_rate_at_purchase = $3,
									updated_at = NOW()
								WHERE id = $4`

	_updatePosition = `UPDATE investments
							SET shares = $1,
								cost_per_share = $2,
								exchange_rate_at_purchase = $3,
								trade_date = $4,
								updated_at = NOW()
							WHERE id = $5`

	_updatePositionShares = "UPDATE investments SET shares = $1, updated_at = NOW() WHERE id = $2"

	_deletePosition = "DELETE FROM investments WHERE id = $1"

	_insertTrade = `INSERT INTO trades (
						user_id, watchlist_id, symbol, name, trade_type, shares,
						price_per_share, currency, exchange_rate, total_value, trade_date
					) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_queryPositions = `SELECT i.id, i.watchlist_id, i.symbol, i.name, i.currency, i.shares, i.cost_per_share,
							i.exchange_rate_at_purchase, i.trade_date, i.notes, i.created_at, i.updated_at
						FROM investments i
						WHERE i.watchlist_id = $1
						ORDER BY i.created_at ASC`

	_querySymbols = `SELECT DISTINCT i.symbol FROM investments i
						INNER JOIN watchlists w ON w.id = i.watchlist_id
						WHERE i.watchlist_id = $1 AND w.user_id = $2`

	_queryRecentTrades = `SELECT id, user_id, watchlist_id, symbol, name, trade_type, shares,
								price_per_share, currency, exchange_rate, total_value, trade_date, created_at
							FROM trades
							WHERE user_id = $1
							ORDER BY trade_date DESC
							LIMIT $2`
)
