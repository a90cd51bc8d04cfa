package watchlist

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/finview/portfolio-tracker/internal/model"
)

const (
	_insertWatchlist = "INSERT INTO watchlists (user_id, name, description) VALUES ($1,$2,$3)"

	_queryWatchlists = "SELECT id, user_id, name, description, created_at, updated_at FROM watchlists WHERE user_id = $1 ORDER BY created_at ASC"

	_countWatchlists = "SELECT COUNT(*) FROM watchlists WHERE user_id = $1"

	_deleteWatchlist = "DELETE FROM watchlists WHERE id = $1 AND user_id = $2"

	_queryOwnership = "SELECT EXISTS (SELECT 1 FROM watchlists WHERE id = $1 AND user_id = $2)"
)

type dbStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &dbStore{db: db}
}

func (s *dbStore) Insert(ctx context.Context, userID, name, description string) error {
	var dbDesc sql.NullString
	if description != "" {
		dbDesc = sql.NullString{String: description, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, _insertWatchlist, userID, name, dbDesc); err != nil {
		return fmt.Errorf("%w: can't insert watchlist", err)
	}
	return nil
}

func (s *dbStore) ListByUser(ctx context.Context, userID string) ([]model.Watchlist, error) {
	var lists []model.Watchlist
	if err := s.db.SelectContext(ctx, &lists, _queryWatchlists, userID); err != nil {
		return nil, fmt.Errorf("%w: can't query watchlists", err)
	}
	return lists, nil
}

func (s *dbStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, _countWatchlists, userID); err != nil {
		return 0, fmt.Errorf("%w: can't count watchlists", err)
	}
	return count, nil
}

func (s *dbStore) DeleteOwned(ctx context.Context, userID string, watchlistID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, _deleteWatchlist, watchlistID, userID)
	if err != nil {
		return false, fmt.Errorf("%w: can't delete watchlist", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: can't check deleted rows", err)
	}
	return affected > 0, nil
}

func (s *dbStore) IsOwned(ctx context.Context, userID string, watchlistID int64) (bool, error) {
	var owned bool
	if err := s.db.GetContext(ctx, &owned, _queryOwnership, watchlistID, userID); err != nil {
		return false, err
	}
	return owned, nil
}
