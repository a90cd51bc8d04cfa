package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finview/portfolio-tracker/internal/model"
)

const (
	_queryUserByEmail = "SELECT id, email, name, password_hash, preferred_currency, created_at, updated_at FROM users WHERE email = $1"

	_insertUser = `INSERT INTO users (
						id, email, name, password_hash, preferred_currency
					) VALUES ($1,$2,$3,$4,$5)`

	_updateUserSettings = "UPDATE users SET name = $1, preferred_currency = $2, updated_at = NOW() WHERE id = $3"

	_insertSession = "INSERT INTO sessions (id, user_id, expires_at) VALUES ($1,$2,$3)"

	_deleteSession = "DELETE FROM sessions WHERE id = $1"

	_queryUserBySession = `SELECT u.id, u.email, u.name, u.password_hash, u.preferred_currency, u.created_at, u.updated_at
							FROM users u
							INNER JOIN sessions s ON s.user_id = u.id
							WHERE s.id = $1 AND s.expires_at > NOW()`

	_insertDefaultWatchlist = "INSERT INTO watchlists (user_id, name, description) VALUES ($1,$2,$3)"
)

func (s *Service) userByEmail(ctx context.Context, email string) (model.User, bool, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, _queryUserByEmail, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, false, nil
		}
		return u, false, fmt.Errorf("%w: can't query user by email", err)
	}
	return u, true, nil
}

func (s *Service) userBySession(ctx context.Context, sessionID string) (model.User, bool, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, _queryUserBySession, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, false, nil
		}
		return u, false, fmt.Errorf("%w: can't query user by session", err)
	}
	return u, true, nil
}
