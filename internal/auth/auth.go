package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/model"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no valid session")
	ErrMissingCredentials = errors.New("email and password are required")
)

const (
	_bcryptCost = 12

	_defaultWatchlistName = "My Portfolio"
	_defaultWatchlistDesc = "Main investment portfolio"
)

type Service struct {
	db     *sqlx.DB
	logger logger.Logger

	sessionTTL time.Duration
}

func NewService(db *sqlx.DB, sessionTTL time.Duration, logger logger.Logger) *Service {
	return &Service{
		db:         db,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// Register creates a user with a bcrypt-hashed password, their default
// watchlist and an open session in one transaction, so a failed step
// never leaves a half-registered account. Duplicate emails are rejected
// up front, and the unique constraint catches the race two concurrent
// registrations can slip through that pre-check.
func (s *Service) Register(ctx context.Context, email, password, name string) (model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, "", ErrMissingCredentials
	}

	if _, exists, err := s.userByEmail(ctx, email); err != nil {
		return model.User{}, "", err
	} else if exists {
		return model.User{}, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), _bcryptCost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("%w: can't hash password", err)
	}

	user := model.User{
		ID:                uuid.NewString(),
		Email:             email,
		PasswordHash:      string(hash),
		PreferredCurrency: "USD",
	}
	if name != "" {
		user.Name = sql.NullString{String: name, Valid: true}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.User{}, "", fmt.Errorf("%w: can't begin register tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, _insertUser,
		user.ID, user.Email, user.Name, user.PasswordHash, user.PreferredCurrency,
	); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, "", ErrEmailTaken
		}
		return model.User{}, "", fmt.Errorf("%w: can't insert user", err)
	}

	if _, err := tx.ExecContext(ctx, _insertDefaultWatchlist,
		user.ID, _defaultWatchlistName, _defaultWatchlistDesc,
	); err != nil {
		return model.User{}, "", fmt.Errorf("%w: can't create default watchlist", err)
	}

	sessionID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, _insertSession, sessionID, user.ID, time.Now().Add(s.sessionTTL)); err != nil {
		return model.User{}, "", fmt.Errorf("%w: can't insert session", err)
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, "", fmt.Errorf("%w: can't commit register tx", err)
	}

	return user, sessionID, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *Service) Login(ctx context.Context, email, password string) (model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, "", ErrMissingCredentials
	}

	user, exists, err := s.userByEmail(ctx, email)
	if err != nil {
		return model.User{}, "", err
	}
	if !exists {
		return model.User{}, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, "", ErrInvalidCredentials
	}

	sessionID, err := s.createSession(ctx, user.ID)
	if err != nil {
		return model.User{}, "", err
	}

	return user, sessionID, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, _deleteSession, sessionID); err != nil {
		return fmt.Errorf("%w: can't delete session", err)
	}
	return nil
}

// UserBySession resolves the session cookie into the acting user. Expired
// sessions count as absent.
func (s *Service) UserBySession(ctx context.Context, sessionID string) (model.User, error) {
	if sessionID == "" {
		return model.User{}, ErrNoSession
	}

	user, exists, err := s.userBySession(ctx, sessionID)
	if err != nil {
		return model.User{}, err
	}
	if !exists {
		return model.User{}, ErrNoSession
	}

	return user, nil
}

func (s *Service) UpdateSettings(ctx context.Context, userID, name, preferredCurrency string) error {
	if preferredCurrency == "" {
		preferredCurrency = "USD"
	}

	var dbName sql.NullString
	if name != "" {
		dbName = sql.NullString{String: name, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, _updateUserSettings, dbName, preferredCurrency, userID); err != nil {
		return fmt.Errorf("%w: can't update user settings", err)
	}
	return nil
}

func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *Service) createSession(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(s.sessionTTL)

	if _, err := s.db.ExecContext(ctx, _insertSession, sessionID, userID, expiresAt); err != nil {
		return "", fmt.Errorf("%w: can't insert session", err)
	}

	return sessionID, nil
}
