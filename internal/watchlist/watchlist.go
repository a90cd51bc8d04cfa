package watchlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/model"
)

var (
	ErrLastWatchlist = errors.New("can't delete the last watchlist")
	ErrNameRequired  = errors.New("watchlist name is required")
	ErrNotFound      = errors.New("watchlist not found")
)

// Store is the persistence surface for watchlists.
type Store interface {
	Insert(ctx context.Context, userID, name, description string) error
	ListByUser(ctx context.Context, userID string) ([]model.Watchlist, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOwned(ctx context.Context, userID string, watchlistID int64) (bool, error)
	IsOwned(ctx context.Context, userID string, watchlistID int64) (bool, error)
}

type Service struct {
	store  Store
	logger logger.Logger
}

func NewService(store Store, logger logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Create(ctx context.Context, user model.User, name, description string) error {
	if name == "" {
		return ErrNameRequired
	}
	return s.store.Insert(ctx, user.ID, name, description)
}

func (s *Service) List(ctx context.Context, user model.User) ([]model.Watchlist, error) {
	return s.store.ListByUser(ctx, user.ID)
}

// Delete removes a watchlist the user owns. The last remaining watchlist
// can't be deleted so every account always has somewhere to put trades.
func (s *Service) Delete(ctx context.Context, user model.User, watchlistID int64) error {
	count, err := s.store.CountByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastWatchlist
	}

	deleted, err := s.store.DeleteOwned(ctx, user.ID, watchlistID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Owns reports whether the watchlist belongs to the user.
func (s *Service) Owns(ctx context.Context, user model.User, watchlistID int64) (bool, error) {
	owned, err := s.store.IsOwned(ctx, user.ID, watchlistID)
	if err != nil {
		return false, fmt.Errorf("%w: can't verify watchlist ownership", err)
	}
	return owned, nil
}

// EnsureDefault creates the default watchlist when the user somehow has
// none, returning the list either way.
func (s *Service) EnsureDefault(ctx context.Context, user model.User) ([]model.Watchlist, error) {
	lists, err := s.store.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(lists) > 0 {
		return lists, nil
	}

	if err := s.store.Insert(ctx, user.ID, "My Portfolio", "Main investment portfolio"); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, user.ID)
}
