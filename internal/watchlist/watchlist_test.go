package watchlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/model"
)

type fakeStore struct {
	lists   []model.Watchlist
	count   int
	owned   bool
	deleted bool

	inserts     int
	deleteCalls int
}

func (f *fakeStore) Insert(_ context.Context, userID, name, description string) error {
	f.inserts++
	f.lists = append(f.lists, model.Watchlist{ID: int64(len(f.lists) + 1), UserID: userID, Name: name})
	f.count = len(f.lists)
	return nil
}

func (f *fakeStore) ListByUser(context.Context, string) ([]model.Watchlist, error) {
	return f.lists, nil
}

func (f *fakeStore) CountByUser(context.Context, string) (int, error) {
	return f.count, nil
}

func (f *fakeStore) DeleteOwned(context.Context, string, int64) (bool, error) {
	f.deleteCalls++
	return f.deleted, nil
}

func (f *fakeStore) IsOwned(context.Context, string, int64) (bool, error) {
	return f.owned, nil
}

var testUser = model.User{ID: "u1"}

func TestDeleteLastWatchlistRejected(t *testing.T) {
	store := &fakeStore{count: 1, deleted: true}
	svc := NewService(store, logger.Nop{})

	err := svc.Delete(context.Background(), testUser, 1)

	require.ErrorIs(t, err, ErrLastWatchlist)
	// rejected before any row is touched
	assert.Zero(t, store.deleteCalls)
}

func TestDeleteUnownedWatchlistNotFound(t *testing.T) {
	store := &fakeStore{count: 2, deleted: false}
	svc := NewService(store, logger.Nop{})

	err := svc.Delete(context.Background(), testUser, 99)

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, store.deleteCalls)
}

func TestDeleteSecondWatchlist(t *testing.T) {
	store := &fakeStore{count: 2, deleted: true}
	svc := NewService(store, logger.Nop{})

	require.NoError(t, svc.Delete(context.Background(), testUser, 2))
}

func TestCreateRequiresName(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, logger.Nop{})

	err := svc.Create(context.Background(), testUser, "", "desc")

	require.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, store.inserts)
}

func TestEnsureDefaultCreatesWhenEmpty(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, logger.Nop{})

	lists, err := svc.EnsureDefault(context.Background(), testUser)
	require.NoError(t, err)

	require.Len(t, lists, 1)
	assert.Equal(t, "My Portfolio", lists[0].Name)
	assert.Equal(t, 1, store.inserts)
}

func TestEnsureDefaultKeepsExisting(t *testing.T) {
	store := &fakeStore{lists: []model.Watchlist{{ID: 1, UserID: "u1", Name: "Growth"}}, count: 1}
	svc := NewService(store, logger.Nop{})

	lists, err := svc.EnsureDefault(context.Background(), testUser)
	require.NoError(t, err)

	require.Len(t, lists, 1)
	assert.Zero(t, store.inserts)
}
