package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("%w: can't insert user", &pq.Error{Code: "23505"})))

	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain failure")))
	assert.False(t, isUniqueViolation(nil))
}

func TestRegisterRequiresCredentials(t *testing.T) {
	svc := &Service{}

	_, _, err := svc.Register(context.Background(), "", "secret", "")
	require.ErrorIs(t, err, ErrMissingCredentials)

	_, _, err = svc.Register(context.Background(), "a@b.c", "", "")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc := &Service{}

	_, _, err := svc.Login(context.Background(), "   ", "secret")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestUserBySessionEmptyID(t *testing.T) {
	svc := &Service{}

	_, err := svc.UserBySession(context.Background(), "")
	require.ErrorIs(t, err, ErrNoSession)
}
