package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finview/portfolio-tracker/internal/auth"
	"github.com/finview/portfolio-tracker/internal/investment"
	"github.com/finview/portfolio-tracker/internal/ledger"
	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/watchlist"
)

func TestHandleDomainErrStatuses(t *testing.T) {
	h := &Handler{logger: logger.Nop{}}

	tests := []struct {
		err    error
		status int
	}{
		{auth.ErrMissingCredentials, http.StatusBadRequest},
		{ledger.ErrInsufficientShares, http.StatusBadRequest},
		{investment.ErrInvalidInput, http.StatusBadRequest},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrNoSession, http.StatusUnauthorized},
		{auth.ErrEmailTaken, http.StatusConflict},
		{watchlist.ErrLastWatchlist, http.StatusConflict},
		{investment.ErrNotFound, http.StatusNotFound},
		{investment.ErrSymbolNotFound, http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.handleDomainErr(rec, tt.err)
		assert.Equal(t, tt.status, rec.Code, "err %v", tt.err)
	}
}

func TestHandleDomainErrWrapsSentinels(t *testing.T) {
	h := &Handler{logger: logger.Nop{}}

	rec := httptest.NewRecorder()
	h.handleDomainErr(rec, fmt.Errorf("%w: have 3, want 5", ledger.ErrInsufficientShares))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enough shares")
}

func TestWriteErrorShape(t *testing.T) {
	h := &Handler{logger: logger.Nop{}}

	rec := httptest.NewRecorder()
	h.writeError(rec, http.StatusConflict, "email is already registered")

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"email is already registered"}`, rec.Body.String())
}

func TestWriteSuccessShape(t *testing.T) {
	h := &Handler{logger: logger.Nop{}}

	rec := httptest.NewRecorder()
	h.writeSuccess(rec)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestParseTradeDate(t *testing.T) {
	d := parseTradeDate("2026-08-15")
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), d)

	d = parseTradeDate("2026-08-15T10:30:00Z")
	assert.Equal(t, 10, d.Hour())

	assert.True(t, parseTradeDate("").IsZero())
	assert.True(t, parseTradeDate("not a date").IsZero())
}
