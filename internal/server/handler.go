package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/finview/portfolio-tracker/internal/auth"
	"github.com/finview/portfolio-tracker/internal/investment"
	"github.com/finview/portfolio-tracker/internal/ledger"
	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/market"
	"github.com/finview/portfolio-tracker/internal/model"
	"github.com/finview/portfolio-tracker/internal/portfolio"
	"github.com/finview/portfolio-tracker/internal/watchlist"
)

type Handler struct {
	auth        *auth.Service
	watchlists  *watchlist.Service
	investments *investment.Service
	portfolio   *portfolio.Service
	market      *market.Service
	logger      logger.Logger

	baseCurrency string
}

func NewHandler(
	authSvc *auth.Service,
	watchlists *watchlist.Service,
	investments *investment.Service,
	portfolioSvc *portfolio.Service,
	marketSvc *market.Service,
	baseCurrency string,
	logger logger.Logger,
) *Handler {
	return &Handler{
		auth:         authSvc,
		watchlists:   watchlists,
		investments:  investments,
		portfolio:    portfolioSvc,
		market:       marketSvc,
		logger:       logger,
		baseCurrency: baseCurrency,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", h.register)
	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("POST /api/logout", h.logout)
	mux.HandleFunc("PUT /api/user/settings", h.withUser(h.updateSettings))

	mux.HandleFunc("GET /api/watchlists", h.withUser(h.listWatchlists))
	mux.HandleFunc("POST /api/watchlists", h.withUser(h.createWatchlist))
	mux.HandleFunc("DELETE /api/watchlists/{id}", h.withUser(h.deleteWatchlist))
	mux.HandleFunc("GET /api/watchlists/{id}/dashboard", h.withUser(h.dashboard))
	mux.HandleFunc("POST /api/watchlists/{id}/refresh", h.withUser(h.refreshPrices))

	mux.HandleFunc("POST /api/investments", h.withUser(h.addInvestment))
	mux.HandleFunc("PUT /api/investments/{id}", h.withUser(h.updateInvestment))
	mux.HandleFunc("DELETE /api/investments/{id}", h.withUser(h.deleteInvestment))
	mux.HandleFunc("POST /api/investments/{id}/sell", h.withUser(h.recordSale))

	mux.HandleFunc("GET /api/trades", h.withUser(h.listTrades))

	return mux
}

// handleDomainErr maps domain errors onto statuses; anything unexpected
// is logged and hidden behind a 500.
func (h *Handler) handleDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, investment.ErrInvalidInput),
		errors.Is(err, watchlist.ErrNameRequired),
		errors.Is(err, ledger.ErrZeroShares),
		errors.Is(err, ledger.ErrInsufficientShares):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoSession):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, watchlist.ErrLastWatchlist):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, investment.ErrNotFound),
		errors.Is(err, investment.ErrNotOwned),
		errors.Is(err, investment.ErrSymbolNotFound),
		errors.Is(err, watchlist.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorf("%s: unhandled domain error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	_, sessionID, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}

	h.setSessionCookie(w, sessionID, h.auth.SessionTTL())
	h.writeSuccess(w)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	_, sessionID, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}

	h.setSessionCookie(w, sessionID, h.auth.SessionTTL())
	h.writeSuccess(w)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(_sessionCookie); err == nil {
		if err := h.auth.Logout(r.Context(), c.Value); err != nil {
			h.logger.Errorf("%s: can't delete session", err)
		}
	}
	h.clearSessionCookie(w)
	h.writeSuccess(w)
}

type settingsRequest struct {
	Name              string `json:"name"`
	PreferredCurrency string `json:"preferredCurrency"`
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request, user model.User) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	if err := h.auth.UpdateSettings(r.Context(), user.ID, req.Name, req.PreferredCurrency); err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeSuccess(w)
}

type watchlistResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) listWatchlists(w http.ResponseWriter, r *http.Request, user model.User) {
	lists, err := h.watchlists.EnsureDefault(r.Context(), user)
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}

	out := make([]watchlistResponse, len(lists))
	for i, l := range lists {
		out[i] = watchlistResponse{ID: l.ID, Name: l.Name, Description: l.Description.String}
	}
	h.writeJSON(w, http.StatusOK, out)
}

type createWatchlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) createWatchlist(w http.ResponseWriter, r *http.Request, user model.User) {
	var req createWatchlistRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	if err := h.watchlists.Create(r.Context(), user, req.Name, req.Description); err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeSuccess(w)
}

func (h *Handler) deleteWatchlist(w http.ResponseWriter, r *http.Request, user model.User) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad watchlist id")
		return
	}

	if err := h.watchlists.Delete(r.Context(), user, id); err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeSuccess(w)
}

type tradeResponse struct {
	ID            int64     `json:"id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	TradeType     string    `json:"tradeType"`
	Shares        float64   `json:"shares"`
	PricePerShare float64   `json:"pricePerShare"`
	Currency      string    `json:"currency"`
	ExchangeRate  float64   `json:"exchangeRate"`
	TotalValue    float64   `json:"totalValue"`
	TradeDate     time.Time `json:"tradeDate"`
}

func tradesToResponse(trades []model.Trade) []tradeResponse {
	out := make([]tradeResponse, len(trades))
	for i, t := range trades {
		out[i] = tradeResponse{
			ID:            t.ID,
			Symbol:        t.Symbol,
			Name:          t.Name,
			TradeType:     string(t.TradeType),
			Shares:        t.Shares,
			PricePerShare: t.PricePerShare,
			Currency:      t.Currency,
			ExchangeRate:  t.ExchangeRate,
			TotalValue:    t.TotalValue,
			TradeDate:     t.TradeDate,
		}
	}
	return out
}

type dashboardResponse struct {
	Summary     portfolio.Summary `json:"summary"`
	Investments []portfolio.Line  `json:"investments"`
	Trades      []tradeResponse   `json:"trades"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request, user model.User) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad watchlist id")
		return
	}

	owned, err := h.watchlists.Owns(r.Context(), user, id)
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}
	if !owned {
		h.handleDomainErr(w, watchlist.ErrNotFound)
		return
	}

	overview, err := h.portfolio.Overview(r.Context(), user, id)
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, dashboardResponse{
		Summary:     overview.Summary,
		Investments: overview.Lines,
		Trades:      tradesToResponse(overview.Trades),
	})
}

type refreshResponse struct {
	Success   bool      `json:"success"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// refreshPrices re-fetches every symbol in the watchlist. Upstream
// failures are absorbed; the caller always gets a success with a
// timestamp, matching the serve-stale-over-fail policy.
func (h *Handler) refreshPrices(w http.ResponseWriter, r *http.Request, user model.User) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad watchlist id")
		return
	}

	symbols, err := h.investments.Symbols(r.Context(), user, id)
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}

	h.market.RefreshSymbols(r.Context(), symbols, h.baseCurrency)
	h.writeJSON(w, http.StatusOK, refreshResponse{Success: true, UpdatedAt: time.Now()})
}

type addInvestmentRequest struct {
	WatchlistID  int64   `json:"watchlistId"`
	Symbol       string  `json:"symbol"`
	Shares       float64 `json:"shares"`
	CostPerShare float64 `json:"costPerShare"`
	ExchangeRate float64 `json:"exchangeRate"`
	TradeDate    string  `json:"tradeDate"`
	Notes        string  `json:"notes"`
}

func parseTradeDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d
	}
	return time.Time{}
}

func (h *Handler) addInvestment(w http.ResponseWriter, r *http.Request, user model.User) {
	var req addInvestmentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	err := h.investments.Buy(r.Context(), user, investment.BuyParams{
		WatchlistID:  req.WatchlistID,
		Symbol:       req.Symbol,
		Shares:       req.Shares,
		CostPerShare: req.CostPerShare,
		ExchangeRate: req.ExchangeRate,
		TradeDate:    parseTradeDate(req.TradeDate),
		Notes:        req.Notes,
	})
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeSuccess(w)
}

type updateInvestmentRequest struct {
	Shares       float64 `json:"shares"`
	CostPerShare float64 `json:"costPerShare"`
	ExchangeRate float64 `json:"exchangeRate"`
	TradeDate    string  `json:"tradeDate"`
}

func (h *Handler) updateInvestment(w http.ResponseWriter, r *http.Request, user model.User) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad investment id")
		return
	}

	var req updateInvestmentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	err = h.investments.Update(r.Context(), user, investment.UpdateParams{
		InvestmentID: id,
		Shares:       req.Shares,
		CostPerShare: req.CostPerShare,
		ExchangeRate: req.ExchangeRate,
		TradeDate:    parseTradeDate(req.TradeDate),
	})
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeSuccess(w)
}

func (h *Handler) deleteInvestment(w http.ResponseWriter, r *http.Request, user model.User) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad investment id")
		return
	}

	if err := h.investments.Delete(r.Context(), user, id); err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeSuccess(w)
}

type sellRequest struct {
	Shares        float64 `json:"shares"`
	PricePerShare float64 `json:"pricePerShare"`
	ExchangeRate  float64 `json:"exchangeRate"`
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request, user model.User) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad investment id")
		return
	}

	var req sellRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	err = h.investments.RecordSale(r.Context(), user, investment.SellParams{
		InvestmentID:  id,
		Shares:        req.Shares,
		PricePerShare: req.PricePerShare,
		ExchangeRate:  req.ExchangeRate,
	})
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeSuccess(w)
}

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request, user model.User) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	trades, err := h.investments.RecentTrades(r.Context(), user, limit)
	if err != nil {
		h.handleDomainErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tradesToResponse(trades))
}
