package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avolkov/cryptofolio/internal/middleware"
	"github.com/avolkov/cryptofolio/internal/models"
)

// LedgerService defines the portfolio operations required by the HTTP
// handlers.
type LedgerService interface {
	Open(ctx context.Context, owner, name, password string) (int64, error)
	Close(ctx context.Context, name, password string) error
	Buy(ctx context.Context, name, password, asset string, amount int64) (*models.Receipt, error)
	Sell(ctx context.Context, name, password, asset string, amount int64) (*models.Receipt, error)
	Holdings(ctx context.Context, name, password string) (*models.Holdings, error)
}

// PortfolioHandler handles portfolio lifecycle and trading requests. All
// routes sit behind the session middleware.
type PortfolioHandler struct {
	LedgerService LedgerService
}

type portfolioRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tradeRequest struct {
	Portfolio string `json:"portfolio"`
	Password  string `json:"password"`
	Asset     string `json:"asset"`
	Amount    int64  `json:"amount"`
}

// Add handles POST /api/addportfolio.
func (h *PortfolioHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	portfolioID, err := h.LedgerService.Open(r.Context(), identity.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": portfolioID, "name": req.Name})
}

// Delete handles POST /api/deleteportfolio.
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.LedgerService.Close(r.Context(), req.Name, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Holdings handles POST /api/portfolio/holdings.
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	holdings, err := h.LedgerService.Holdings(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holdings)
}

// Buy handles POST /api/buy.
func (h *PortfolioHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.LedgerService.Buy)
}

// Sell handles POST /api/sell.
func (h *PortfolioHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.LedgerService.Sell)
}

func (h *PortfolioHandler) trade(
	w http.ResponseWriter,
	r *http.Request,
	execute func(ctx context.Context, name, password, asset string, amount int64) (*models.Receipt, error),
) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Portfolio == "" || req.Asset == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	receipt, err := execute(r.Context(), req.Portfolio, req.Password, req.Asset, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
