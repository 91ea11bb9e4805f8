package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avolkov/cryptofolio/internal/middleware"
	"github.com/avolkov/cryptofolio/internal/models"
)

// RegistryService defines the asset registry operations required by the
// HTTP handlers.
type RegistryService interface {
	Mint(ctx context.Context, identity models.Identity, name string, price int64) (int64, error)
	Retire(ctx context.Context, identity models.Identity, name string) error
	Price(ctx context.Context, name string) (int64, error)
	ListNames(ctx context.Context) ([]string, error)
	ListPrices(ctx context.Context) ([]models.AssetPrice, error)
	Search(ctx context.Context, substring string) ([]string, error)
	MutatePrice(ctx context.Context, name, secret string) (int64, error)
}

// AssetHandler handles asset listing, minting, retiring and the internal
// price-mutation endpoint.
type AssetHandler struct {
	RegistryService RegistryService
}

// Create handles POST /api/root/addcrypto. The elevated-role check lives
// in the service.
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	assetID, err := h.RegistryService.Mint(r.Context(), identity, req.Name, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": assetID, "name": req.Name})
}

// Remove handles POST /api/root/removecrypto.
func (h *AssetHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	if err := h.RegistryService.Retire(r.Context(), identity, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retired"})
}

// Names handles POST /api/fetch/cryptonames.
func (h *AssetHandler) Names(w http.ResponseWriter, r *http.Request) {
	names, err := h.RegistryService.ListNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"names": names})
}

// Prices handles POST /api/fetch/cryptoprices.
func (h *AssetHandler) Prices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.RegistryService.ListPrices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.AssetPrice{"prices": prices})
}

// Search handles POST /api/fetch/cryptospecific.
func (h *AssetHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	names, err := h.RegistryService.Search(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"names": names})
}

// ChangePrice handles POST /api/internal/changeprice. It authenticates
// with the shared secret carried in the body, not a session cookie, so
// it sits outside the session middleware.
func (h *AssetHandler) ChangePrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Secret string `json:"secret_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	price, err := h.RegistryService.MutatePrice(r.Context(), req.Name, req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": req.Name, "price": price})
}
