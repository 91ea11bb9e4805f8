package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avolkov/cryptofolio/internal/middleware"
	"github.com/avolkov/cryptofolio/internal/models"
)

// fakeLedgerService records the owner passed to Open and returns canned
// results for the rest.
type fakeLedgerService struct {
	openedOwner string
	openID      int64
	openErr     error
	closeErr    error
	receipt     *models.Receipt
	tradeErr    error
	holdings    *models.Holdings
	holdingsErr error
}

func (f *fakeLedgerService) Open(ctx context.Context, owner, name, password string) (int64, error) {
	f.openedOwner = owner
	return f.openID, f.openErr
}

func (f *fakeLedgerService) Close(ctx context.Context, name, password string) error {
	return f.closeErr
}

func (f *fakeLedgerService) Buy(ctx context.Context, name, password, asset string, amount int64) (*models.Receipt, error) {
	return f.receipt, f.tradeErr
}

func (f *fakeLedgerService) Sell(ctx context.Context, name, password, asset string, amount int64) (*models.Receipt, error) {
	return f.receipt, f.tradeErr
}

func (f *fakeLedgerService) Holdings(ctx context.Context, name, password string) (*models.Holdings, error) {
	return f.holdings, f.holdingsErr
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	identity := models.Identity{Email: "a@b.com", Role: models.RoleStandard}
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func TestPortfolioHandler_Add(t *testing.T) {
	service := &fakeLedgerService{openID: 7}
	h := &PortfolioHandler{LedgerService: service}

	rec := httptest.NewRecorder()
	h.Add(rec, authedRequest("POST", "/api/addportfolio", `{"name":"mine","password":"longenough"}`))
	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", res.StatusCode)
	}
	if service.openedOwner != "a@b.com" {
		t.Errorf("owner = %q, want session email", service.openedOwner)
	}

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["name"] != "mine" {
		t.Errorf("name = %v, want mine", body["name"])
	}
}

func TestPortfolioHandler_Add_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		serviceErr   error
		expectedCode int
	}{
		{"missing name", `{"password":"longenough"}`, nil, http.StatusBadRequest},
		{"short password", `{"name":"mine","password":"short"}`, models.ErrPasswordTooShort, http.StatusBadRequest},
		{"duplicate name", `{"name":"mine","password":"longenough"}`, models.ErrNameTaken, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &PortfolioHandler{LedgerService: &fakeLedgerService{openErr: tt.serviceErr}}
			rec := httptest.NewRecorder()
			h.Add(rec, authedRequest("POST", "/api/addportfolio", tt.body))
			if rec.Code != tt.expectedCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedCode)
			}
		})
	}
}

func TestPortfolioHandler_Delete(t *testing.T) {
	tests := []struct {
		name         string
		serviceErr   error
		expectedCode int
	}{
		{"success", nil, http.StatusOK},
		{"wrong password", models.ErrInvalidPassword, http.StatusBadRequest},
		{"unknown portfolio", models.ErrUnknownPortfolio, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &PortfolioHandler{LedgerService: &fakeLedgerService{closeErr: tt.serviceErr}}
			rec := httptest.NewRecorder()
			h.Delete(rec, authedRequest("POST", "/api/deleteportfolio", `{"name":"mine","password":"longenough"}`))
			if rec.Code != tt.expectedCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedCode)
			}
		})
	}
}

func TestPortfolioHandler_Buy(t *testing.T) {
	receipt := &models.Receipt{
		ID:        "01J0000000000000000000TEST",
		Side:      models.SideBuy,
		Portfolio: "mine",
		Asset:     "Nova",
		Amount:    5,
		UnitPrice: 100,
		Total:     500,
		Balance:   500,
	}
	h := &PortfolioHandler{LedgerService: &fakeLedgerService{receipt: receipt}}

	rec := httptest.NewRecorder()
	h.Buy(rec, authedRequest("POST", "/api/buy", `{"portfolio":"mine","password":"longenough","asset":"Nova","amount":5}`))
	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var got models.Receipt
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Total != 500 || got.Balance != 500 {
		t.Errorf("receipt = %+v, want total 500 balance 500", got)
	}
}

func TestPortfolioHandler_Trade_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		serviceErr   error
		expectedCode int
	}{
		{"missing asset", `{"portfolio":"mine","password":"longenough","amount":5}`, nil, http.StatusBadRequest},
		{"invalid amount", `{"portfolio":"mine","password":"longenough","asset":"Nova","amount":0}`, models.ErrInvalidAmount, http.StatusBadRequest},
		{"insufficient funds", `{"portfolio":"mine","password":"longenough","asset":"Nova","amount":5}`, models.ErrInsufficientFunds, http.StatusBadRequest},
		{"insufficient holdings", `{"portfolio":"mine","password":"longenough","asset":"Nova","amount":5}`, models.ErrInsufficientHoldings, http.StatusBadRequest},
		{"unknown asset", `{"portfolio":"mine","password":"longenough","asset":"Gone","amount":5}`, models.ErrUnknownAsset, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &PortfolioHandler{LedgerService: &fakeLedgerService{tradeErr: tt.serviceErr}}
			rec := httptest.NewRecorder()
			h.Sell(rec, authedRequest("POST", "/api/sell", tt.body))
			if rec.Code != tt.expectedCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedCode)
			}
		})
	}
}

func TestPortfolioHandler_Holdings(t *testing.T) {
	holdings := &models.Holdings{
		Portfolio: "mine",
		Balance:   500,
		Lots: []models.Lot{
			{ID: 1, Asset: "Nova", Amount: 5, PriceBought: 100},
		},
	}
	h := &PortfolioHandler{LedgerService: &fakeLedgerService{holdings: holdings}}

	rec := httptest.NewRecorder()
	h.Holdings(rec, authedRequest("POST", "/api/portfolio/holdings", `{"name":"mine","password":"longenough"}`))
	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var got models.Holdings
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Balance != 500 || len(got.Lots) != 1 {
		t.Errorf("holdings = %+v, want balance 500 and one lot", got)
	}
}
