package service

import (
	"context"
	"crypto/subtle"
	"math"

	"github.com/avolkov/cryptofolio/internal/models"
	"github.com/avolkov/cryptofolio/pkg/id"
)

// startingBalance is the cash grant every new portfolio opens with.
const startingBalance = 1000

// PortfolioRepository defines the persistence operations needed by the
// ledger. Buy and Sell are atomic: the balance and the lot set change
// together or not at all.
type PortfolioRepository interface {
	Create(ctx context.Context, owner, name, password string, money int64) (int64, error)
	GetByName(ctx context.Context, name string) (*models.Portfolio, error)
	Delete(ctx context.Context, portfolioID int64) error
	Lots(ctx context.Context, portfolioID int64) ([]models.Lot, error)
	Buy(ctx context.Context, portfolioID int64, cost int64, asset string, amount, unitPrice int64) (int64, error)
	Sell(ctx context.Context, portfolioID int64, asset string, amount, proceeds int64) (int64, error)
}

// PriceSource yields current market prices. Satisfied by the registry.
type PriceSource interface {
	Price(ctx context.Context, name string) (int64, error)
}

// LedgerService keeps each portfolio's cash balance and lot holdings
// mutually consistent across buys and sells.
type LedgerService struct {
	repo   PortfolioRepository
	prices PriceSource
}

// NewLedgerService constructs a LedgerService over the given repository
// and price source.
func NewLedgerService(repo PortfolioRepository, prices PriceSource) *LedgerService {
	return &LedgerService{repo: repo, prices: prices}
}

// Open creates a portfolio for the owner with the starting grant and an
// empty lot set. The portfolio password is its own secret and is not
// required to match the owner's account password.
func (s *LedgerService) Open(ctx context.Context, owner, name, password string) (int64, error) {
	if len(password) < minPasswordLen {
		return 0, models.ErrPasswordTooShort
	}
	return s.repo.Create(ctx, owner, name, password, startingBalance)
}

// Close deletes a portfolio and its lots after verifying the portfolio
// password. On mismatch nothing is mutated.
func (s *LedgerService) Close(ctx context.Context, name, password string) error {
	p, err := s.verify(ctx, name, password)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

// Buy purchases amount units of the asset at the current market price,
// debiting the balance and appending one lot atomically.
func (s *LedgerService) Buy(ctx context.Context, name, password, asset string, amount int64) (*models.Receipt, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	p, err := s.verify(ctx, name, password)
	if err != nil {
		return nil, err
	}

	price, err := s.prices.Price(ctx, asset)
	if err != nil {
		return nil, err
	}

	cost, err := tradeValue(price, amount)
	if err != nil {
		return nil, err
	}
	balance, err := s.repo.Buy(ctx, p.ID, cost, asset, amount, price)
	if err != nil {
		return nil, err
	}

	return &models.Receipt{
		ID:        id.New(),
		Side:      models.SideBuy,
		Portfolio: name,
		Asset:     asset,
		Amount:    amount,
		UnitPrice: price,
		Total:     cost,
		Balance:   balance,
	}, nil
}

// Sell disposes of amount units of the asset FIFO over the portfolio's
// lots, crediting proceeds at the current market price (not the lots'
// acquisition prices). Short holdings fail atomically with no partial
// depletion.
func (s *LedgerService) Sell(ctx context.Context, name, password, asset string, amount int64) (*models.Receipt, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	p, err := s.verify(ctx, name, password)
	if err != nil {
		return nil, err
	}

	price, err := s.prices.Price(ctx, asset)
	if err != nil {
		return nil, err
	}

	proceeds, err := tradeValue(price, amount)
	if err != nil {
		return nil, err
	}
	balance, err := s.repo.Sell(ctx, p.ID, asset, amount, proceeds)
	if err != nil {
		return nil, err
	}

	return &models.Receipt{
		ID:        id.New(),
		Side:      models.SideSell,
		Portfolio: name,
		Asset:     asset,
		Amount:    amount,
		UnitPrice: price,
		Total:     proceeds,
		Balance:   balance,
	}, nil
}

// Holdings returns the portfolio's balance and live lots after password
// verification.
func (s *LedgerService) Holdings(ctx context.Context, name, password string) (*models.Holdings, error) {
	p, err := s.verify(ctx, name, password)
	if err != nil {
		return nil, err
	}
	lots, err := s.repo.Lots(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &models.Holdings{Portfolio: name, Balance: p.Money, Lots: lots}, nil
}

// tradeValue computes price * amount, rejecting amounts large enough to
// wrap int64. A wrapped (negative) cost would pass the balance check and
// mint money.
func tradeValue(price, amount int64) (int64, error) {
	if price > 0 && amount > math.MaxInt64/price {
		return 0, models.ErrInvalidAmount
	}
	return price * amount, nil
}

// verify loads the portfolio and checks its password.
func (s *LedgerService) verify(ctx context.Context, name, password string) (*models.Portfolio, error) {
	p, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(p.Password), []byte(password)) != 1 {
		return nil, models.ErrInvalidPassword
	}
	return p, nil
}
