package service

import (
	"context"
	"crypto/subtle"
	"math/rand/v2"

	"github.com/avolkov/cryptofolio/internal/models"
)

// AssetRepository defines the persistence operations needed by the
// registry.
type AssetRepository interface {
	Create(ctx context.Context, name, creator string, price int64) (int64, error)
	Delete(ctx context.Context, name string) error
	GetPrice(ctx context.Context, name string) (int64, error)
	AdjustPrice(ctx context.Context, name string, delta int64) (int64, error)
	ListNames(ctx context.Context) ([]string, error)
	ListPrices(ctx context.Context) ([]models.AssetPrice, error)
	SearchNames(ctx context.Context, substring string) ([]string, error)
}

// RegistryService is the authoritative list of tradeable assets. All
// price writes go through MutatePrice; nothing else touches the price
// column.
type RegistryService struct {
	repo AssetRepository
	// secret authenticates internal price-mutation calls.
	secret string
}

// NewRegistryService constructs a RegistryService with the given
// repository and price-mutation shared secret.
func NewRegistryService(repo AssetRepository, secret string) *RegistryService {
	return &RegistryService{repo: repo, secret: secret}
}

// Mint creates a new asset. Requires the elevated role and a
// non-negative initial price.
func (s *RegistryService) Mint(ctx context.Context, identity models.Identity, name string, price int64) (int64, error) {
	if !identity.Role.Satisfies(models.RoleElevated) {
		return 0, models.ErrInsufficientRole
	}
	if price < 0 {
		return 0, models.ErrInvalidAmount
	}
	return s.repo.Create(ctx, name, identity.Email, price)
}

// Retire deletes an asset. Requires the elevated role. Portfolios
// already holding lots of the asset keep them; selling against a retired
// asset fails with models.ErrUnknownAsset at price lookup.
func (s *RegistryService) Retire(ctx context.Context, identity models.Identity, name string) error {
	if !identity.Role.Satisfies(models.RoleElevated) {
		return models.ErrInsufficientRole
	}
	return s.repo.Delete(ctx, name)
}

// Price returns the current price of the named asset.
func (s *RegistryService) Price(ctx context.Context, name string) (int64, error) {
	return s.repo.GetPrice(ctx, name)
}

// ListNames returns all asset names. Used by the scheduler for
// discovery.
func (s *RegistryService) ListNames(ctx context.Context) ([]string, error) {
	return s.repo.ListNames(ctx)
}

// ListPrices returns every asset's name and current price.
func (s *RegistryService) ListPrices(ctx context.Context) ([]models.AssetPrice, error) {
	return s.repo.ListPrices(ctx)
}

// Search returns asset names containing the substring.
func (s *RegistryService) Search(ctx context.Context, substring string) ([]string, error) {
	return s.repo.SearchNames(ctx, substring)
}

// MutatePrice applies one step of the bounded random walk to the named
// asset. The caller authenticates with the shared secret, not a session
// token, because this path is driven by the scheduler. Returns the new
// price.
func (s *RegistryService) MutatePrice(ctx context.Context, name, secret string) (int64, error) {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return 0, models.ErrInvalidSecret
	}

	return s.repo.AdjustPrice(ctx, name, priceStep())
}

// priceStep draws one random-walk delta: magnitude in [1,10], either
// sign. The zero floor is applied where the price is stored, in the same
// write, so concurrent steps never compound below zero.
func priceStep() int64 {
	magnitude := rand.Int64N(10) + 1
	if rand.IntN(2) == 0 {
		return -magnitude
	}
	return magnitude
}
