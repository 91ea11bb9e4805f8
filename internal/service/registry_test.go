package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/avolkov/cryptofolio/internal/models"
)

// memAssetRepo is an in-memory AssetRepository.
type memAssetRepo struct {
	mu     sync.Mutex
	nextID int64
	assets map[string]*models.Asset
	order  []string
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{assets: make(map[string]*models.Asset)}
}

func (m *memAssetRepo) Create(ctx context.Context, name, creator string, price int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[name]; ok {
		return 0, models.ErrNameTaken
	}
	m.nextID++
	m.assets[name] = &models.Asset{ID: m.nextID, Name: name, Creator: creator, Price: price}
	m.order = append(m.order, name)
	return m.nextID, nil
}

func (m *memAssetRepo) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[name]; !ok {
		return models.ErrUnknownAsset
	}
	delete(m.assets, name)
	return nil
}

func (m *memAssetRepo) GetPrice(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[name]
	if !ok {
		return 0, models.ErrUnknownAsset
	}
	return a.Price, nil
}

func (m *memAssetRepo) AdjustPrice(ctx context.Context, name string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[name]
	if !ok {
		return 0, models.ErrUnknownAsset
	}
	a.Price += delta
	if a.Price < 0 {
		a.Price = 0
	}
	return a.Price, nil
}

func (m *memAssetRepo) ListNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, name := range m.order {
		if _, ok := m.assets[name]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *memAssetRepo) ListPrices(ctx context.Context) ([]models.AssetPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var prices []models.AssetPrice
	for _, name := range m.order {
		if a, ok := m.assets[name]; ok {
			prices = append(prices, models.AssetPrice{Name: a.Name, Price: a.Price})
		}
	}
	return prices, nil
}

func (m *memAssetRepo) SearchNames(ctx context.Context, substring string) ([]string, error) {
	names, _ := m.ListNames(ctx)
	var out []string
	for _, n := range names {
		if contains(n, substring) {
			out = append(out, n)
		}
	}
	return out, nil
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

var (
	elevated = models.Identity{Email: "root@b.com", Role: models.RoleElevated}
	standard = models.Identity{Email: "user@b.com", Role: models.RoleStandard}
)

func TestMint_RequiresElevatedRole(t *testing.T) {
	svc := NewRegistryService(newMemAssetRepo(), "hush")

	if _, err := svc.Mint(context.Background(), standard, "Nova", 100); !errors.Is(err, models.ErrInsufficientRole) {
		t.Fatalf("error = %v, want ErrInsufficientRole", err)
	}
	if _, err := svc.Mint(context.Background(), elevated, "Nova", 100); err != nil {
		t.Fatalf("elevated mint failed: %v", err)
	}
}

func TestMint_RejectsNegativePrice(t *testing.T) {
	svc := NewRegistryService(newMemAssetRepo(), "hush")

	if _, err := svc.Mint(context.Background(), elevated, "Nova", -1); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}
}

func TestRetire(t *testing.T) {
	repo := newMemAssetRepo()
	svc := NewRegistryService(repo, "hush")

	if _, err := svc.Mint(context.Background(), elevated, "Nova", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := svc.Retire(context.Background(), standard, "Nova"); !errors.Is(err, models.ErrInsufficientRole) {
		t.Fatalf("standard retire: error = %v, want ErrInsufficientRole", err)
	}
	if err := svc.Retire(context.Background(), elevated, "Nova"); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := svc.Retire(context.Background(), elevated, "Nova"); !errors.Is(err, models.ErrUnknownAsset) {
		t.Fatalf("second retire: error = %v, want ErrUnknownAsset", err)
	}
	if _, err := svc.Price(context.Background(), "Nova"); !errors.Is(err, models.ErrUnknownAsset) {
		t.Fatalf("price after retire: error = %v, want ErrUnknownAsset", err)
	}
}

func TestMutatePrice_SecretRequired(t *testing.T) {
	repo := newMemAssetRepo()
	svc := NewRegistryService(repo, "hush")
	if _, err := svc.Mint(context.Background(), elevated, "Nova", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := svc.MutatePrice(context.Background(), "Nova", "wrong"); !errors.Is(err, models.ErrInvalidSecret) {
		t.Fatalf("error = %v, want ErrInvalidSecret", err)
	}
	if price, _ := svc.Price(context.Background(), "Nova"); price != 100 {
		t.Errorf("price changed after rejected mutation: %d", price)
	}
}

func TestMutatePrice_BoundedWalk(t *testing.T) {
	repo := newMemAssetRepo()
	svc := NewRegistryService(repo, "hush")
	if _, err := svc.Mint(context.Background(), elevated, "Nova", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}

	prev, _ := svc.Price(context.Background(), "Nova")
	for i := 0; i < 500; i++ {
		next, err := svc.MutatePrice(context.Background(), "Nova", "hush")
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		if next < 0 {
			t.Fatalf("price went negative: %d", next)
		}
		delta := next - prev
		if delta < 0 {
			delta = -delta
		}
		// A step is at most 10; it can be under 1 only when clamped at 0.
		if delta > 10 {
			t.Fatalf("step %d exceeds bound: %d -> %d", delta, prev, next)
		}
		if delta == 0 && prev != 0 && next != 0 {
			t.Fatalf("zero step without clamping: %d -> %d", prev, next)
		}
		prev = next
	}
}

func TestMutatePrice_UnknownAsset(t *testing.T) {
	svc := NewRegistryService(newMemAssetRepo(), "hush")

	if _, err := svc.MutatePrice(context.Background(), "ghost", "hush"); !errors.Is(err, models.ErrUnknownAsset) {
		t.Fatalf("error = %v, want ErrUnknownAsset", err)
	}
}

func TestPriceStep_Bounded(t *testing.T) {
	for i := 0; i < 200; i++ {
		step := priceStep()
		if step == 0 || step < -10 || step > 10 {
			t.Fatalf("priceStep() = %d, want nonzero within [-10,10]", step)
		}
	}
}

func TestSearch(t *testing.T) {
	repo := newMemAssetRepo()
	svc := NewRegistryService(repo, "hush")
	for _, name := range []string{"Nova", "Supernova", "Pulse"} {
		if _, err := svc.Mint(context.Background(), elevated, name, 10); err != nil {
			t.Fatalf("mint %s: %v", name, err)
		}
	}

	names, err := svc.Search(context.Background(), "ova")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v, want [Nova Supernova]", names)
	}
}
