// Package scheduler runs the background price updater: a discovery loop
// that watches the registry for new assets, and one long-lived update
// loop per asset that nudges its price on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry is the slice of the asset registry the scheduler needs.
type Registry interface {
	ListNames(ctx context.Context) ([]string, error)
	MutatePrice(ctx context.Context, name, secret string) (int64, error)
}

// claimSet records which asset names already have an update loop. Claims
// are never released: a retired asset keeps its loop, which just logs
// NotFound every tick.
type claimSet struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{names: make(map[string]struct{})}
}

// TryClaim atomically records the name. Returns false if it was already
// claimed, so two racing discovery ticks can never both spawn a loop for
// the same asset.
func (c *claimSet) TryClaim(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.names[name]; ok {
		return false
	}
	c.names[name] = struct{}{}
	return true
}

// Len returns the number of claimed names.
func (c *claimSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

// Scheduler discovers assets and keeps one price-update loop running per
// asset until its context is cancelled.
type Scheduler struct {
	registry Registry
	// secret authenticates MutatePrice calls.
	secret            string
	discoveryInterval time.Duration
	updateInterval    time.Duration
	log               *zap.Logger

	claims *claimSet
	wg     sync.WaitGroup
}

// New constructs a Scheduler. Call Start to begin discovery.
func New(registry Registry, secret string, discoveryInterval, updateInterval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		registry:          registry,
		secret:            secret,
		discoveryInterval: discoveryInterval,
		updateInterval:    updateInterval,
		log:               log,
		claims:            newClaimSet(),
	}
}

// Start launches the discovery loop. It returns immediately; every loop
// observes ctx and exits at its next tick boundary once ctx is
// cancelled. Use Wait to join them.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Pick up assets that were minted before the scheduler started.
		s.discover(ctx)

		ticker := time.NewTicker(s.discoveryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.discover(ctx)
			}
		}
	}()
}

// Wait blocks until the discovery loop and every update loop have
// stopped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// discover lists asset names and spawns an update loop for each name not
// yet claimed. A failed listing is logged and retried on the next tick;
// it never stops discovery.
func (s *Scheduler) discover(ctx context.Context) {
	names, err := s.registry.ListNames(ctx)
	if err != nil {
		s.log.Error("asset discovery failed", zap.Error(err))
		return
	}
	for _, name := range names {
		if !s.claims.TryClaim(name) {
			continue
		}
		s.log.Info("starting price updates", zap.String("asset", name))
		s.wg.Add(1)
		go func(asset string) {
			defer s.wg.Done()
			s.updateLoop(ctx, asset)
		}(name)
	}
}

// updateLoop mutates one asset's price every tick until ctx is
// cancelled. A failed call is logged and not retried before the next
// tick; the loop never terminates because of one.
func (s *Scheduler) updateLoop(ctx context.Context, asset string) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price, err := s.registry.MutatePrice(ctx, asset, s.secret)
			if err != nil {
				s.log.Warn("price update failed", zap.String("asset", asset), zap.Error(err))
				continue
			}
			s.log.Debug("price updated", zap.String("asset", asset), zap.Int64("price", price))
		}
	}
}
