package authz

import (
	"context"
	"sync"
	"time"

	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// RoleSource lists role definitions, typically from the identity service
type RoleSource interface {
	FetchRoles(ctx context.Context) ([]models.RoleDefinition, error)
}

// Refresher periodically reloads a Policy from a RoleSource.
// A failed fetch keeps the last known grants.
type Refresher struct {
	source   RoleSource
	policy   *Policy
	interval time.Duration
	logger   logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewRefresher creates a refresher for policy
func NewRefresher(source RoleSource, policy *Policy, interval time.Duration, logger logger.Logger) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Refresher{
		source:   source,
		policy:   policy,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Refresh fetches the roles once and replaces the policy grants
func (r *Refresher) Refresh(ctx context.Context) error {
	defs, err := r.source.FetchRoles(ctx)

	if err != nil {
		return err
	}

	r.policy.ReplaceFromDefinitions(defs)
	r.logger.Info("Role policy refreshed", "roles", len(defs))

	return nil
}

// Start loads the policy immediately and then on every interval
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	r.running = true
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		r.loop()
	}()

	r.logger.Info("Role policy refresher started", "interval", r.interval)
}

// Stop stops the refresher and waits for an in-flight fetch
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.cancel()
	r.wg.Wait()
	r.running = false

	r.logger.Info("Role policy refresher stopped")
}

func (r *Refresher) loop() {
	r.refreshLogged()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.refreshLogged()
		}
	}
}

func (r *Refresher) refreshLogged() {
	ctx, cancel := context.WithTimeout(r.ctx, r.interval)
	defer cancel()

	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("Failed to refresh role policy, keeping previous grants", "error", err)
	}
}
