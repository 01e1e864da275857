package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"shoecare/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverFlagRepository serves from primary until it fails, then from fallback,
// retrying primary once per recoveryInterval.
type FailoverFlagRepository struct {
	primary   domain.FlagStore
	fallback  domain.FlagStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverFlagRepository(primary, fallback domain.FlagStore, logger *zerolog.Logger) *FailoverFlagRepository {
	return &FailoverFlagRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverFlagRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary flag repository failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverFlagRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastCheck) > recoveryInterval
}

func (r *FailoverFlagRepository) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary flag repository recovered")
	}
}

func (r *FailoverFlagRepository) GetAdminSimulation(ctx context.Context, userID int64) (bool, error) {
	if r.usePrimary() {
		enabled, err := r.primary.GetAdminSimulation(ctx, userID)
		if err == nil {
			r.recovered()
			return enabled, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetAdminSimulation(ctx, userID)
}

func (r *FailoverFlagRepository) SetAdminSimulation(ctx context.Context, userID int64, enabled bool) error {
	if r.usePrimary() {
		err := r.primary.SetAdminSimulation(ctx, userID, enabled)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetAdminSimulation(ctx, userID, enabled)
}

func (r *FailoverFlagRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.recovered()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
