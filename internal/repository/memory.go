package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryFlagRepository is the in-process fallback for RedisFlagRepository.
type MemoryFlagRepository struct {
	simulations sync.Map // int64 -> time.Time (expiry)
	mu          sync.Mutex
	rateLimits  map[int64]*rateLimitEntry
	ttl         time.Duration
	now         func() time.Time
}

func NewMemoryFlagRepository(ttl time.Duration) *MemoryFlagRepository {
	return &MemoryFlagRepository{
		rateLimits: make(map[int64]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryFlagRepository) GetAdminSimulation(ctx context.Context, userID int64) (bool, error) {
	val, ok := r.simulations.Load(userID)
	if !ok {
		return false, nil
	}
	if r.now().After(val.(time.Time)) {
		r.simulations.Delete(userID)
		return false, nil
	}
	return true, nil
}

func (r *MemoryFlagRepository) SetAdminSimulation(ctx context.Context, userID int64, enabled bool) error {
	if !enabled {
		r.simulations.Delete(userID)
		return nil
	}
	r.simulations.Store(userID, r.now().Add(r.ttl))
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryFlagRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}
