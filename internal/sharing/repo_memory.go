package sharing

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory share-grant repository useful for tests and
// early development.
//
// NOTE: This is not intended for production; replace with a Postgres
// implementation over a share_grants table keyed by (matter_id, target_firm_id).
type MemoryRepo struct {
	mu     sync.RWMutex
	grants map[string]Grant
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{grants: make(map[string]Grant)}
}

func (r *MemoryRepo) FindForTarget(ctx context.Context, matterID, targetFirmID string) ([]Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Grant
	for _, g := range r.grants {
		if g.MatterID == matterID && g.TargetFirmID == targetFirmID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grants[id]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *MemoryRepo) Append(ctx context.Context, g Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[g.ID] = g
	return nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grants[id]
	if !ok {
		return Grant{}, ErrNotFound
	}
	g.Status = status
	g.UpdatedAt = now
	r.grants[id] = g
	return g, nil
}
