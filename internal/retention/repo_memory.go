package retention

import (
	"context"
	"sync"
	"time"
)

// MemoryHoldRepo keeps holds in memory for tests and early development.
type MemoryHoldRepo struct {
	mu    sync.RWMutex
	holds map[string]Hold
}

func NewMemoryHoldRepo() *MemoryHoldRepo {
	return &MemoryHoldRepo{holds: make(map[string]Hold)}
}

// ListActiveCandidates returns unreleased holds for the firm. Expiry is not
// filtered here; Hold.Active applies it against the caller's now.
func (r *MemoryHoldRepo) ListActiveCandidates(ctx context.Context, firmID string) ([]Hold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Hold
	for _, h := range r.holds {
		if h.FirmID == firmID && !h.Released {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *MemoryHoldRepo) Get(ctx context.Context, id string) (Hold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.holds[id]
	if !ok {
		return Hold{}, ErrNotFound
	}
	return h, nil
}

func (r *MemoryHoldRepo) Append(ctx context.Context, h Hold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holds[h.ID] = h
	return nil
}

func (r *MemoryHoldRepo) MarkReleased(ctx context.Context, id, releasedBy string, now time.Time) (Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holds[id]
	if !ok {
		return Hold{}, ErrNotFound
	}
	h.Released = true
	h.ReleasedBy = releasedBy
	h.ReleasedAt = &now
	r.holds[id] = h
	return h, nil
}

// MemoryPolicyRepo keeps retention policies in memory.
type MemoryPolicyRepo struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

func NewMemoryPolicyRepo() *MemoryPolicyRepo {
	return &MemoryPolicyRepo{policies: make(map[string]Policy)}
}

func (r *MemoryPolicyRepo) ListPolicies(ctx context.Context, firmID string) ([]Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Policy
	for _, p := range r.policies {
		if p.FirmID == firmID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryPolicyRepo) PutPolicy(ctx context.Context, p Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.ID] = p
	return nil
}
