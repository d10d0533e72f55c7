package clearance

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps principal records in memory for tests and early
// development.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]PrincipalRecord // keyed by principal id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]PrincipalRecord)}
}

func (r *MemoryRepo) Put(rec PrincipalRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
}

func (r *MemoryRepo) GetPrincipal(ctx context.Context, firmID, principalID string) (PrincipalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[principalID]
	if !ok || rec.FirmID != firmID {
		return PrincipalRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) CompareAndSetClearance(ctx context.Context, firmID, principalID string, from, to int, now time.Time) (PrincipalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[principalID]
	if !ok || rec.FirmID != firmID {
		return PrincipalRecord{}, ErrNotFound
	}
	if rec.ClearanceLevel != from {
		return PrincipalRecord{}, ErrConflict
	}
	rec.ClearanceLevel = to
	rec.UpdatedAt = now
	r.records[principalID] = rec
	return rec, nil
}
