package acl

import (
	"context"
	"sync"

	"casevault-platform/internal/resource"
)

// MemoryRepo is an in-memory ACL repository useful for tests and early
// development.
//
// NOTE: This is not intended for production; replace with a Postgres
// implementation over an acl_entries table keyed by
// (resource_type, resource_id, principal_id).
type MemoryRepo struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListForPrincipal(ctx context.Context, resourceType resource.Type, resourceID, principalID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if e.ResourceType != resourceType || e.ResourceID != resourceID {
			continue
		}
		if e.PrincipalID != principalID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) Append(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryRepo) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
