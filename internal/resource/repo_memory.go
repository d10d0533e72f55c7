package resource

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory resource store useful for tests and early
// development. It also implements the mutation surface the retention sweep
// needs (delete/archive).
//
// NOTE: This is not intended for production; replace with a Postgres
// implementation backed by the matters/documents tables.
type MemoryRepo struct {
	mu        sync.RWMutex
	matters   map[string]Matter
	documents map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		matters:   make(map[string]Matter),
		documents: make(map[string]Document),
	}
}

func (r *MemoryRepo) PutMatter(m Matter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matters[m.ID] = m
}

func (r *MemoryRepo) PutDocument(d Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[d.ID] = d
}

func (r *MemoryRepo) GetMatter(ctx context.Context, id string) (Matter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matters[id]
	if !ok {
		return Matter{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) GetDocument(ctx context.Context, id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.documents[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return d, nil
}

// ListMatters returns all matters; the retention sweep iterates these.
func (r *MemoryRepo) ListMatters(ctx context.Context) ([]Matter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Matter, 0, len(r.matters))
	for _, m := range r.matters {
		out = append(out, m)
	}
	return out, nil
}

func (r *MemoryRepo) ListDocuments(ctx context.Context) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(r.documents))
	for _, d := range r.documents {
		out = append(out, d)
	}
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, typ Type, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch typ {
	case TypeMatter:
		if _, ok := r.matters[id]; !ok {
			return ErrNotFound
		}
		delete(r.matters, id)
	case TypeDocument:
		if _, ok := r.documents[id]; !ok {
			return ErrNotFound
		}
		delete(r.documents, id)
	default:
		return ErrInvalidType
	}
	return nil
}

func (r *MemoryRepo) Archive(ctx context.Context, typ Type, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch typ {
	case TypeMatter:
		m, ok := r.matters[id]
		if !ok {
			return ErrNotFound
		}
		m.Status = MatterStatusArchived
		m.UpdatedAt = now
		r.matters[id] = m
	case TypeDocument:
		d, ok := r.documents[id]
		if !ok {
			return ErrNotFound
		}
		d.Status = DocumentStatusArchived
		d.UpdatedAt = now
		r.documents[id] = d
	default:
		return ErrInvalidType
	}
	return nil
}
