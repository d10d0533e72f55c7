package resource

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("resource not found")
	ErrInvalidType = errors.New("invalid resource type")
)

// Repository abstracts resource persistence.
// Implementation can be Postgres, cached, etc.
type Repository interface {
	GetMatter(ctx context.Context, id string) (Matter, error)
	GetDocument(ctx context.Context, id string) (Document, error)
}

// Resolver determines a resource's effective security classification and
// firm ownership.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Classify resolves (type, id) into the decision engine's view of the
// resource.
//
// Invariant: a document's effective classification is the max of its own
// stored value and its parent matter's. A principal cleared for the matter
// but not for the document must never see the document, and vice versa is
// impossible by construction.
func (r *Resolver) Classify(ctx context.Context, typ Type, id string) (Classified, error) {
	switch typ {
	case TypeMatter:
		m, err := r.repo.GetMatter(ctx, id)
		if err != nil {
			return Classified{}, err
		}
		return Classified{
			Type:           TypeMatter,
			ID:             m.ID,
			FirmID:         m.FirmID,
			Name:           m.Name,
			Classification: m.Classification,
			CreatedAt:      m.CreatedAt,
			MatterClosedAt: m.ClosedAt,
		}, nil

	case TypeDocument:
		d, err := r.repo.GetDocument(ctx, id)
		if err != nil {
			return Classified{}, err
		}
		m, err := r.repo.GetMatter(ctx, d.MatterID)
		if err != nil {
			return Classified{}, err
		}

		classification := d.Classification
		if m.Classification > classification {
			classification = m.Classification
		}
		return Classified{
			Type:           TypeDocument,
			ID:             d.ID,
			FirmID:         d.FirmID,
			Name:           d.Name,
			ParentMatterID: d.MatterID,
			Classification: classification,
			CreatedAt:      d.CreatedAt,
			MatterClosedAt: m.ClosedAt,
		}, nil

	default:
		return Classified{}, ErrInvalidType
	}
}
