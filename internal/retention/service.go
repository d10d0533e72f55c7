package retention

import (
	"context"
	"fmt"
	"time"

	"casevault-platform/internal/audit"
	"casevault-platform/internal/resource"

	"github.com/google/uuid"
)

// HoldRepository stores legal holds per firm.
type HoldRepository interface {
	ListActiveCandidates(ctx context.Context, firmID string) ([]Hold, error)
	Get(ctx context.Context, id string) (Hold, error)
	Append(ctx context.Context, h Hold) error
	MarkReleased(ctx context.Context, id, releasedBy string, now time.Time) (Hold, error)
}

// PolicyRepository stores retention policies per firm.
type PolicyRepository interface {
	ListPolicies(ctx context.Context, firmID string) ([]Policy, error)
	PutPolicy(ctx context.Context, p Policy) error
}

// Service answers hold-state questions for the decision engine and owns the
// hold lifecycle. Hold state always wins over retention state: StateOf never
// reports retention_pending or expired for a held resource.
type Service struct {
	holds    HoldRepository
	policies PolicyRepository
	audit    *audit.Service
	clock    func() time.Time

	locker  Locker
	lockTTL time.Duration
}

func NewService(holds HoldRepository, policies PolicyRepository, auditSvc *audit.Service) *Service {
	return &Service{holds: holds, policies: policies, audit: auditSvc, clock: time.Now}
}

// SetLocker makes direct-scope hold creation contend on the same
// per-resource locks the sweep holds during its critical section. Without
// it a hold filed while a delete is in flight could land after the
// sweeper's re-check and be lost.
func (s *Service) SetLocker(l Locker, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	s.locker = l
	s.lockTTL = ttl
}

// IsOnHold reports whether any active hold covers the resource at now.
func (s *Service) IsOnHold(ctx context.Context, res resource.Classified, now time.Time) (bool, error) {
	holds, err := s.holds.ListActiveCandidates(ctx, res.FirmID)
	if err != nil {
		return false, fmt.Errorf("list holds: %w", err)
	}
	for _, h := range holds {
		if h.Active(now) && h.Covers(res) {
			return true, nil
		}
	}
	return false, nil
}

// StateOf resolves the resource's lifecycle state at now.
func (s *Service) StateOf(ctx context.Context, res resource.Classified, now time.Time) (State, error) {
	held, err := s.IsOnHold(ctx, res, now)
	if err != nil {
		return "", err
	}
	if held {
		return StateOnHold, nil
	}

	policies, err := s.policies.ListPolicies(ctx, res.FirmID)
	if err != nil {
		return "", fmt.Errorf("list policies: %w", err)
	}
	for _, p := range policies {
		if p.ResourceClass != res.Type {
			continue
		}
		if p.Elapsed(res, now) {
			return StateRetentionPending, nil
		}
	}
	return StateNormal, nil
}

// CreateHold files a new hold. The hold covers matching resources from this
// point on; a criterion hold also covers resources that only start matching
// later.
func (s *Service) CreateHold(ctx context.Context, h Hold) (Hold, error) {
	if h.FirmID == "" || h.Reason == "" || h.CreatedBy == "" {
		return Hold{}, ErrInvalidArgument
	}
	if len(h.Scope.MatterIDs) == 0 && len(h.Scope.DocumentIDs) == 0 && h.Scope.Criterion.empty() {
		return Hold{}, fmt.Errorf("hold scope covers nothing: %w", ErrInvalidArgument)
	}

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.Released = false
	h.CreatedAt = s.clock().UTC()

	// Directly scoped resources take the sweep's per-resource lock before
	// the hold commits: either the hold lands before a sweep's in-lock
	// re-check, or filing waits out the in-flight action. Criterion scopes
	// have no resource list to lock; they cover whatever matches at the
	// next re-check.
	release, err := s.lockDirectScope(ctx, h)
	if err != nil {
		return Hold{}, err
	}
	defer release()

	if err := s.holds.Append(ctx, h); err != nil {
		return Hold{}, err
	}
	s.logHold(ctx, h, "hold_created")
	return h, nil
}

// ReleaseHold releases a hold; coverage stops immediately. Releasing an
// already-released hold is a no-op returning the stored record.
func (s *Service) ReleaseHold(ctx context.Context, id, releasedBy string) (Hold, error) {
	if id == "" || releasedBy == "" {
		return Hold{}, ErrInvalidArgument
	}
	existing, err := s.holds.Get(ctx, id)
	if err != nil {
		return Hold{}, err
	}
	if existing.Released {
		return existing, nil
	}

	released, err := s.holds.MarkReleased(ctx, id, releasedBy, s.clock().UTC())
	if err != nil {
		return Hold{}, err
	}
	s.logHold(ctx, released, "hold_released")
	return released, nil
}

func (s *Service) lockDirectScope(ctx context.Context, h Hold) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	keys := make([]string, 0, len(h.Scope.MatterIDs)+len(h.Scope.DocumentIDs))
	for _, id := range h.Scope.MatterIDs {
		keys = append(keys, resourceLockKey(resource.TypeMatter, id))
	}
	for _, id := range h.Scope.DocumentIDs {
		keys = append(keys, resourceLockKey(resource.TypeDocument, id))
	}

	owner := "hold:" + h.ID
	acquired := make([]string, 0, len(keys))
	release := func() {
		for _, k := range acquired {
			_ = s.locker.Release(ctx, k, owner)
		}
	}
	for _, k := range keys {
		ok, err := s.locker.Acquire(ctx, k, owner, s.lockTTL)
		if err != nil {
			release()
			return nil, fmt.Errorf("acquire %s: %w", k, err)
		}
		if !ok {
			release()
			return nil, fmt.Errorf("%w: %s", ErrResourceLocked, k)
		}
		acquired = append(acquired, k)
	}
	return release, nil
}

func (s *Service) logHold(ctx context.Context, h Hold, action string) {
	if s.audit == nil {
		return
	}
	actor := h.CreatedBy
	if action == "hold_released" {
		actor = h.ReleasedBy
	}
	// Lifecycle history, not a decision-path write; failure must not undo
	// the hold mutation itself.
	_ = s.audit.Append(ctx, audit.Event{
		FirmID:      h.FirmID,
		Type:        audit.EventTypeHoldLifecycle,
		ActorUserID: actor,
		Action:      action,
		Outcome:     audit.OutcomeAllow,
		Message:     h.Reason,
		Metadata:    fmt.Sprintf(`{"hold_id":%q}`, h.ID),
	})
}
