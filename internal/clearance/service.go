package clearance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casevault-platform/internal/audit"
	"casevault-platform/internal/auth"
	"casevault-platform/internal/rbac"
)

// Repository is the persistence contract for principal clearance state.
type Repository interface {
	GetPrincipal(ctx context.Context, firmID, principalID string) (PrincipalRecord, error)

	// CompareAndSetClearance updates the clearance level only if the stored
	// level still equals from. Returns ErrConflict otherwise.
	CompareAndSetClearance(ctx context.Context, firmID, principalID string, from, to int, now time.Time) (PrincipalRecord, error)
}

// Service applies clearance mutations under the dominance and range rules.
//
// A mutation is admitted only when the actor strictly dominates the target:
// higher in the role hierarchy and above both the current and the requested
// clearance level. The new level must also land inside the target's
// role-implied band unless the actor's roles allow range override.
type Service struct {
	repo  Repository
	audit *audit.Service
	clock func() time.Time
}

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc, clock: time.Now}
}

// SetClearance mutates one principal's clearance level. The actor and the
// target must belong to the same firm; cross-firm clearance administration
// does not exist. The write is compare-and-set against the level the actor
// observed, so two concurrent admins cannot silently overwrite each other.
func (s *Service) SetClearance(ctx context.Context, actor auth.Principal, targetPrincipalID string, newLevel int, reason string) (PrincipalRecord, error) {
	if newLevel < 0 || newLevel > 10 {
		return PrincipalRecord{}, fmt.Errorf("%w: %d", ErrOutOfRange, newLevel)
	}
	if reason == "" {
		return PrincipalRecord{}, fmt.Errorf("clearance change requires a reason: %w", ErrInvalidArgument)
	}

	target, err := s.repo.GetPrincipal(ctx, actor.FirmID, targetPrincipalID)
	if err != nil {
		return PrincipalRecord{}, err
	}

	actorAuth := rbac.Resolve(actor.ClearanceLevel, actor.Roles)
	targetAuth := rbac.Resolve(target.ClearanceLevel, target.Roles)

	if !actorAuth.Dominates(targetAuth, target.ClearanceLevel, newLevel) {
		return PrincipalRecord{}, ErrNotDominant
	}
	if !targetAuth.InClearanceRange(newLevel) && !actorAuth.CanOverrideRange {
		return PrincipalRecord{}, fmt.Errorf("%w: %d not in [%d,%d]", ErrOutOfRange, newLevel, targetAuth.ClearanceMin, targetAuth.ClearanceMax)
	}

	updated, err := s.repo.CompareAndSetClearance(ctx, actor.FirmID, targetPrincipalID, target.ClearanceLevel, newLevel, s.clock().UTC())
	if err != nil {
		return PrincipalRecord{}, err
	}

	if s.audit != nil {
		meta := fmt.Sprintf(`{"from":%d,"to":%d,"reason":%q,"override_range":%t}`, target.ClearanceLevel, newLevel, reason, !targetAuth.InClearanceRange(newLevel))
		if aerr := s.audit.LogClearanceChange(ctx, actor.FirmID, actor.UserID, actor.Roles, targetPrincipalID, "clearance level changed", meta); aerr != nil {
			// The mutation is already committed; surface the audit failure so
			// the caller knows the trail is incomplete.
			return updated, fmt.Errorf("clearance updated but audit append failed: %w", aerr)
		}
	}
	return updated, nil
}

// BulkSetClearance applies one target level and reason across a set of
// principals, each mutation as its own atomic unit. There is no transactional
// envelope across principals: a denied or conflicting change leaves the
// already-applied ones in place, and each outcome is individually reported
// and audited.
func (s *Service) BulkSetClearance(ctx context.Context, actor auth.Principal, principalIDs []string, newLevel int, reason string) []Result {
	out := make([]Result, 0, len(principalIDs))
	for _, id := range principalIDs {
		rec, err := s.SetClearance(ctx, actor, id, newLevel, reason)
		if err != nil {
			out = append(out, Result{PrincipalID: id, ReasonCode: reasonCodeFor(err)})
			continue
		}
		out = append(out, Result{PrincipalID: id, Updated: true, ClearanceLevel: rec.ClearanceLevel})
	}
	return out
}

func reasonCodeFor(err error) string {
	switch {
	case errors.Is(err, ErrNotDominant):
		return ReasonInsufficientPermission
	case errors.Is(err, ErrOutOfRange):
		return ReasonOutOfRange
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrConflict):
		return ReasonConflict
	case errors.Is(err, ErrInvalidArgument):
		return ReasonInvalidArgument
	default:
		return ReasonConflict
	}
}
