package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casevault-platform/internal/audit"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("share grant not found")
	ErrInvalidTransition = errors.New("invalid share grant transition")
)

// Service owns the administrative lifecycle of share grants.
//
// Status transitions:
//
//	pending -> active | declined
//	pending | active -> revoked
//
// expired is never written by a transition; it is an evaluation-time view of
// an active grant past its expiry (Grant.Usable). Every transition is
// audited.
type Service struct {
	repo  Repository
	audit *audit.Service
	clock func() time.Time
}

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc, clock: time.Now}
}

// Create files a new grant in pending status. The target firm must accept
// (activate) before the grant conveys anything.
func (s *Service) Create(ctx context.Context, g Grant) (Grant, error) {
	if g.MatterID == "" || g.SourceFirmID == "" || g.TargetFirmID == "" || g.CreatedBy == "" {
		return Grant{}, ErrInvalidArgument
	}
	if g.SourceFirmID == g.TargetFirmID {
		return Grant{}, ErrInvalidArgument
	}
	if !ValidShareRole(g.Role) {
		return Grant{}, ErrInvalidArgument
	}
	if g.Permissions.IsEmpty() {
		return Grant{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.Status = StatusPending
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := s.repo.Append(ctx, g); err != nil {
		return Grant{}, err
	}
	s.logTransition(ctx, g, "share grant created")
	return g, nil
}

func (s *Service) Activate(ctx context.Context, id, actorUserID string) (Grant, error) {
	return s.transition(ctx, id, actorUserID, StatusActive, StatusPending)
}

func (s *Service) Decline(ctx context.Context, id, actorUserID string) (Grant, error) {
	return s.transition(ctx, id, actorUserID, StatusDeclined, StatusPending)
}

func (s *Service) Revoke(ctx context.Context, id, actorUserID string) (Grant, error) {
	return s.transition(ctx, id, actorUserID, StatusRevoked, StatusPending, StatusActive)
}

func (s *Service) transition(ctx context.Context, id, actorUserID string, to Status, validFrom ...Status) (Grant, error) {
	if id == "" {
		return Grant{}, ErrInvalidArgument
	}

	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return Grant{}, err
	}

	ok := false
	for _, from := range validFrom {
		if g.Status == from {
			ok = true
			break
		}
	}
	if !ok {
		return Grant{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, g.Status, to)
	}

	now := s.clock().UTC()
	updated, err := s.repo.UpdateStatus(ctx, id, to, now)
	if err != nil {
		return Grant{}, err
	}
	updated.CreatedBy = g.CreatedBy

	logged := updated
	logged.CreatedBy = actorUserID
	s.logTransition(ctx, logged, "share grant "+string(to))
	return updated, nil
}

func (s *Service) logTransition(ctx context.Context, g Grant, message string) {
	if s.audit == nil {
		return
	}
	// Share lifecycle events are advisory history, not decision-path writes;
	// a failed append must not dead-letter the transition itself.
	_ = s.audit.Append(ctx, audit.Event{
		FirmID:       g.SourceFirmID,
		Type:         audit.EventTypeShareLifecycle,
		ActorUserID:  g.CreatedBy,
		Action:       "share_" + string(g.Status),
		ResourceType: "matter",
		ResourceID:   g.MatterID,
		Outcome:      audit.OutcomeAllow,
		Message:      message,
		Metadata:     fmt.Sprintf(`{"grant_id":%q,"target_firm_id":%q,"role":%q}`, g.ID, g.TargetFirmID, g.Role),
	})
}
