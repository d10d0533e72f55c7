package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. The log is
// append-only; there are no update or delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Reader lists events for internal operator surfaces. Kept separate from
// Repository so the write path never gains read-your-writes assumptions.
type Reader interface {
	List(ctx context.Context, firmID string, limit int) ([]Event, error)
}

// Service records audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - For access decisions, audit is NOT best-effort: the decision engine
//   treats a failed Append as a failed (denied) decision. Append must return
//   the real error, never swallow it.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.FirmID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogDecision records one decision-engine verdict. Exactly one call per
// Decide invocation, allow and deny alike.
func (s *Service) LogDecision(ctx context.Context, firmID, actorUserID string, actorRoles []string, ip, action, resourceType, resourceID string, outcome Outcome, reasonCode, metadata string) error {
	return s.Append(ctx, Event{
		FirmID:       firmID,
		Type:         EventTypeDecision,
		ActorUserID:  actorUserID,
		ActorRoles:   strings.Join(actorRoles, ","),
		IPAddress:    ip,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		ReasonCode:   reasonCode,
		Metadata:     metadata,
	})
}

// LogClearanceChange records one clearance mutation (old/new values belong in
// metadata, the reason in message).
func (s *Service) LogClearanceChange(ctx context.Context, firmID, actorUserID string, actorRoles []string, targetPrincipalID, message, metadata string) error {
	return s.Append(ctx, Event{
		FirmID:       firmID,
		Type:         EventTypeClearanceChange,
		ActorUserID:  actorUserID,
		ActorRoles:   strings.Join(actorRoles, ","),
		Action:       "set_clearance",
		ResourceType: "principal",
		ResourceID:   targetPrincipalID,
		Outcome:      OutcomeAllow,
		Message:      message,
		Metadata:     metadata,
	})
}

// LogSweepOutcome records what the retention sweep did (or declined to do)
// for one resource.
func (s *Service) LogSweepOutcome(ctx context.Context, firmID, resourceType, resourceID string, outcome Outcome, reasonCode, message, metadata string) error {
	return s.Append(ctx, Event{
		FirmID:       firmID,
		Type:         EventTypeRetentionSweep,
		ActorUserID:  "system:retention-sweep",
		Action:       "retention_sweep",
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		ReasonCode:   reasonCode,
		Message:      message,
		Metadata:     metadata,
	})
}
