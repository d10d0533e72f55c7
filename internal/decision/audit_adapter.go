package decision

import (
	"context"

	"casevault-platform/internal/audit"
	"casevault-platform/internal/auth"
	"casevault-platform/internal/resource"
)

// auditSink bridges the engine to the audit service. Events are filed under
// the acting principal's firm; the resource type and id on the event let the
// owning firm's compliance reads correlate cross-firm access.
type auditSink struct {
	svc *audit.Service
}

// NewAuditSink wraps the audit service as the engine's sink.
func NewAuditSink(svc *audit.Service) AuditSink {
	return &auditSink{svc: svc}
}

func (s *auditSink) RecordDecision(ctx context.Context, p auth.Principal, typ resource.Type, id string, action Action, allow bool, reasonCode string) error {
	outcome := audit.OutcomeDeny
	if allow {
		outcome = audit.OutcomeAllow
	}
	return s.svc.LogDecision(ctx, p.FirmID, p.UserID, p.Roles, auth.ClientIPFromContext(ctx),
		string(action), string(typ), id, outcome, reasonCode, "")
}
