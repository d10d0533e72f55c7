package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casevault-platform/internal/auth"
	"casevault-platform/internal/rbac"
	"casevault-platform/internal/resource"
	"casevault-platform/internal/sharing"
)

// Reason codes carried on deny decisions. Cross-firm codes are shared with
// the evaluator that produces them.
const (
	ReasonInsufficientClearance  = "insufficient_clearance"
	ReasonInsufficientPermission = "insufficient_permission"
	ReasonResourceOnHold         = "resource_on_hold"
	ReasonGrantExpiredOrInactive = sharing.ReasonGrantExpiredOrInactive
	ReasonNoGrant                = sharing.ReasonNoGrant
	ReasonAuditUnavailable       = "audit_unavailable"
)

// ErrAuditUnavailable marks a decision that failed closed because its audit
// entry could not be written.
var ErrAuditUnavailable = errors.New("audit store unavailable")

// Decision is the engine's verdict. Restrictions are advisory flags the
// consuming layer must enforce on allowed cross-firm access.
type Decision struct {
	Allow        bool     `json:"allow"`
	ReasonCode   string   `json:"reason_code,omitempty"`
	Restrictions []string `json:"restrictions,omitempty"`
}

// Collaborator contracts. The engine composes these; it owns no state of
// its own.
type (
	ClassificationResolver interface {
		Classify(ctx context.Context, typ resource.Type, id string) (resource.Classified, error)
	}
	GrantSource interface {
		GrantsFor(ctx context.Context, res resource.Classified, userID string, teams []string, now time.Time) (rbac.PermissionSet, error)
	}
	ShareEvaluator interface {
		Evaluate(ctx context.Context, res resource.Classified, p auth.Principal, now time.Time) (sharing.Evaluation, error)
	}
	HoldChecker interface {
		IsOnHold(ctx context.Context, res resource.Classified, now time.Time) (bool, error)
	}
	AuditSink interface {
		RecordDecision(ctx context.Context, p auth.Principal, typ resource.Type, id string, action Action, allow bool, reasonCode string) error
	}
)

// Engine evaluates access decisions.
//
// Evaluation order, first match wins:
//
//  1. destructive action on a held resource denies resource_on_hold
//  2. same-firm: (role capabilities ∪ ACL grants) must permit the action
//     and clearance must cover the effective classification
//  3. cross-firm: delegate to the share evaluator; clearance does not apply
//  4. default deny no_grant
//
// Every call writes exactly one audit entry, and the decision is not final
// until that write succeeds: an audit failure converts any outcome to deny
// audit_unavailable. Denials are values; only infrastructure failures are
// errors, and they fail closed.
type Engine struct {
	resolver ClassificationResolver
	grants   GrantSource
	shares   ShareEvaluator
	holds    HoldChecker
	sink     AuditSink

	// Timeout bounds each dependency call so a degraded collaborator
	// produces a denial instead of a hang.
	Timeout time.Duration
}

func NewEngine(resolver ClassificationResolver, grants GrantSource, shares ShareEvaluator, holds HoldChecker, sink AuditSink) *Engine {
	return &Engine{
		resolver: resolver,
		grants:   grants,
		shares:   shares,
		holds:    holds,
		sink:     sink,
		Timeout:  2 * time.Second,
	}
}

// Decide evaluates one access request at now. The single now is used for
// every expiry comparison in the call, so one evaluation cannot flap between
// allow and deny mid-flight.
//
// Callers may abandon ctx at any point before the audit write begins; the
// audit write itself runs detached from caller cancellation.
func (e *Engine) Decide(ctx context.Context, p auth.Principal, typ resource.Type, id string, action Action, now time.Time) (Decision, error) {
	d, err := e.evaluate(ctx, p, typ, id, action, now)

	// The audit write must complete even if the caller has gone away. It
	// gets its own deadline off a detached context.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.Timeout)
	defer cancel()
	if aerr := e.sink.RecordDecision(auditCtx, p, typ, id, action, d.Allow, d.ReasonCode); aerr != nil {
		return Decision{Allow: false, ReasonCode: ReasonAuditUnavailable},
			fmt.Errorf("%w: %v", ErrAuditUnavailable, aerr)
	}
	return d, err
}

func (e *Engine) evaluate(ctx context.Context, p auth.Principal, typ resource.Type, id string, action Action, now time.Time) (Decision, error) {
	if !resource.ValidType(typ) || !ValidAction(action) || p.FirmID == "" {
		return deny(ReasonNoGrant), nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	res, err := e.resolver.Classify(ctx, typ, id)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			// Absence and denial look identical to principals that never
			// passed the firm-ownership check.
			return deny(ReasonNoGrant), nil
		}
		return deny(ReasonNoGrant), fmt.Errorf("classify resource: %w", err)
	}

	if action.Destructive() {
		held, err := e.holds.IsOnHold(ctx, res, now)
		if err != nil {
			return deny(ReasonResourceOnHold), fmt.Errorf("hold check: %w", err)
		}
		if held {
			return deny(ReasonResourceOnHold), nil
		}
	}

	if p.FirmID == res.FirmID {
		return e.sameFirm(ctx, p, res, action, now)
	}
	return e.crossFirm(ctx, p, res, action, now)
}

func (e *Engine) sameFirm(ctx context.Context, p auth.Principal, res resource.Classified, action Action, now time.Time) (Decision, error) {
	authority := rbac.Resolve(p.ClearanceLevel, p.Roles)

	aclPerms, err := e.grants.GrantsFor(ctx, res, p.UserID, p.Teams, now)
	if err != nil {
		return deny(ReasonNoGrant), fmt.Errorf("acl grants: %w", err)
	}
	effective := authority.Capabilities.Union(aclPerms)

	// Clearance and permission membership are independent gates; both must
	// hold. Clearance is reported first so a grant never reveals content
	// above the principal's level.
	if p.ClearanceLevel < res.Classification {
		return deny(ReasonInsufficientClearance), nil
	}
	if !effective.Has(actionPermissions[action]) {
		return deny(ReasonInsufficientPermission), nil
	}
	return Decision{Allow: true}, nil
}

func (e *Engine) crossFirm(ctx context.Context, p auth.Principal, res resource.Classified, action Action, now time.Time) (Decision, error) {
	ev, err := e.shares.Evaluate(ctx, res, p, now)
	if err != nil {
		return deny(ReasonNoGrant), fmt.Errorf("share evaluation: %w", err)
	}
	if !ev.Granted {
		return deny(ev.ReasonCode), nil
	}
	// The ceiling already capped the grant; an action outside the effective
	// set is indistinguishable from having no grant for it.
	if !ev.Permissions.Has(actionPermissions[action]) {
		return Decision{Allow: false, ReasonCode: ReasonNoGrant, Restrictions: restrictionStrings(ev.Restrictions)}, nil
	}
	return Decision{Allow: true, Restrictions: restrictionStrings(ev.Restrictions)}, nil
}

func deny(reason string) Decision {
	return Decision{Allow: false, ReasonCode: reason}
}

func restrictionStrings(rs []sharing.Restriction) []string {
	if len(rs) == 0 {
		return nil
	}
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
