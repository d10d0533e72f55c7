package retention

import (
	"context"
	"fmt"
	"time"

	"casevault-platform/internal/audit"
	"casevault-platform/internal/resource"
)

// SweepOutcome codes recorded per swept resource.
const (
	OutcomeDeleted      = "deleted"
	OutcomeArchived     = "archived"
	OutcomeReviewQueued = "review_queued"
	OutcomeNotified     = "notified"
	OutcomeSkippedHold  = "skipped_on_hold"
	OutcomeSkippedLock  = "skipped_locked"
)

// SweepResult is one resource's outcome from a sweep run.
type SweepResult struct {
	ResourceType resource.Type `json:"resource_type"`
	ResourceID   string        `json:"resource_id"`
	FirmID       string        `json:"firm_id"`
	PolicyID     string        `json:"policy_id"`
	Outcome      string        `json:"outcome"`
}

// Locker serializes the sweep against concurrent hold placement and
// concurrent sweep runs, per resource.
type Locker interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// Inventory enumerates and mutates the resources the sweep can act on.
type Inventory interface {
	ListMatters(ctx context.Context) ([]resource.Matter, error)
	ListDocuments(ctx context.Context) ([]resource.Document, error)
	Delete(ctx context.Context, typ resource.Type, id string) error
	Archive(ctx context.Context, typ resource.Type, id string, now time.Time) error
}

// Notifier receives review/notify policy outcomes. The sweep's job ends at
// surfacing them; downstream delivery is out of scope here.
type Notifier interface {
	NotifyRetention(ctx context.Context, res resource.Classified, p Policy) error
}

// Sweeper executes retention policies over the inventory.
//
// Per resource whose policy clock has elapsed, the sweeper acquires the
// resource lock, re-checks hold coverage inside the critical section, then
// applies the policy action. The re-check is the atomicity guarantee from
// the state machine: a hold placed between enumeration and action still
// wins.
type Sweeper struct {
	inventory Inventory
	resolver  *resource.Resolver
	policies  PolicyRepository
	holds     *Service
	locker    Locker
	notifier  Notifier
	audit     *audit.Service

	Owner   string
	LockTTL time.Duration
}

func NewSweeper(inv Inventory, resolver *resource.Resolver, policies PolicyRepository, holds *Service, locker Locker, auditSvc *audit.Service) *Sweeper {
	return &Sweeper{
		inventory: inv,
		resolver:  resolver,
		policies:  policies,
		holds:     holds,
		locker:    locker,
		audit:     auditSvc,
		Owner:     "sweeper",
		LockTTL:   30 * time.Second,
	}
}

// SetNotifier wires the optional review/notify sink.
func (s *Sweeper) SetNotifier(n Notifier) { s.notifier = n }

// Run executes one sweep pass at now and returns per-resource outcomes.
// Enumeration or policy-list failures abort the run; per-resource action
// failures are returned as errors after the loop so one bad resource does
// not stop the rest.
func (s *Sweeper) Run(ctx context.Context, now time.Time) ([]SweepResult, error) {
	matters, err := s.inventory.ListMatters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matters: %w", err)
	}
	documents, err := s.inventory.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	policiesByFirm := make(map[string][]Policy)
	var results []SweepResult
	var errs []error

	sweepOne := func(typ resource.Type, id, firmID string) {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			return
		}
		firmPolicies, ok := policiesByFirm[firmID]
		if !ok {
			var perr error
			firmPolicies, perr = s.policies.ListPolicies(ctx, firmID)
			if perr != nil {
				errs = append(errs, fmt.Errorf("list policies for %s: %w", firmID, perr))
				return
			}
			policiesByFirm[firmID] = firmPolicies
		}

		res, err := s.resolver.Classify(ctx, typ, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("classify %s/%s: %w", typ, id, err))
			return
		}
		for _, p := range firmPolicies {
			if p.ResourceClass != typ || !p.Elapsed(res, now) {
				continue
			}
			r, err := s.apply(ctx, res, p, now)
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, r)
			// First elapsed policy wins; a deleted resource has no second act.
			return
		}
	}

	// Archived resources already received their terminal action; skipping
	// them keeps repeated runs from re-recording the same outcome.
	for _, d := range documents {
		if d.Status == resource.DocumentStatusArchived {
			continue
		}
		sweepOne(resource.TypeDocument, d.ID, d.FirmID)
	}
	for _, m := range matters {
		if m.Status == resource.MatterStatusArchived {
			continue
		}
		sweepOne(resource.TypeMatter, m.ID, m.FirmID)
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("sweep finished with %d failures, first: %w", len(errs), errs[0])
	}
	return results, nil
}

func (s *Sweeper) apply(ctx context.Context, res resource.Classified, p Policy, now time.Time) (SweepResult, error) {
	result := SweepResult{ResourceType: res.Type, ResourceID: res.ID, FirmID: res.FirmID, PolicyID: p.ID}

	lockKey := resourceLockKey(res.Type, res.ID)
	ok, err := s.locker.Acquire(ctx, lockKey, s.Owner, s.LockTTL)
	if err != nil {
		return result, fmt.Errorf("acquire lock for %s/%s: %w", res.Type, res.ID, err)
	}
	if !ok {
		result.Outcome = OutcomeSkippedLock
		s.logOutcome(ctx, result, audit.OutcomeDeny, "resource locked by another actor")
		return result, nil
	}
	defer func() { _ = s.locker.Release(ctx, lockKey, s.Owner) }()

	// Re-check inside the lock. A hold filed after enumeration must still
	// block the action.
	held, err := s.holds.IsOnHold(ctx, res, now)
	if err != nil {
		return result, fmt.Errorf("hold re-check for %s/%s: %w", res.Type, res.ID, err)
	}
	if held {
		result.Outcome = OutcomeSkippedHold
		s.logOutcome(ctx, result, audit.OutcomeDeny, "active hold covers resource")
		return result, nil
	}

	switch p.Action {
	case ActionDelete:
		if err := s.inventory.Delete(ctx, res.Type, res.ID); err != nil {
			return result, fmt.Errorf("delete %s/%s: %w", res.Type, res.ID, err)
		}
		result.Outcome = OutcomeDeleted
	case ActionArchive:
		if err := s.inventory.Archive(ctx, res.Type, res.ID, now); err != nil {
			return result, fmt.Errorf("archive %s/%s: %w", res.Type, res.ID, err)
		}
		result.Outcome = OutcomeArchived
	case ActionReview:
		if s.notifier != nil {
			if err := s.notifier.NotifyRetention(ctx, res, p); err != nil {
				return result, fmt.Errorf("queue review for %s/%s: %w", res.Type, res.ID, err)
			}
		}
		result.Outcome = OutcomeReviewQueued
	case ActionNotify:
		if s.notifier != nil {
			if err := s.notifier.NotifyRetention(ctx, res, p); err != nil {
				return result, fmt.Errorf("notify for %s/%s: %w", res.Type, res.ID, err)
			}
		}
		result.Outcome = OutcomeNotified
	default:
		return result, fmt.Errorf("policy %s: unknown action %q", p.ID, p.Action)
	}

	s.logOutcome(ctx, result, audit.OutcomeAllow, "retention policy applied")
	return result, nil
}

func (s *Sweeper) logOutcome(ctx context.Context, r SweepResult, outcome audit.Outcome, message string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogSweepOutcome(ctx, r.FirmID, string(r.ResourceType), r.ResourceID, outcome, r.Outcome, message,
		fmt.Sprintf(`{"policy_id":%q}`, r.PolicyID))
}
