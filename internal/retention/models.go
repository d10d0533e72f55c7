package retention

import (
	"errors"
	"strings"
	"time"

	"casevault-platform/internal/resource"
)

var (
	ErrNotFound        = errors.New("retention record not found")
	ErrInvalidArgument = errors.New("invalid retention request")
	ErrResourceLocked  = errors.New("resource locked by another actor")
)

// State is the lifecycle view of one resource under holds and retention.
type State string

const (
	StateNormal           State = "normal"
	StateOnHold           State = "on_hold"
	StateRetentionPending State = "retention_pending"
	StateExpired          State = "expired"
)

// Criterion matches resources by attribute instead of listing them. A
// criterion-scoped hold covers resources that start matching after the hold
// was filed, without re-filing.
type Criterion struct {
	FirmID       string `json:"firm_id,omitempty"`
	MatterID     string `json:"matter_id,omitempty"`
	NameContains string `json:"name_contains,omitempty"`
}

func (c Criterion) empty() bool {
	return c.FirmID == "" && c.MatterID == "" && c.NameContains == ""
}

func (c Criterion) matches(res resource.Classified) bool {
	if c.empty() {
		return false
	}
	if c.FirmID != "" && c.FirmID != res.FirmID {
		return false
	}
	if c.MatterID != "" {
		if res.Type == resource.TypeMatter {
			if res.ID != c.MatterID {
				return false
			}
		} else if res.ParentMatterID != c.MatterID {
			return false
		}
	}
	if c.NameContains != "" && !strings.Contains(strings.ToLower(res.Name), strings.ToLower(c.NameContains)) {
		return false
	}
	return true
}

// Scope is what a hold covers: explicit matters, explicit documents, or a
// criterion, in any combination.
type Scope struct {
	MatterIDs   []string  `json:"matter_ids,omitempty"`
	DocumentIDs []string  `json:"document_ids,omitempty"`
	Criterion   Criterion `json:"criterion,omitempty"`
}

// Hold blocks destructive actions on everything its scope covers while
// active. Holds never lapse silently; an expiry must be set explicitly, and
// a released hold stops covering immediately.
type Hold struct {
	ID        string     `json:"id"`
	FirmID    string     `json:"firm_id"`
	Scope     Scope      `json:"scope"`
	Reason    string     `json:"reason"`
	Released  bool       `json:"released"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ReleasedBy string     `json:"released_by,omitempty"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

// Active reports whether the hold still covers anything at now.
func (h Hold) Active(now time.Time) bool {
	if h.Released {
		return false
	}
	if h.ExpiresAt != nil && !now.Before(*h.ExpiresAt) {
		return false
	}
	return true
}

// Covers reports whether the hold's scope includes the resource: listed
// directly, listed via its parent matter, or matched by criterion.
func (h Hold) Covers(res resource.Classified) bool {
	if h.directlyListed(res) {
		return true
	}
	return h.Scope.Criterion.matches(res)
}

func (h Hold) directlyListed(res resource.Classified) bool {
	switch res.Type {
	case resource.TypeMatter:
		for _, id := range h.Scope.MatterIDs {
			if id == res.ID {
				return true
			}
		}
	case resource.TypeDocument:
		for _, id := range h.Scope.DocumentIDs {
			if id == res.ID {
				return true
			}
		}
		for _, id := range h.Scope.MatterIDs {
			if id == res.ParentMatterID {
				return true
			}
		}
	}
	return false
}

// ClockFrom selects which timestamp starts a policy's retention clock.
type ClockFrom string

const (
	ClockFromMatterClosed ClockFrom = "matter_closed"
	ClockFromCreated      ClockFrom = "created"
)

// PolicyAction is what the sweep does once a clock elapses.
type PolicyAction string

const (
	ActionDelete  PolicyAction = "delete"
	ActionArchive PolicyAction = "archive"
	ActionReview  PolicyAction = "review"
	ActionNotify  PolicyAction = "notify"
)

func ValidPolicyAction(a PolicyAction) bool {
	switch a {
	case ActionDelete, ActionArchive, ActionReview, ActionNotify:
		return true
	}
	return false
}

// Policy drives the scheduled sweep for one resource class.
type Policy struct {
	ID            string        `json:"id"`
	FirmID        string        `json:"firm_id"`
	ResourceClass resource.Type `json:"resource_class"`
	Period        time.Duration `json:"period"`
	ClockFrom     ClockFrom     `json:"clock_from"`
	Action        PolicyAction  `json:"action"`
}

// ClockStart returns the timestamp the policy's period counts from, or false
// if the resource has no such anchor yet (an open matter under a
// matter_closed policy has no clock).
func (p Policy) ClockStart(res resource.Classified) (time.Time, bool) {
	switch p.ClockFrom {
	case ClockFromMatterClosed:
		if res.MatterClosedAt == nil {
			return time.Time{}, false
		}
		return *res.MatterClosedAt, true
	case ClockFromCreated:
		return res.CreatedAt, true
	}
	return time.Time{}, false
}

// Elapsed reports whether the policy's period has run out for the resource.
func (p Policy) Elapsed(res resource.Classified, now time.Time) bool {
	start, ok := p.ClockStart(res)
	if !ok {
		return false
	}
	return !now.Before(start.Add(p.Period))
}
