package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - firm_id is required for tenancy isolation.
// - Every decision-engine verdict and every lifecycle mutation (clearance,
//   hold, share, sweep) lands here exactly once.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time; partitions covered by a legal hold must be
//   excluded from partition drops.

type Event struct {
	ID     string `json:"id" db:"id"`
	FirmID string `json:"firm_id" db:"firm_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated principal causing the event.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	// ActorRoles is the actor's role set, comma-joined for storage.
	ActorRoles string `json:"actor_roles,omitempty" db:"actor_roles"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Action is the requested operation (read, delete, set_clearance, ...).
	Action string `json:"action,omitempty" db:"action"`

	// Target resource identifiers (optional, depending on the event type).
	ResourceType string `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID   string `json:"resource_id,omitempty" db:"resource_id"`

	// Outcome is allow or deny. Lifecycle mutations that succeed record
	// allow; refused mutations record deny with the refusing reason code.
	Outcome Outcome `json:"outcome,omitempty" db:"outcome"`

	// ReasonCode explains a deny (or a skipped sweep transition).
	ReasonCode string `json:"reason_code,omitempty" db:"reason_code"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details (old/new clearance values,
	// hold ids, grant ids, restriction flags).
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeDecision        EventType = "access_decision"
	EventTypeClearanceChange EventType = "clearance_change"
	EventTypeHoldLifecycle   EventType = "hold_lifecycle"
	EventTypeShareLifecycle  EventType = "share_lifecycle"
	EventTypeRetentionSweep  EventType = "retention_sweep"
)

type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeDeny  Outcome = "deny"
)
