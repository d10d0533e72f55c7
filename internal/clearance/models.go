package clearance

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("principal not found")

	// ErrConflict means the clearance level changed under us between read and
	// write. Callers should re-read and retry the mutation if still wanted.
	ErrConflict = errors.New("clearance level changed concurrently")

	ErrNotDominant     = errors.New("actor does not dominate target")
	ErrOutOfRange      = errors.New("clearance level outside role-implied range")
	ErrInvalidArgument = errors.New("invalid clearance request")
)

// Machine-readable failure codes surfaced in bulk results and audit metadata.
const (
	ReasonInsufficientPermission = "insufficient_permission"
	ReasonOutOfRange             = "out_of_range"
	ReasonNotFound               = "not_found"
	ReasonConflict               = "conflict"
	ReasonInvalidArgument        = "invalid_argument"
)

// PrincipalRecord is the server-side source of truth for a principal's
// clearance. Tokens carry a snapshot of it; mutations go through the
// audited administrative path only.
type PrincipalRecord struct {
	ID             string    `json:"id"`
	FirmID         string    `json:"firm_id"`
	Roles          []string  `json:"roles"`
	ClearanceLevel int       `json:"clearance_level"`
	Teams          []string  `json:"teams,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Result reports the outcome of one principal's mutation inside a bulk
// request. Bulk mutations are per-principal independent: one failure never
// rolls back the others.
type Result struct {
	PrincipalID    string `json:"principal_id"`
	Updated        bool   `json:"updated"`
	ClearanceLevel int    `json:"clearance_level,omitempty"`
	ReasonCode     string `json:"reason_code,omitempty"`
}
