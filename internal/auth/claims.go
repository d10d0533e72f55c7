package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: FirmID must be present for all activity.
// The claims carry the full principal context the decision engine needs;
// server-side state is consulted only for clearance mutations, never for
// reads of the principal's own identity.
type Claims struct {
	jwt.RegisteredClaims

	UserID         string    `json:"user_id"`
	FirmID         string    `json:"firm_id"`
	Roles          []string  `json:"roles"`
	ClearanceLevel int       `json:"clearance_level"`
	Teams          []string  `json:"teams,omitempty"`
	TokenType      TokenType `json:"token_type"`
}

// Principal is the authenticated identity handed to the decision engine.
// It is immutable for the duration of a request; clearance level changes
// only through the audited administrative mutation in internal/clearance.
type Principal struct {
	UserID         string   `json:"user_id"`
	FirmID         string   `json:"firm_id"`
	Roles          []string `json:"roles"`
	ClearanceLevel int      `json:"clearance_level"`
	Teams          []string `json:"teams,omitempty"`
}

func (c Claims) Principal() Principal {
	return Principal{
		UserID:         c.UserID,
		FirmID:         c.FirmID,
		Roles:          c.Roles,
		ClearanceLevel: c.ClearanceLevel,
		Teams:          c.Teams,
	}
}
