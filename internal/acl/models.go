package acl

import (
	"time"

	"casevault-platform/internal/rbac"
	"casevault-platform/internal/resource"
)

// PrincipalType says what kind of subject an entry targets. Team entries
// match any member of the team; membership comes from the authenticated
// principal context, never from storage lookups here.
type PrincipalType string

const (
	PrincipalUser PrincipalType = "user"
	PrincipalTeam PrincipalType = "team"
)

func ValidPrincipalType(t PrincipalType) bool {
	return t == PrincipalUser || t == PrincipalTeam
}

// Entry is one explicit, additive permission grant from a resource to a
// principal.
//
// Invariants:
// - Entries are additive only. There is no deny/revoke entry type;
//   revocation is removal of the grant record by an administrative action.
// - Expired entries are treated as absent at evaluation time, not deleted;
//   removal is a separate administrative action so history stays available
//   for audit.
type Entry struct {
	ID string `json:"id" db:"id"`

	ResourceType resource.Type `json:"resource_type" db:"resource_type"`
	ResourceID   string        `json:"resource_id" db:"resource_id"`

	PrincipalType PrincipalType `json:"principal_type" db:"principal_type"`
	PrincipalID   string        `json:"principal_id" db:"principal_id"`

	Permissions rbac.PermissionSet `json:"permissions" db:"permissions"`

	GrantedBy string     `json:"granted_by" db:"granted_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Live reports whether the entry contributes permissions at the given
// instant. All expiry comparisons within one decision use the same now.
func (e Entry) Live(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}
