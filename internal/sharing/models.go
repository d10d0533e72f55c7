package sharing

import (
	"sort"
	"time"

	"casevault-platform/internal/rbac"
)

// ShareRole is the closed set of roles a partner firm can be granted on a
// shared matter. The role fixes the permission ceiling; the grant's declared
// permission subset can only narrow it.
type ShareRole string

const (
	ShareRoleViewer       ShareRole = "viewer"
	ShareRoleEditor       ShareRole = "editor"
	ShareRoleCollaborator ShareRole = "collaborator"
	ShareRolePartnerLead  ShareRole = "partner_lead"
)

func ValidShareRole(r ShareRole) bool {
	switch r {
	case ShareRoleViewer, ShareRoleEditor, ShareRoleCollaborator, ShareRolePartnerLead:
		return true
	default:
		return false
	}
}

// RoleCeiling returns the maximum permission set a share role can convey.
// view_financial_data appears only under partner_lead; this is a hard rule,
// not configurable per grant.
func RoleCeiling(r ShareRole) rbac.PermissionSet {
	switch r {
	case ShareRoleViewer:
		return rbac.NewPermissionSet(rbac.PermRead)
	case ShareRoleEditor:
		return rbac.NewPermissionSet(rbac.PermRead, rbac.PermWrite)
	case ShareRoleCollaborator:
		return rbac.NewPermissionSet(rbac.PermRead, rbac.PermWrite, rbac.PermDownload)
	case ShareRolePartnerLead:
		return rbac.NewPermissionSet(rbac.PermRead, rbac.PermWrite, rbac.PermDownload, rbac.PermShare, rbac.PermViewFinancialData)
	default:
		return rbac.NewPermissionSet()
	}
}

// Restriction is an advisory constraint attached to cross-firm access. The
// engine surfaces restrictions; enforcement (watermarking, print/copy
// blocking, IP checks, 2FA step-up) belongs to the consuming layers.
type Restriction string

const (
	RestrictionWatermark   Restriction = "watermark"
	RestrictionNoPrint     Restriction = "no_print"
	RestrictionNoCopy      Restriction = "no_copy"
	RestrictionIPAllowlist Restriction = "ip_allowlist"
	Restriction2FARequired Restriction = "2fa_required"
)

func ValidRestriction(r Restriction) bool {
	switch r {
	case RestrictionWatermark, RestrictionNoPrint, RestrictionNoCopy, RestrictionIPAllowlist, Restriction2FARequired:
		return true
	default:
		return false
	}
}

// ParseRestrictions builds a restriction list from raw strings, dropping
// unknown flags, in stable order.
func ParseRestrictions(raw []string) []Restriction {
	seen := make(map[Restriction]struct{}, len(raw))
	for _, s := range raw {
		r := Restriction(s)
		if ValidRestriction(r) {
			seen[r] = struct{}{}
		}
	}
	out := make([]Restriction, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusDeclined Status = "declined"
	StatusRevoked  Status = "revoked"
	StatusExpired  Status = "expired"
)

// Grant is a cross-firm, role-scoped, time-bounded, restriction-bearing
// authorization covering a matter and its documents.
//
// A grant authorizes *all* principals of the target firm who hold at least
// one role with cross-firm capability, not a single user.
type Grant struct {
	ID string `json:"id" db:"id"`

	MatterID     string `json:"matter_id" db:"matter_id"`
	SourceFirmID string `json:"source_firm_id" db:"source_firm_id"`
	TargetFirmID string `json:"target_firm_id" db:"target_firm_id"`

	Role ShareRole `json:"role" db:"role"`

	// Permissions is the declared subset; the effective set is the
	// intersection with RoleCeiling(Role).
	Permissions rbac.PermissionSet `json:"permissions" db:"permissions"`

	Restrictions []Restriction `json:"restrictions,omitempty" db:"restrictions"`

	Status    Status     `json:"status" db:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`

	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Usable reports whether the grant conveys access at the given instant:
// status active and not past expiry. Expiry is evaluated at decision time;
// nothing rewrites the status to expired in the background.
func (g Grant) Usable(now time.Time) bool {
	if g.Status != StatusActive {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}
