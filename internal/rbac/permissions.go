package rbac

import "sort"

// Permission is a closed capability flag. Adding a flag is a code change,
// never runtime configuration.
type Permission string

const (
	PermRead              Permission = "read"
	PermWrite             Permission = "write"
	PermDelete            Permission = "delete"
	PermShare             Permission = "share"
	PermDownload          Permission = "download"
	PermPrint             Permission = "print"
	PermManageACL         Permission = "manage_acl"
	PermViewFinancialData Permission = "view_financial_data"
)

// ValidPermission reports whether p is one of the closed capability flags.
func ValidPermission(p Permission) bool {
	switch p {
	case PermRead, PermWrite, PermDelete, PermShare, PermDownload, PermPrint, PermManageACL, PermViewFinancialData:
		return true
	default:
		return false
	}
}

// PermissionSet is a set of capability flags with set-union/intersection
// operations. Grants are combined by union only; there is no subtractive
// (deny) entry.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// ParsePermissions builds a set from raw strings, dropping unknown flags.
// Persistence and transport layers deal in strings; everything internal
// deals in the closed enumeration.
func ParsePermissions(raw []string) PermissionSet {
	s := make(PermissionSet, len(raw))
	for _, r := range raw {
		p := Permission(r)
		if ValidPermission(p) {
			s[p] = struct{}{}
		}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) IsEmpty() bool { return len(s) == 0 }

// Union returns a new set; neither receiver nor argument is mutated.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	out := make(PermissionSet, len(s)+len(other))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Intersect returns a new set containing flags present in both sets.
func (s PermissionSet) Intersect(other PermissionSet) PermissionSet {
	out := make(PermissionSet)
	for p := range s {
		if other.Has(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Strings returns the flags in stable order, for JSON responses and audit
// metadata.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
