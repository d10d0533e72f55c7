package rbac

import "testing"

func TestResolve_UnionsRoleCapabilities(t *testing.T) {
	a := Resolve(4, []string{RoleAssociate, RoleBillingClerk})

	if !a.Capabilities.Has(PermRead) || !a.Capabilities.Has(PermWrite) {
		t.Fatalf("expected associate base permissions, got %v", a.Capabilities.Strings())
	}
	if !a.Capabilities.Has(PermViewFinancialData) {
		t.Fatalf("expected billing_clerk to contribute view_financial_data")
	}
	if a.HierarchyLevel != 60 {
		t.Fatalf("expected max hierarchy 60, got %d", a.HierarchyLevel)
	}
	// Band is the widest across the role set: associate 1..5, billing 1..2.
	if a.ClearanceMin != 1 || a.ClearanceMax != 5 {
		t.Fatalf("expected band [1,5], got [%d,%d]", a.ClearanceMin, a.ClearanceMax)
	}
}

func TestResolve_IgnoresUnknownRoles(t *testing.T) {
	a := Resolve(2, []string{"no_such_role", RoleParalegal})
	if a.HierarchyLevel != 40 {
		t.Fatalf("unknown roles must not contribute, got hierarchy %d", a.HierarchyLevel)
	}
	if a.Capabilities.Has(PermDelete) {
		t.Fatalf("paralegal must not have delete")
	}
}

func TestResolve_NoRecognizedRolesAdmitsNothing(t *testing.T) {
	a := Resolve(9, []string{"ghost"})
	if a.InClearanceRange(1) || a.InClearanceRange(0) {
		t.Fatalf("empty band must admit nothing")
	}
	if !a.Capabilities.IsEmpty() {
		t.Fatalf("expected no capabilities")
	}

	// external_partner's band is exactly [0,0]; the empty-band handling
	// must not swallow a legitimate level-0 range.
	ext := Resolve(0, []string{RoleExternalPartner})
	if !ext.InClearanceRange(0) || ext.InClearanceRange(1) {
		t.Fatalf("expected band [0,0], got [%d,%d]", ext.ClearanceMin, ext.ClearanceMax)
	}
}

func TestDominates(t *testing.T) {
	admin := Resolve(9, []string{RoleFirmAdmin})
	target := Resolve(4, []string{RoleAssociate})

	if !admin.Dominates(target, target.ClearanceLevel, 5) {
		t.Fatalf("admin should dominate associate for levels below 9")
	}
	if admin.Dominates(target, 9) {
		t.Fatalf("dominance must be strict on clearance")
	}

	peer := Resolve(8, []string{RoleAssociate})
	if peer.Dominates(target, 3) {
		t.Fatalf("equal hierarchy must not dominate")
	}
}

func TestPermissionSet_UnionIntersect(t *testing.T) {
	a := NewPermissionSet(PermRead, PermWrite)
	b := NewPermissionSet(PermWrite, PermDelete)

	u := a.Union(b)
	if !u.Has(PermRead) || !u.Has(PermWrite) || !u.Has(PermDelete) {
		t.Fatalf("union wrong: %v", u.Strings())
	}
	// Inputs untouched.
	if a.Has(PermDelete) || b.Has(PermRead) {
		t.Fatalf("union must not mutate inputs")
	}

	i := a.Intersect(b)
	if !i.Has(PermWrite) || i.Has(PermRead) || i.Has(PermDelete) {
		t.Fatalf("intersect wrong: %v", i.Strings())
	}
}

func TestParsePermissions_DropsUnknownFlags(t *testing.T) {
	s := ParsePermissions([]string{"read", "fly", "delete"})
	if !s.Has(PermRead) || !s.Has(PermDelete) {
		t.Fatalf("expected known flags kept: %v", s.Strings())
	}
	if len(s) != 2 {
		t.Fatalf("unknown flag must be dropped, got %v", s.Strings())
	}
}
