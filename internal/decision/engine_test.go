package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"casevault-platform/internal/acl"
	"casevault-platform/internal/audit"
	"casevault-platform/internal/auth"
	"casevault-platform/internal/rbac"
	"casevault-platform/internal/resource"
	"casevault-platform/internal/sharing"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// stubHolds answers hold checks from a fixed set of held resource ids.
type stubHolds struct {
	held map[string]bool
	err  error
}

func (s stubHolds) IsOnHold(ctx context.Context, res resource.Classified, now time.Time) (bool, error) {
	return s.held[res.ID], s.err
}

// slowHolds blocks until its context expires.
type slowHolds struct{}

func (slowHolds) IsOnHold(ctx context.Context, res resource.Classified, now time.Time) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

type failingAuditRepo struct{}

func (failingAuditRepo) Append(ctx context.Context, e audit.Event) error {
	return errors.New("audit store down")
}

type fixture struct {
	engine    *Engine
	resources *resource.MemoryRepo
	acls      *acl.MemoryRepo
	shares    *sharing.MemoryRepo
	auditRepo *audit.MemoryRepo
}

func newFixture(holds HoldChecker) *fixture {
	resources := resource.NewMemoryRepo()
	acls := acl.NewMemoryRepo()
	shares := sharing.NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()

	engine := NewEngine(
		resource.NewResolver(resources),
		acl.NewStore(acls),
		sharing.NewEvaluator(shares),
		holds,
		NewAuditSink(audit.NewService(auditRepo)),
	)
	return &fixture{engine: engine, resources: resources, acls: acls, shares: shares, auditRepo: auditRepo}
}

func (f *fixture) putMatter(id, firmID string, classification int) {
	f.resources.PutMatter(resource.Matter{
		ID: id, FirmID: firmID, Name: "matter " + id, Classification: classification,
		Status: resource.MatterStatusOpen, CreatedAt: testNow.Add(-time.Hour),
	})
}

func decide(t *testing.T, f *fixture, p auth.Principal, id string, action Action) Decision {
	t.Helper()
	d, err := f.engine.Decide(context.Background(), p, resource.TypeMatter, id, action, testNow)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	return d
}

func TestDecideInsufficientClearance(t *testing.T) {
	f := newFixture(stubHolds{})
	f.putMatter("m1", "firm-a", 4)
	p := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleAssociate}, ClearanceLevel: 3}

	d := decide(t, f, p, "m1", ActionRead)
	if d.Allow || d.ReasonCode != ReasonInsufficientClearance {
		t.Fatalf("expected deny insufficient_clearance, got %+v", d)
	}
}

func TestDecideSameFirmACLGrantAllows(t *testing.T) {
	f := newFixture(stubHolds{})
	f.putMatter("m1", "firm-a", 3)
	// billing_clerk has no base read on matters of this kind beyond read
	// itself; use a role with no write and grant write via ACL instead.
	p := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleBillingClerk}, ClearanceLevel: 5}
	if err := f.acls.Append(context.Background(), acl.Entry{
		ID: "e1", ResourceType: resource.TypeMatter, ResourceID: "m1", PrincipalType: acl.PrincipalUser, PrincipalID: "u1",
		Permissions: rbac.NewPermissionSet(rbac.PermWrite), GrantedBy: "admin", CreatedAt: testNow,
	}); err != nil {
		t.Fatalf("append acl: %v", err)
	}

	if d := decide(t, f, p, "m1", ActionRead); !d.Allow {
		t.Fatalf("expected role-based read allow, got %+v", d)
	}
	if d := decide(t, f, p, "m1", ActionWrite); !d.Allow {
		t.Fatalf("expected acl-based write allow, got %+v", d)
	}
	if d := decide(t, f, p, "m1", ActionShare); d.Allow || d.ReasonCode != ReasonInsufficientPermission {
		t.Fatalf("expected deny insufficient_permission, got %+v", d)
	}
}

func TestDecideClearanceGateIgnoresACL(t *testing.T) {
	f := newFixture(stubHolds{})
	f.putMatter("m1", "firm-a", 8)
	p := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleAssociate}, ClearanceLevel: 4}
	if err := f.acls.Append(context.Background(), acl.Entry{
		ID: "e1", ResourceType: resource.TypeMatter, ResourceID: "m1", PrincipalType: acl.PrincipalUser, PrincipalID: "u1",
		Permissions: rbac.NewPermissionSet(rbac.PermRead, rbac.PermWrite, rbac.PermDelete),
		GrantedBy:   "admin", CreatedAt: testNow,
	}); err != nil {
		t.Fatalf("append acl: %v", err)
	}

	d := decide(t, f, p, "m1", ActionRead)
	if d.Allow || d.ReasonCode != ReasonInsufficientClearance {
		t.Fatalf("expected clearance gate to hold against acl grant, got %+v", d)
	}
}

func TestDecideHoldBeatsMaximalAuthority(t *testing.T) {
	f := newFixture(stubHolds{held: map[string]bool{"m1": true}})
	f.putMatter("m1", "firm-a", 1)
	admin := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleFirmAdmin}, ClearanceLevel: 10}
	if err := f.acls.Append(context.Background(), acl.Entry{
		ID: "e1", ResourceType: resource.TypeMatter, ResourceID: "m1", PrincipalType: acl.PrincipalUser, PrincipalID: "u1",
		Permissions: rbac.NewPermissionSet(rbac.PermDelete), GrantedBy: "admin", CreatedAt: testNow,
	}); err != nil {
		t.Fatalf("append acl: %v", err)
	}

	for _, a := range []Action{ActionDelete, ActionPurge, ActionReclassify} {
		if d := decide(t, f, admin, "m1", a); d.Allow || d.ReasonCode != ReasonResourceOnHold {
			t.Fatalf("expected %s denied resource_on_hold, got %+v", a, d)
		}
	}
	// Non-destructive access is untouched by the hold.
	if d := decide(t, f, admin, "m1", ActionRead); !d.Allow {
		t.Fatalf("expected read allowed on held resource, got %+v", d)
	}
}

func TestDecideCrossFirmShare(t *testing.T) {
	f := newFixture(stubHolds{})
	f.putMatter("m1", "firm-a", 9)
	external := auth.Principal{UserID: "x1", FirmID: "firm-b", Roles: []string{rbac.RoleExternalPartner}, ClearanceLevel: 0}

	// Misconfigured viewer grant claiming download.
	if err := f.shares.Append(context.Background(), sharing.Grant{
		ID: "g1", MatterID: "m1", SourceFirmID: "firm-a", TargetFirmID: "firm-b",
		Role:         sharing.ShareRoleViewer,
		Permissions:  rbac.NewPermissionSet(rbac.PermRead, rbac.PermDownload),
		Restrictions: []sharing.Restriction{sharing.RestrictionWatermark},
		Status:       sharing.StatusActive, CreatedBy: "u1", CreatedAt: testNow,
	}); err != nil {
		t.Fatalf("append share: %v", err)
	}

	// Classification 9 does not apply cross-firm; the share decides.
	d := decide(t, f, external, "m1", ActionRead)
	if !d.Allow {
		t.Fatalf("expected cross-firm read allow, got %+v", d)
	}
	if len(d.Restrictions) != 1 || d.Restrictions[0] != string(sharing.RestrictionWatermark) {
		t.Fatalf("expected watermark restriction surfaced, got %+v", d.Restrictions)
	}

	// The viewer ceiling strips download even though the grant lists it.
	d = decide(t, f, external, "m1", ActionWrite)
	if d.Allow || d.ReasonCode != ReasonNoGrant {
		t.Fatalf("expected ceiling denial no_grant, got %+v", d)
	}
}

func TestDecideExpiredShareDenies(t *testing.T) {
	f := newFixture(stubHolds{})
	f.putMatter("m1", "firm-a", 2)
	external := auth.Principal{UserID: "x1", FirmID: "firm-b", Roles: []string{rbac.RoleExternalPartner}, ClearanceLevel: 0}
	expired := testNow.Add(-time.Hour)
	if err := f.shares.Append(context.Background(), sharing.Grant{
		ID: "g1", MatterID: "m1", SourceFirmID: "firm-a", TargetFirmID: "firm-b",
		Role: sharing.ShareRoleViewer, Permissions: rbac.NewPermissionSet(rbac.PermRead),
		Status: sharing.StatusActive, ExpiresAt: &expired, CreatedBy: "u1", CreatedAt: testNow.Add(-2 * time.Hour),
	}); err != nil {
		t.Fatalf("append share: %v", err)
	}

	d := decide(t, f, external, "m1", ActionRead)
	if d.Allow || d.ReasonCode != ReasonGrantExpiredOrInactive {
		t.Fatalf("expected grant_expired_or_inactive, got %+v", d)
	}
}

func TestDecideDefaultDeny(t *testing.T) {
	f := newFixture(stubHolds{})
	f.putMatter("m1", "firm-a", 2)

	// Cross-firm with no grant at all.
	external := auth.Principal{UserID: "x1", FirmID: "firm-b", Roles: []string{rbac.RoleExternalPartner}, ClearanceLevel: 0}
	if d := decide(t, f, external, "m1", ActionRead); d.Allow || d.ReasonCode != ReasonNoGrant {
		t.Fatalf("expected no_grant, got %+v", d)
	}

	// Unknown resource looks identical to a denial.
	p := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleFirmAdmin}, ClearanceLevel: 10}
	if d := decide(t, f, p, "missing", ActionRead); d.Allow || d.ReasonCode != ReasonNoGrant {
		t.Fatalf("expected no_grant for missing resource, got %+v", d)
	}
}

func TestDecideIdempotentButDoublyAudited(t *testing.T) {
	f := newFixture(stubHolds{})
	f.putMatter("m1", "firm-a", 3)
	p := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleAssociate}, ClearanceLevel: 5}

	d1 := decide(t, f, p, "m1", ActionRead)
	d2 := decide(t, f, p, "m1", ActionRead)
	if d1.Allow != d2.Allow || d1.ReasonCode != d2.ReasonCode {
		t.Fatalf("expected identical decisions, got %+v vs %+v", d1, d2)
	}
	if got := len(f.auditRepo.Events()); got != 2 {
		t.Fatalf("expected 2 audit entries, got %d", got)
	}
}

func TestDecideEveryCallAudited(t *testing.T) {
	f := newFixture(stubHolds{held: map[string]bool{"m2": true}})
	f.putMatter("m1", "firm-a", 3)
	f.putMatter("m2", "firm-a", 3)
	p := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RolePartner}, ClearanceLevel: 8}

	decide(t, f, p, "m1", ActionRead)        // allow
	decide(t, f, p, "m1", ActionReclassify)  // deny insufficient_permission
	decide(t, f, p, "m2", ActionDelete)      // deny resource_on_hold
	decide(t, f, p, "missing", ActionRead)   // deny no_grant

	events := f.auditRepo.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 audit entries, got %d", len(events))
	}
	for _, e := range events {
		if e.Type != audit.EventTypeDecision || e.FirmID != "firm-a" {
			t.Fatalf("unexpected audit entry %+v", e)
		}
	}
}

func TestDecideAuditFailureFailsClosed(t *testing.T) {
	resources := resource.NewMemoryRepo()
	resources.PutMatter(resource.Matter{
		ID: "m1", FirmID: "firm-a", Name: "x", Classification: 1,
		Status: resource.MatterStatusOpen, CreatedAt: testNow,
	})
	engine := NewEngine(
		resource.NewResolver(resources),
		acl.NewStore(acl.NewMemoryRepo()),
		sharing.NewEvaluator(sharing.NewMemoryRepo()),
		stubHolds{},
		NewAuditSink(audit.NewService(failingAuditRepo{})),
	)
	admin := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleFirmAdmin}, ClearanceLevel: 10}

	d, err := engine.Decide(context.Background(), admin, resource.TypeMatter, "m1", ActionRead, testNow)
	if !errors.Is(err, ErrAuditUnavailable) {
		t.Fatalf("expected ErrAuditUnavailable, got %v", err)
	}
	if d.Allow || d.ReasonCode != ReasonAuditUnavailable {
		t.Fatalf("expected fail-closed denial, got %+v", d)
	}
}

func TestDecideDependencyTimeoutDenies(t *testing.T) {
	f := newFixture(slowHolds{})
	f.putMatter("m1", "firm-a", 1)
	f.engine.Timeout = 20 * time.Millisecond
	admin := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleFirmAdmin}, ClearanceLevel: 10}

	d, err := f.engine.Decide(context.Background(), admin, resource.TypeMatter, "m1", ActionDelete, testNow)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if d.Allow {
		t.Fatalf("expected denial on dependency timeout, got %+v", d)
	}
}
