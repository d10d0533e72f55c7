package sharing

import (
	"context"
	"errors"
	"testing"

	"casevault-platform/internal/audit"
	"casevault-platform/internal/rbac"
)

func newTestService() (*Service, *MemoryRepo, *audit.MemoryRepo) {
	repo := NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	return NewService(repo, audit.NewService(auditRepo)), repo, auditRepo
}

func TestCreateStartsPending(t *testing.T) {
	svc, _, auditRepo := newTestService()

	g, err := svc.Create(context.Background(), Grant{
		MatterID:     "m1",
		SourceFirmID: "firm-a",
		TargetFirmID: "firm-b",
		Role:         ShareRoleViewer,
		Permissions:  rbac.NewPermissionSet(rbac.PermRead),
		CreatedBy:    "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Status != StatusPending {
		t.Fatalf("expected pending, got %q", g.Status)
	}
	if g.ID == "" {
		t.Fatalf("expected id assigned")
	}
	if len(auditRepo.Events()) != 1 {
		t.Fatalf("expected creation audited")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	svc, _, _ := newTestService()

	g, err := svc.Create(context.Background(), Grant{
		MatterID: "m1", SourceFirmID: "firm-a", TargetFirmID: "firm-b",
		Role: ShareRoleEditor, Permissions: rbac.NewPermissionSet(rbac.PermRead), CreatedBy: "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	g, err = svc.Activate(context.Background(), g.ID, "partner-admin")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if g.Status != StatusActive {
		t.Fatalf("expected active, got %q", g.Status)
	}

	// Active grants cannot be declined.
	if _, err := svc.Decline(context.Background(), g.ID, "partner-admin"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	g, err = svc.Revoke(context.Background(), g.ID, "u1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if g.Status != StatusRevoked {
		t.Fatalf("expected revoked, got %q", g.Status)
	}

	// Revoked grants are terminal.
	if _, err := svc.Activate(context.Background(), g.ID, "partner-admin"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc, _, _ := newTestService()

	// Self-share.
	_, err := svc.Create(context.Background(), Grant{
		MatterID: "m1", SourceFirmID: "firm-a", TargetFirmID: "firm-a",
		Role: ShareRoleViewer, Permissions: rbac.NewPermissionSet(rbac.PermRead), CreatedBy: "u1",
	})
	if err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for self-share, got %v", err)
	}

	// Unknown role.
	_, err = svc.Create(context.Background(), Grant{
		MatterID: "m1", SourceFirmID: "firm-a", TargetFirmID: "firm-b",
		Role: ShareRole("owner"), Permissions: rbac.NewPermissionSet(rbac.PermRead), CreatedBy: "u1",
	})
	if err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown role, got %v", err)
	}
}
