package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"casevault-platform/internal/audit"
	"casevault-platform/internal/resource"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func matterRes(id, firmID, name string) resource.Classified {
	return resource.Classified{Type: resource.TypeMatter, ID: id, FirmID: firmID, Name: name}
}

func docRes(id, matterID, firmID, name string) resource.Classified {
	return resource.Classified{Type: resource.TypeDocument, ID: id, FirmID: firmID, Name: name, ParentMatterID: matterID}
}

func newHoldService() (*Service, *MemoryHoldRepo, *MemoryPolicyRepo) {
	holds := NewMemoryHoldRepo()
	policies := NewMemoryPolicyRepo()
	svc := NewService(holds, policies, audit.NewService(audit.NewMemoryRepo()))
	svc.clock = func() time.Time { return testNow }
	return svc, holds, policies
}

func TestHoldCoversDirectAndParentMatter(t *testing.T) {
	svc, _, _ := newHoldService()
	_, err := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", Reason: "litigation", CreatedBy: "co-1",
		Scope: Scope{MatterIDs: []string{"m1"}},
	})
	if err != nil {
		t.Fatalf("create hold: %v", err)
	}

	cases := []struct {
		name string
		res  resource.Classified
		want bool
	}{
		{"matter listed", matterRes("m1", "firm-a", "Acme v Zenith"), true},
		{"document under listed matter", docRes("d1", "m1", "firm-a", "deposition"), true},
		{"unrelated matter", matterRes("m2", "firm-a", "other"), false},
		{"document under other matter", docRes("d2", "m2", "firm-a", "memo"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			held, err := svc.IsOnHold(context.Background(), tc.res, testNow)
			if err != nil {
				t.Fatalf("IsOnHold: %v", err)
			}
			if held != tc.want {
				t.Fatalf("expected held=%v", tc.want)
			}
		})
	}
}

func TestCriterionHoldCoversLateMatches(t *testing.T) {
	svc, _, _ := newHoldService()
	_, err := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", Reason: "regulatory inquiry", CreatedBy: "co-1",
		Scope: Scope{Criterion: Criterion{FirmID: "firm-a", NameContains: "zenith"}},
	})
	if err != nil {
		t.Fatalf("create hold: %v", err)
	}

	// A document created after the hold was filed still matches.
	held, err := svc.IsOnHold(context.Background(), docRes("d-new", "m9", "firm-a", "Zenith settlement draft"), testNow)
	if err != nil {
		t.Fatalf("IsOnHold: %v", err)
	}
	if !held {
		t.Fatalf("expected criterion hold to cover new resource")
	}

	held, err = svc.IsOnHold(context.Background(), docRes("d-other", "m9", "firm-a", "unrelated"), testNow)
	if err != nil {
		t.Fatalf("IsOnHold: %v", err)
	}
	if held {
		t.Fatalf("expected non-matching resource uncovered")
	}
}

func TestReleasedAndExpiredHoldsStopCovering(t *testing.T) {
	svc, _, _ := newHoldService()

	h, err := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", Reason: "litigation", CreatedBy: "co-1",
		Scope: Scope{MatterIDs: []string{"m1"}},
	})
	if err != nil {
		t.Fatalf("create hold: %v", err)
	}
	expiry := testNow.Add(-time.Hour)
	if _, err := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", Reason: "old inquiry", CreatedBy: "co-1",
		Scope: Scope{MatterIDs: []string{"m2"}}, ExpiresAt: &expiry,
	}); err != nil {
		t.Fatalf("create expired hold: %v", err)
	}

	if _, err := svc.ReleaseHold(context.Background(), h.ID, "co-1"); err != nil {
		t.Fatalf("release: %v", err)
	}

	for _, id := range []string{"m1", "m2"} {
		held, err := svc.IsOnHold(context.Background(), matterRes(id, "firm-a", "x"), testNow)
		if err != nil {
			t.Fatalf("IsOnHold: %v", err)
		}
		if held {
			t.Fatalf("expected %s uncovered", id)
		}
	}
}

func TestMultipleHoldsAllMustRelease(t *testing.T) {
	svc, _, _ := newHoldService()
	res := matterRes("m1", "firm-a", "x")

	h1, _ := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", Reason: "a", CreatedBy: "co-1", Scope: Scope{MatterIDs: []string{"m1"}},
	})
	h2, _ := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", Reason: "b", CreatedBy: "co-1", Scope: Scope{MatterIDs: []string{"m1"}},
	})

	if _, err := svc.ReleaseHold(context.Background(), h1.ID, "co-1"); err != nil {
		t.Fatalf("release h1: %v", err)
	}
	held, _ := svc.IsOnHold(context.Background(), res, testNow)
	if !held {
		t.Fatalf("expected still held while h2 active")
	}

	if _, err := svc.ReleaseHold(context.Background(), h2.ID, "co-1"); err != nil {
		t.Fatalf("release h2: %v", err)
	}
	held, _ = svc.IsOnHold(context.Background(), res, testNow)
	if held {
		t.Fatalf("expected released after last hold")
	}
}

func TestStateOfHoldWinsOverRetention(t *testing.T) {
	svc, _, policies := newHoldService()

	closed := testNow.Add(-48 * time.Hour)
	res := resource.Classified{
		Type: resource.TypeMatter, ID: "m1", FirmID: "firm-a", Name: "x",
		CreatedAt: testNow.Add(-96 * time.Hour), MatterClosedAt: &closed,
	}
	if err := policies.PutPolicy(context.Background(), Policy{
		ID: "pol-1", FirmID: "firm-a", ResourceClass: resource.TypeMatter,
		Period: 24 * time.Hour, ClockFrom: ClockFromMatterClosed, Action: ActionDelete,
	}); err != nil {
		t.Fatalf("put policy: %v", err)
	}

	state, err := svc.StateOf(context.Background(), res, testNow)
	if err != nil {
		t.Fatalf("StateOf: %v", err)
	}
	if state != StateRetentionPending {
		t.Fatalf("expected retention_pending, got %q", state)
	}

	if _, err := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", Reason: "litigation", CreatedBy: "co-1", Scope: Scope{MatterIDs: []string{"m1"}},
	}); err != nil {
		t.Fatalf("create hold: %v", err)
	}
	state, err = svc.StateOf(context.Background(), res, testNow)
	if err != nil {
		t.Fatalf("StateOf: %v", err)
	}
	if state != StateOnHold {
		t.Fatalf("expected on_hold to win, got %q", state)
	}
}

func TestCreateHoldValidation(t *testing.T) {
	svc, _, _ := newHoldService()

	if _, err := svc.CreateHold(context.Background(), Hold{FirmID: "firm-a", Reason: "x", CreatedBy: "u1"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected empty-scope rejection, got %v", err)
	}
	if _, err := svc.CreateHold(context.Background(), Hold{
		FirmID: "firm-a", CreatedBy: "u1", Scope: Scope{MatterIDs: []string{"m1"}},
	}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected missing-reason rejection, got %v", err)
	}
}
