package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"casevault-platform/internal/acl"
	"casevault-platform/internal/audit"
	"casevault-platform/internal/auth"
	"casevault-platform/internal/clearance"
	"casevault-platform/internal/decision"
	"casevault-platform/internal/rbac"
	"casevault-platform/internal/resource"
	"casevault-platform/internal/retention"
	"casevault-platform/internal/sharing"

	"github.com/gin-gonic/gin"
)

// asPrincipal injects an authenticated principal the way the JWT middleware
// would, without minting tokens in every test.
func asPrincipal(p auth.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, Handlers, *resource.MemoryRepo, *clearance.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resources := resource.NewMemoryRepo()
	auditSvc := audit.NewService(audit.NewMemoryRepo())
	clearanceRepo := clearance.NewMemoryRepo()
	holdSvc := retention.NewService(retention.NewMemoryHoldRepo(), retention.NewMemoryPolicyRepo(), auditSvc)

	h := Handlers{
		Engine: decision.NewEngine(
			resource.NewResolver(resources),
			acl.NewStore(acl.NewMemoryRepo()),
			sharing.NewEvaluator(sharing.NewMemoryRepo()),
			holdSvc,
			decision.NewAuditSink(auditSvc),
		),
		Clearance: clearance.NewService(clearanceRepo, auditSvc),
		Holds:     holdSvc,
		Shares:    sharing.NewService(sharing.NewMemoryRepo(), auditSvc),
	}
	return gin.New(), h, resources, clearanceRepo
}

func TestDecideEndpointStatusMapping(t *testing.T) {
	r, h, resources, _ := newTestRouter(t)
	resources.PutMatter(resource.Matter{
		ID: "m1", FirmID: "firm-a", Name: "x", Classification: 6,
		Status: resource.MatterStatusOpen, CreatedAt: time.Now(),
	})
	partner := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RolePartner}, ClearanceLevel: 8}
	r.POST("/v1/decisions", asPrincipal(partner), h.Decide)

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantAllow  bool
		wantReason string
	}{
		{"allow", `{"resource_type":"matter","resource_id":"m1","action":"read"}`, http.StatusOK, true, ""},
		{"denied permission", `{"resource_type":"matter","resource_id":"m1","action":"reclassify"}`, http.StatusForbidden, false, decision.ReasonInsufficientPermission},
		{"missing resource hides as 404", `{"resource_type":"matter","resource_id":"ghost","action":"read"}`, http.StatusNotFound, false, decision.ReasonNoGrant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/decisions", strings.NewReader(tc.body))
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, w.Code, w.Body.String())
			}
			var d decision.Decision
			if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if d.Allow != tc.wantAllow || d.ReasonCode != tc.wantReason {
				t.Fatalf("expected allow=%v reason=%q, got %+v", tc.wantAllow, tc.wantReason, d)
			}
		})
	}
}

func TestDecideEndpointRejectsBadInput(t *testing.T) {
	r, h, _, _ := newTestRouter(t)
	p := auth.Principal{UserID: "u1", FirmID: "firm-a", Roles: []string{rbac.RoleAssociate}, ClearanceLevel: 3}
	r.POST("/v1/decisions", asPrincipal(p), h.Decide)

	for _, body := range []string{
		`not json`,
		`{"resource_type":"invoice","resource_id":"m1","action":"read"}`,
		`{"resource_type":"matter","resource_id":"m1","action":"fly"}`,
		`{"resource_type":"matter","action":"read"}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/decisions", strings.NewReader(body))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, w.Code)
		}
	}
}

func TestBulkClearanceEndpointReportsPerPrincipal(t *testing.T) {
	r, h, _, clearanceRepo := newTestRouter(t)
	clearanceRepo.Put(clearance.PrincipalRecord{ID: "p1", FirmID: "firm-a", Roles: []string{rbac.RoleAssociate}, ClearanceLevel: 2})
	clearanceRepo.Put(clearance.PrincipalRecord{ID: "p2", FirmID: "firm-a", Roles: []string{rbac.RoleParalegal}, ClearanceLevel: 2})
	admin := auth.Principal{UserID: "admin", FirmID: "firm-a", Roles: []string{rbac.RoleComplianceOfficer}, ClearanceLevel: 9}
	r.POST("/v1/admin/principals/clearance", asPrincipal(admin), h.BulkSetClearance)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/principals/clearance",
		strings.NewReader(`{"principal_ids":["p1","p2"],"new_level":4,"reason":"staffing"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		Results []clearance.Result `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", resp.Results)
	}
	if !resp.Results[0].Updated || resp.Results[0].ClearanceLevel != 4 {
		t.Fatalf("expected p1 updated, got %+v", resp.Results[0])
	}
	// Paralegal band tops out at 3 and compliance_officer has no override.
	if resp.Results[1].Updated || resp.Results[1].ReasonCode != clearance.ReasonOutOfRange {
		t.Fatalf("expected p2 out_of_range, got %+v", resp.Results[1])
	}
}

func TestHoldEndpointsLifecycle(t *testing.T) {
	r, h, _, _ := newTestRouter(t)
	officer := auth.Principal{UserID: "co-1", FirmID: "firm-a", Roles: []string{rbac.RoleComplianceOfficer}, ClearanceLevel: 9}
	r.POST("/v1/holds", asPrincipal(officer), h.CreateHold)
	r.POST("/v1/holds/:hold_id/release", asPrincipal(officer), h.ReleaseHold)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/holds",
		strings.NewReader(`{"scope":{"matter_ids":["m1"]},"reason":"litigation"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created retention.Hold
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode hold: %v", err)
	}
	if created.FirmID != "firm-a" || created.CreatedBy != "co-1" {
		t.Fatalf("expected principal identity stamped, got %+v", created)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/holds/"+created.ID+"/release", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// Empty scope is rejected.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/holds", strings.NewReader(`{"reason":"x"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty scope, got %d", w.Code)
	}
}
