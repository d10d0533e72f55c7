package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"casevault-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWith(t *testing.T, p auth.Principal, mw ...gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	chain := []gin.HandlerFunc{func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}}
	chain = append(chain, mw...)
	chain = append(chain, func(c *gin.Context) { c.Status(200) })
	r.GET("/x", chain...)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_FirmAdminBypasses(t *testing.T) {
	p := auth.Principal{UserID: "u", FirmID: "f", Roles: []string{RoleFirmAdmin}}
	code := serveWith(t, p, RequireFirm(), RequireAnyRole(RolePartner))
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_ExternalPartnerDeniedUnlessAllowed(t *testing.T) {
	p := auth.Principal{UserID: "u", FirmID: "f", Roles: []string{RoleExternalPartner}}
	code := serveWith(t, p, RequireFirm(), RequireAnyRole(RolePartner))
	if code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}

	code = serveWith(t, p, RequireFirm(), RequireAnyRole(RoleExternalPartner))
	if code != 200 {
		t.Fatalf("expected 200 when explicitly allowed, got %d", code)
	}
}

func TestRequireFirm_FirmRequired(t *testing.T) {
	p := auth.Principal{UserID: "u", FirmID: "", Roles: []string{RolePartner}}
	code := serveWith(t, p, RequireFirm(), RequireAnyRole(RolePartner))
	if code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireAnyRole_MatchesAnyHeldRole(t *testing.T) {
	p := auth.Principal{UserID: "u", FirmID: "f", Roles: []string{RoleParalegal, RoleBillingClerk}}
	code := serveWith(t, p, RequireFirm(), RequireAnyRole(RoleBillingClerk))
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}
