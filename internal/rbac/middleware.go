package rbac

import (
	"net/http"

	"casevault-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireFirm enforces the multi-tenant invariant: a firm id must exist in
// context. This does not validate membership; the decision engine checks
// firm ownership per resource.
func RequireFirm() gin.HandlerFunc {
	return func(c *gin.Context) {
		fid, err := auth.FirmID(c.Request.Context())
		if err != nil || fid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "firm_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller holds any of the provided roles.
// Rules:
// - firm_admin bypasses all checks
// - external_partner never reaches internal admin surfaces unless explicitly allowed
// - firm isolation is enforced via RequireFirm (use it in the chain)
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, err := auth.PrincipalFromContext(c.Request.Context())
		if err != nil || len(p.Roles) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		for _, role := range p.Roles {
			// firm_admin bypasses all
			if IsFirmAdmin(role) {
				c.Next()
				return
			}

			// external partners are opt-in only
			if role == RoleExternalPartner {
				if _, ok := allowedSet[role]; !ok {
					continue
				}
			}

			if _, ok := allowedSet[role]; ok {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
