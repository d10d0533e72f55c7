package main

import (
	"casevault-platform/internal/httpapi"
	"casevault-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	v1.Use(rbac.RequireFirm())
	{
		// DECISION route: every authenticated principal may ask; the engine
		// itself is the authorization boundary.
		v1.POST("/decisions", h.Decide)

		// HOLD routes. Filing needs a compliance-capable role; release is the
		// sensitive edge and stays with the same set.
		holds := v1.Group("/holds")
		holds.Use(rbac.RequireAnyRole(rbac.RoleComplianceOfficer, rbac.RoleFirmAdmin))
		{
			holds.POST("", h.CreateHold)
			holds.POST("/:hold_id/release", h.ReleaseHold)
		}

		// SHARE routes. Creating a share is a partner-level act on the source
		// side; the target firm's admins accept or decline.
		shares := v1.Group("/shares")
		shares.Use(rbac.RequireAnyRole(rbac.RolePartner, rbac.RoleFirmAdmin))
		{
			shares.POST("", h.CreateShare)
			shares.POST("/:share_id/activate", h.ShareTransition("activate"))
			shares.POST("/:share_id/decline", h.ShareTransition("decline"))
			shares.POST("/:share_id/revoke", h.ShareTransition("revoke"))
		}

		// ADMIN routes
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleFirmAdmin, rbac.RoleComplianceOfficer))
		{
			admin.PUT("/principals/:principal_id/clearance", h.SetClearance)
			admin.POST("/principals/clearance", h.BulkSetClearance)
			admin.POST("/retention/sweep", h.TriggerSweep)
			admin.GET("/audit", h.ListAudit)
		}
	}
}
