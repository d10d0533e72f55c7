package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Engine    *decision.Engine
	Clearance *clearance.Service
	Holds     *retention.Service
	Shares    *sharing.Service
	Sweeper   *retention.Sweeper
	AuditLog  audit.Reader
}

// --- Auth ---

type loginRequest struct {
	UserID         string   `json:"user_id"`
	FirmID         string   `json:"firm_id"`
	Roles          []string `json:"roles"`
	ClearanceLevel int      `json:"clearance_level"`
	Teams          []string `json:"teams,omitempty"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate
// credentials against the identity provider before issuing tokens.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.FirmID == "" || len(req.Roles) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, firm_id, roles required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), auth.Principal{
		UserID:         req.UserID,
		FirmID:         req.FirmID,
		Roles:          req.Roles,
		ClearanceLevel: req.ClearanceLevel,
		Teams:          req.Teams,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Decisions ---

type decideRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	Action       string `json:"action"`
}

// Decide evaluates one access request for the authenticated principal.
//
// Status mapping: allow is 200; no_grant is 404 so existence never leaks to
// principals outside the owning firm; audit_unavailable is 503; every other
// denial is 403. The body always carries the full decision.
func (h Handlers) Decide(c *gin.Context) {
	p, err := auth.PrincipalFromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	typ := resource.Type(req.ResourceType)
	action := decision.Action(req.Action)
	if !resource.ValidType(typ) || !decision.ValidAction(action) || req.ResourceID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "resource_type, resource_id, action required"})
		return
	}

	d, err := h.Engine.Decide(c.Request.Context(), p, typ, req.ResourceID, action, time.Now())
	if err != nil && d.ReasonCode == decision.ReasonAuditUnavailable {
		c.JSON(http.StatusServiceUnavailable, d)
		return
	}
	c.JSON(decisionStatus(d), d)
}

func decisionStatus(d decision.Decision) int {
	switch {
	case d.Allow:
		return http.StatusOK
	case d.ReasonCode == decision.ReasonNoGrant:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}

// --- Clearance administration ---

type setClearanceRequest struct {
	NewLevel int    `json:"new_level"`
	Reason   string `json:"reason"`
}

func (h Handlers) SetClearance(c *gin.Context) {
	actor, err := auth.PrincipalFromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req setClearanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	rec, err := h.Clearance.SetClearance(c.Request.Context(), actor, c.Param("principal_id"), req.NewLevel, req.Reason)
	if err != nil {
		c.AbortWithStatusJSON(clearanceStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type bulkClearanceRequest struct {
	PrincipalIDs []string `json:"principal_ids"`
	NewLevel     int      `json:"new_level"`
	Reason       string   `json:"reason"`
}

// BulkSetClearance applies one level/reason across many principals and
// always returns 207-style per-principal results with status 200; partial
// failure is data, not an HTTP error.
func (h Handlers) BulkSetClearance(c *gin.Context) {
	actor, err := auth.PrincipalFromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req bulkClearanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.PrincipalIDs) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "principal_ids required"})
		return
	}

	results := h.Clearance.BulkSetClearance(c.Request.Context(), actor, req.PrincipalIDs, req.NewLevel, req.Reason)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func clearanceStatus(err error) int {
	switch {
	case errors.Is(err, clearance.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, clearance.ErrNotDominant):
		return http.StatusForbidden
	case errors.Is(err, clearance.ErrOutOfRange), errors.Is(err, clearance.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, clearance.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// --- Legal holds ---

type createHoldRequest struct {
	Scope     retention.Scope `json:"scope"`
	Reason    string          `json:"reason"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

func (h Handlers) CreateHold(c *gin.Context) {
	p, err := auth.PrincipalFromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req createHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	hold, err := h.Holds.CreateHold(c.Request.Context(), retention.Hold{
		FirmID:    p.FirmID,
		Scope:     req.Scope,
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
		CreatedBy: p.UserID,
	})
	if err != nil {
		if errors.Is(err, retention.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, retention.ErrResourceLocked) {
			// A retention action is in flight on a scoped resource; the
			// client retries once it settles.
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "resource busy, retry"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "hold creation failed"})
		return
	}
	c.JSON(http.StatusCreated, hold)
}

func (h Handlers) ReleaseHold(c *gin.Context) {
	p, err := auth.PrincipalFromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	hold, err := h.Holds.ReleaseHold(c.Request.Context(), c.Param("hold_id"), p.UserID)
	if err != nil {
		if errors.Is(err, retention.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "hold not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "hold release failed"})
		return
	}
	c.JSON(http.StatusOK, hold)
}

// --- Share grants ---

type createShareRequest struct {
	MatterID     string     `json:"matter_id"`
	TargetFirmID string     `json:"target_firm_id"`
	Role         string     `json:"role"`
	Permissions  []string   `json:"permissions"`
	Restrictions []string   `json:"restrictions,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func (h Handlers) CreateShare(c *gin.Context) {
	p, err := auth.PrincipalFromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	g, err := h.Shares.Create(c.Request.Context(), sharing.Grant{
		MatterID:     req.MatterID,
		SourceFirmID: p.FirmID,
		TargetFirmID: req.TargetFirmID,
		Role:         sharing.ShareRole(req.Role),
		Permissions:  rbac.ParsePermissions(req.Permissions),
		Restrictions: sharing.ParseRestrictions(req.Restrictions),
		ExpiresAt:    req.ExpiresAt,
		CreatedBy:    p.UserID,
	})
	if err != nil {
		if errors.Is(err, sharing.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "share creation failed"})
		return
	}
	c.JSON(http.StatusCreated, g)
}

// ShareTransition handles activate/decline/revoke on one grant id.
func (h Handlers) ShareTransition(transition string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.PrincipalFromContext(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		id := c.Param("share_id")

		var g sharing.Grant
		switch transition {
		case "activate":
			g, err = h.Shares.Activate(c.Request.Context(), id, p.UserID)
		case "decline":
			g, err = h.Shares.Decline(c.Request.Context(), id, p.UserID)
		case "revoke":
			g, err = h.Shares.Revoke(c.Request.Context(), id, p.UserID)
		default:
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown transition"})
			return
		}
		if err != nil {
			switch {
			case errors.Is(err, sharing.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "share grant not found"})
			case errors.Is(err, sharing.ErrInvalidTransition):
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "share transition failed"})
			}
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

// --- Retention sweep ---

// TriggerSweep runs one sweep pass now. The cron schedule drives the same
// code path; this endpoint exists for operators.
func (h Handlers) TriggerSweep(c *gin.Context) {
	results, err := h.Sweeper.Run(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "results": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// --- Audit ---

func (h Handlers) ListAudit(c *gin.Context) {
	firmID, err := auth.FirmID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "firm_id required"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit invalid"})
			return
		}
	}

	events, err := h.AuditLog.List(c.Request.Context(), firmID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
