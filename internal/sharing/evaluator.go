package sharing

import (
	"context"
	"errors"
	"time"

	"casevault-platform/internal/auth"
	"casevault-platform/internal/rbac"
	"casevault-platform/internal/resource"
)

// Deny reason codes surfaced by the evaluator. The decision engine passes
// them through verbatim.
const (
	ReasonNoGrant                = "no_grant"
	ReasonGrantExpiredOrInactive = "grant_expired_or_inactive"
)

var (
	ErrSameFirm        = errors.New("sharing: evaluator applies to cross-firm access only")
	ErrInvalidArgument = errors.New("sharing: invalid argument")
)

// Repository abstracts share-grant persistence.
type Repository interface {
	// FindForTarget returns every grant from the matter to the target firm,
	// regardless of status; usability is evaluation-time logic.
	FindForTarget(ctx context.Context, matterID, targetFirmID string) ([]Grant, error)
	Get(ctx context.Context, id string) (Grant, error)
	Append(ctx context.Context, g Grant) error
	UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (Grant, error)
}

// Evaluation is the evaluator's verdict for one (resource, principal) pair.
type Evaluation struct {
	Granted bool

	// ReasonCode is set when Granted is false.
	ReasonCode string

	// GrantIDs lists the usable grants that contributed permissions.
	GrantIDs []string

	Permissions  rbac.PermissionSet
	Restrictions []Restriction
}

// Evaluator resolves externally-granted, role-scoped, time-bounded access
// from a partner firm.
type Evaluator struct {
	repo Repository
}

func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// Evaluate computes the effective cross-firm permission set for a principal
// on a resource at one instant.
//
// Rules:
//   - Only principals holding a role with cross-firm capability can consume
//     a grant, because grants address firms, not individuals.
//   - A grant covers its matter and, through the parent reference, every
//     document of that matter.
//   - Effective permissions are the declared subset intersected with the
//     role ceiling; a misconfigured grant can never exceed its role.
//   - Restrictions from every contributing grant are surfaced together.
func (e *Evaluator) Evaluate(ctx context.Context, res resource.Classified, p auth.Principal, now time.Time) (Evaluation, error) {
	if p.FirmID == "" || res.ID == "" {
		return Evaluation{}, ErrInvalidArgument
	}
	if p.FirmID == res.FirmID {
		return Evaluation{}, ErrSameFirm
	}

	authority := rbac.Resolve(p.ClearanceLevel, p.Roles)
	if !authority.CrossFirm {
		return Evaluation{Granted: false, ReasonCode: ReasonNoGrant}, nil
	}

	matterID := res.ID
	if res.Type == resource.TypeDocument {
		matterID = res.ParentMatterID
	}

	grants, err := e.repo.FindForTarget(ctx, matterID, p.FirmID)
	if err != nil {
		return Evaluation{}, err
	}
	if len(grants) == 0 {
		return Evaluation{Granted: false, ReasonCode: ReasonNoGrant}, nil
	}

	perms := rbac.NewPermissionSet()
	var restrictions []string
	var grantIDs []string
	for _, g := range grants {
		if !g.Usable(now) {
			continue
		}
		effective := g.Permissions.Intersect(RoleCeiling(g.Role))
		if g.Role != ShareRolePartnerLead {
			// Hard rule: financial visibility never travels below partner_lead.
			delete(effective, rbac.PermViewFinancialData)
		}
		perms = perms.Union(effective)
		for _, r := range g.Restrictions {
			restrictions = append(restrictions, string(r))
		}
		grantIDs = append(grantIDs, g.ID)
	}

	if len(grantIDs) == 0 {
		// Grants exist but none is usable right now.
		return Evaluation{Granted: false, ReasonCode: ReasonGrantExpiredOrInactive}, nil
	}

	return Evaluation{
		Granted:      true,
		GrantIDs:     grantIDs,
		Permissions:  perms,
		Restrictions: ParseRestrictions(restrictions),
	}, nil
}
