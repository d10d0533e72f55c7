package acl

import (
	"context"
	"errors"
	"time"

	"casevault-platform/internal/rbac"
	"casevault-platform/internal/resource"
)

var (
	ErrNotFound        = errors.New("acl entry not found")
	ErrInvalidArgument = errors.New("acl: invalid argument")
)

// Repository abstracts ACL persistence.
//
// ListForPrincipal returns every entry matching the resource and principal,
// expired ones included; filtering by expiry is evaluation-time logic, not a
// storage concern.
type Repository interface {
	ListForPrincipal(ctx context.Context, resourceType resource.Type, resourceID, principalID string) ([]Entry, error)
	Append(ctx context.Context, e Entry) error
	Remove(ctx context.Context, id string) error
}

// Store answers "what did explicit grants give this principal on this
// resource at this instant". Matching is direct (resource id + principal id);
// role expansion happens in rbac, never here.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// GrantsFor returns the union of all non-expired entries for the resource,
// matching the user directly plus any team the user belongs to. An empty set
// is the common case and is not an error.
func (s *Store) GrantsFor(ctx context.Context, res resource.Classified, userID string, teams []string, now time.Time) (rbac.PermissionSet, error) {
	if res.ID == "" || userID == "" {
		return nil, ErrInvalidArgument
	}

	out := rbac.NewPermissionSet()
	if err := s.mergeLive(ctx, res, PrincipalUser, userID, now, &out); err != nil {
		return nil, err
	}
	for _, team := range teams {
		if err := s.mergeLive(ctx, res, PrincipalTeam, team, now, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) mergeLive(ctx context.Context, res resource.Classified, pt PrincipalType, subjectID string, now time.Time, out *rbac.PermissionSet) error {
	entries, err := s.repo.ListForPrincipal(ctx, res.Type, res.ID, subjectID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.PrincipalType != pt || !e.Live(now) {
			continue
		}
		*out = out.Union(e.Permissions)
	}
	return nil
}

// Grant records a new entry. Validation stays light: permission flags are
// already a closed enumeration and unknown flags were dropped at parse time.
func (s *Store) Grant(ctx context.Context, e Entry) error {
	if e.ResourceID == "" || e.PrincipalID == "" || e.GrantedBy == "" {
		return ErrInvalidArgument
	}
	if !resource.ValidType(e.ResourceType) {
		return ErrInvalidArgument
	}
	if e.PrincipalType == "" {
		e.PrincipalType = PrincipalUser
	}
	if !ValidPrincipalType(e.PrincipalType) {
		return ErrInvalidArgument
	}
	if e.Permissions.IsEmpty() {
		return ErrInvalidArgument
	}
	return s.repo.Append(ctx, e)
}

// Revoke removes a grant record. ACL entries carry no negative form; this is
// the only way to take a grant back.
func (s *Store) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.repo.Remove(ctx, id)
}
