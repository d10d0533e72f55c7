package acl

import (
	"context"
	"database/sql"
	"strings"

	"casevault-platform/internal/rbac"
	"casevault-platform/internal/resource"
)

// PostgresRepo stores ACL entries.
//
// Expected schema:
//
//	CREATE TABLE acl_entries (
//	  id            TEXT PRIMARY KEY,
//	  resource_type TEXT NOT NULL,
//	  resource_id   TEXT NOT NULL,
//	  principal_type TEXT NOT NULL,
//	  principal_id  TEXT NOT NULL,
//	  permissions   TEXT NOT NULL,
//	  granted_by    TEXT NOT NULL,
//	  expires_at    TIMESTAMPTZ,
//	  created_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX acl_entries_lookup
//	  ON acl_entries (resource_type, resource_id, principal_id);
//
// permissions is a comma-joined flag list. Expired entries stay in the
// table; expiry is applied at read time against the decision's now.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListForPrincipal(ctx context.Context, resourceType resource.Type, resourceID, principalID string) ([]Entry, error) {
	const q = `
SELECT id, resource_type, resource_id, principal_type, principal_id, permissions, granted_by, expires_at, created_at
FROM acl_entries
WHERE resource_type = $1 AND resource_id = $2 AND principal_id = $3
`
	rows, err := r.db.QueryContext(ctx, q, resourceType, resourceID, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e     Entry
			perms string
		)
		if err := rows.Scan(&e.ID, &e.ResourceType, &e.ResourceID, &e.PrincipalType, &e.PrincipalID, &perms, &e.GrantedBy, &e.ExpiresAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Permissions = rbac.ParsePermissions(strings.Split(perms, ","))
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO acl_entries (id, resource_type, resource_id, principal_type, principal_id, permissions, granted_by, expires_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.ResourceType, e.ResourceID, e.PrincipalType, e.PrincipalID,
		strings.Join(e.Permissions.Strings(), ","), e.GrantedBy, e.ExpiresAt, e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM acl_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
