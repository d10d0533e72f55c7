package sharing

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"casevault-platform/internal/rbac"
)

// PostgresRepo stores share grants.
//
// Expected schema:
//
//	CREATE TABLE share_grants (
//	  id             TEXT PRIMARY KEY,
//	  matter_id      TEXT NOT NULL,
//	  source_firm_id TEXT NOT NULL,
//	  target_firm_id TEXT NOT NULL,
//	  role           TEXT NOT NULL,
//	  permissions    TEXT NOT NULL,
//	  restrictions   TEXT NOT NULL DEFAULT '',
//	  status         TEXT NOT NULL,
//	  expires_at     TIMESTAMPTZ,
//	  created_by     TEXT NOT NULL,
//	  created_at     TIMESTAMPTZ NOT NULL,
//	  updated_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX share_grants_target ON share_grants (matter_id, target_firm_id);
//
// permissions and restrictions are comma-joined flag lists.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const shareColumns = `id, matter_id, source_firm_id, target_firm_id, role, permissions, restrictions, status, expires_at, created_by, created_at, updated_at`

func (r *PostgresRepo) FindForTarget(ctx context.Context, matterID, targetFirmID string) ([]Grant, error) {
	q := `SELECT ` + shareColumns + ` FROM share_grants WHERE matter_id = $1 AND target_firm_id = $2`
	rows, err := r.db.QueryContext(ctx, q, matterID, targetFirmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Grant, error) {
	q := `SELECT ` + shareColumns + ` FROM share_grants WHERE id = $1`
	g, err := scanGrant(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, err
	}
	return g, nil
}

func (r *PostgresRepo) Append(ctx context.Context, g Grant) error {
	q := `INSERT INTO share_grants (` + shareColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	restrictions := make([]string, len(g.Restrictions))
	for i, rr := range g.Restrictions {
		restrictions[i] = string(rr)
	}
	_, err := r.db.ExecContext(ctx, q,
		g.ID, g.MatterID, g.SourceFirmID, g.TargetFirmID, g.Role,
		strings.Join(g.Permissions.Strings(), ","), strings.Join(restrictions, ","),
		g.Status, g.ExpiresAt, g.CreatedBy, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (Grant, error) {
	q := `UPDATE share_grants SET status = $2, updated_at = $3 WHERE id = $1 RETURNING ` + shareColumns
	g, err := scanGrant(r.db.QueryRowContext(ctx, q, id, status, now).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, err
	}
	return g, nil
}

func scanGrant(scan func(dest ...any) error) (Grant, error) {
	var (
		g            Grant
		perms        string
		restrictions string
	)
	if err := scan(
		&g.ID, &g.MatterID, &g.SourceFirmID, &g.TargetFirmID, &g.Role,
		&perms, &restrictions, &g.Status, &g.ExpiresAt, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return Grant{}, err
	}
	g.Permissions = rbac.ParsePermissions(strings.Split(perms, ","))
	if restrictions != "" {
		g.Restrictions = ParseRestrictions(strings.Split(restrictions, ","))
	}
	return g, nil
}
