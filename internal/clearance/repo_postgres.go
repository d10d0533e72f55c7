package clearance

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PostgresRepo stores principal records in the principals table.
//
// Expected schema:
//
//	CREATE TABLE principals (
//	  id              TEXT PRIMARY KEY,
//	  firm_id         TEXT NOT NULL,
//	  roles           TEXT NOT NULL DEFAULT '',
//	  clearance_level INT  NOT NULL DEFAULT 0,
//	  teams           TEXT NOT NULL DEFAULT '',
//	  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// roles and teams are comma-joined tag lists, same encoding as
// audit_events.actor_roles.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetPrincipal(ctx context.Context, firmID, principalID string) (PrincipalRecord, error) {
	const q = `
SELECT id, firm_id, roles, clearance_level, teams, updated_at
FROM principals
WHERE firm_id = $1 AND id = $2
`
	var (
		rec    PrincipalRecord
		roles  string
		teams  string
	)
	if err := r.db.QueryRowContext(ctx, q, firmID, principalID).Scan(
		&rec.ID,
		&rec.FirmID,
		&roles,
		&rec.ClearanceLevel,
		&teams,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PrincipalRecord{}, ErrNotFound
		}
		return PrincipalRecord{}, err
	}
	rec.Roles = splitTags(roles)
	rec.Teams = splitTags(teams)
	return rec, nil
}

// CompareAndSetClearance relies on the WHERE clause carrying the expected
// current level, so a concurrent change makes the UPDATE match zero rows
// instead of clobbering it.
func (r *PostgresRepo) CompareAndSetClearance(ctx context.Context, firmID, principalID string, from, to int, now time.Time) (PrincipalRecord, error) {
	const q = `
UPDATE principals
SET clearance_level = $4, updated_at = $5
WHERE firm_id = $1 AND id = $2 AND clearance_level = $3
RETURNING id, firm_id, roles, clearance_level, teams, updated_at
`
	var (
		rec   PrincipalRecord
		roles string
		teams string
	)
	err := r.db.QueryRowContext(ctx, q, firmID, principalID, from, to, now).Scan(
		&rec.ID,
		&rec.FirmID,
		&roles,
		&rec.ClearanceLevel,
		&teams,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing principal from a lost CAS race.
			if _, gerr := r.GetPrincipal(ctx, firmID, principalID); gerr != nil {
				return PrincipalRecord{}, gerr
			}
			return PrincipalRecord{}, ErrConflict
		}
		return PrincipalRecord{}, err
	}
	rec.Roles = splitTags(roles)
	rec.Teams = splitTags(teams)
	return rec, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
