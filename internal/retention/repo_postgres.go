package retention

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"casevault-platform/internal/resource"
)

// PostgresHoldRepo stores legal holds.
//
// Expected schema:
//
//	CREATE TABLE legal_holds (
//	  id          TEXT PRIMARY KEY,
//	  firm_id     TEXT NOT NULL,
//	  scope       JSONB NOT NULL,
//	  reason      TEXT NOT NULL,
//	  released    BOOLEAN NOT NULL DEFAULT FALSE,
//	  expires_at  TIMESTAMPTZ,
//	  created_by  TEXT NOT NULL,
//	  created_at  TIMESTAMPTZ NOT NULL,
//	  released_by TEXT,
//	  released_at TIMESTAMPTZ
//	);
//
// Scope is persisted as JSON: criterion holds have no natural relational
// shape and coverage is evaluated in process anyway.
type PostgresHoldRepo struct {
	db *sql.DB
}

func NewPostgresHoldRepo(db *sql.DB) *PostgresHoldRepo {
	return &PostgresHoldRepo{db: db}
}

const holdColumns = `id, firm_id, scope, reason, released, expires_at, created_by, created_at, released_by, released_at`

func (r *PostgresHoldRepo) ListActiveCandidates(ctx context.Context, firmID string) ([]Hold, error) {
	q := `SELECT ` + holdColumns + ` FROM legal_holds WHERE firm_id = $1 AND NOT released`
	rows, err := r.db.QueryContext(ctx, q, firmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Hold
	for rows.Next() {
		h, err := scanHold(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PostgresHoldRepo) Get(ctx context.Context, id string) (Hold, error) {
	q := `SELECT ` + holdColumns + ` FROM legal_holds WHERE id = $1`
	h, err := scanHold(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Hold{}, ErrNotFound
		}
		return Hold{}, err
	}
	return h, nil
}

func (r *PostgresHoldRepo) Append(ctx context.Context, h Hold) error {
	scope, err := json.Marshal(h.Scope)
	if err != nil {
		return fmt.Errorf("encode hold scope: %w", err)
	}
	const q = `
INSERT INTO legal_holds (id, firm_id, scope, reason, released, expires_at, created_by, created_at)
VALUES ($1,$2,$3,$4,FALSE,$5,$6,$7)
`
	_, err = r.db.ExecContext(ctx, q, h.ID, h.FirmID, scope, h.Reason, h.ExpiresAt, h.CreatedBy, h.CreatedAt)
	return err
}

func (r *PostgresHoldRepo) MarkReleased(ctx context.Context, id, releasedBy string, now time.Time) (Hold, error) {
	q := `UPDATE legal_holds SET released = TRUE, released_by = $2, released_at = $3 WHERE id = $1 RETURNING ` + holdColumns
	h, err := scanHold(r.db.QueryRowContext(ctx, q, id, releasedBy, now).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Hold{}, ErrNotFound
		}
		return Hold{}, err
	}
	return h, nil
}

func scanHold(scan func(dest ...any) error) (Hold, error) {
	var (
		h          Hold
		scope      []byte
		releasedBy sql.NullString
	)
	if err := scan(
		&h.ID, &h.FirmID, &scope, &h.Reason, &h.Released, &h.ExpiresAt,
		&h.CreatedBy, &h.CreatedAt, &releasedBy, &h.ReleasedAt,
	); err != nil {
		return Hold{}, err
	}
	if err := json.Unmarshal(scope, &h.Scope); err != nil {
		return Hold{}, fmt.Errorf("decode hold scope: %w", err)
	}
	h.ReleasedBy = releasedBy.String
	return h, nil
}

// PostgresPolicyRepo stores retention policies.
//
// Expected schema:
//
//	CREATE TABLE retention_policies (
//	  id             TEXT PRIMARY KEY,
//	  firm_id        TEXT NOT NULL,
//	  resource_class TEXT NOT NULL,
//	  period_seconds BIGINT NOT NULL,
//	  clock_from     TEXT NOT NULL,
//	  action         TEXT NOT NULL
//	);
type PostgresPolicyRepo struct {
	db *sql.DB
}

func NewPostgresPolicyRepo(db *sql.DB) *PostgresPolicyRepo {
	return &PostgresPolicyRepo{db: db}
}

func (r *PostgresPolicyRepo) ListPolicies(ctx context.Context, firmID string) ([]Policy, error) {
	const q = `
SELECT id, firm_id, resource_class, period_seconds, clock_from, action
FROM retention_policies
WHERE firm_id = $1
`
	rows, err := r.db.QueryContext(ctx, q, firmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		var (
			p       Policy
			seconds int64
			class   string
		)
		if err := rows.Scan(&p.ID, &p.FirmID, &class, &seconds, &p.ClockFrom, &p.Action); err != nil {
			return nil, err
		}
		p.ResourceClass = resource.Type(class)
		p.Period = time.Duration(seconds) * time.Second
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresPolicyRepo) PutPolicy(ctx context.Context, p Policy) error {
	const q = `
INSERT INTO retention_policies (id, firm_id, resource_class, period_seconds, clock_from, action)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  resource_class = EXCLUDED.resource_class,
  period_seconds = EXCLUDED.period_seconds,
  clock_from     = EXCLUDED.clock_from,
  action         = EXCLUDED.action
`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.FirmID, p.ResourceClass, int64(p.Period/time.Second), p.ClockFrom, p.Action)
	return err
}
