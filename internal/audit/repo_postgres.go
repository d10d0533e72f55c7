package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo persists audit events in an INSERT-only table.
//
// NOTE: This repository assumes the following table exists:
//
//	audit_events (
//	  id UUID PRIMARY KEY,
//	  firm_id TEXT NOT NULL,
//	  type TEXT NOT NULL,
//	  actor_user_id TEXT,
//	  actor_roles TEXT,
//	  ip_address TEXT,
//	  action TEXT,
//	  resource_type TEXT,
//	  resource_id TEXT,
//	  outcome TEXT,
//	  reason_code TEXT,
//	  message TEXT,
//	  metadata JSONB,
//	  created_at TIMESTAMPTZ NOT NULL
//	)
//
// with an INSERT-only policy (no UPDATE/DELETE grants to the app role).

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events
  (id, firm_id, type, actor_user_id, actor_roles, ip_address, action, resource_type, resource_id, outcome, reason_code, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, '')::jsonb, $14)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.FirmID,
		e.Type,
		e.ActorUserID,
		e.ActorRoles,
		e.IPAddress,
		e.Action,
		e.ResourceType,
		e.ResourceID,
		e.Outcome,
		e.ReasonCode,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, firmID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `
SELECT id, firm_id, type, actor_user_id, actor_roles, ip_address, action, resource_type, resource_id, outcome, reason_code, message, COALESCE(metadata::text, ''), created_at
FROM audit_events
WHERE firm_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, firmID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID,
			&e.FirmID,
			&e.Type,
			&e.ActorUserID,
			&e.ActorRoles,
			&e.IPAddress,
			&e.Action,
			&e.ResourceType,
			&e.ResourceID,
			&e.Outcome,
			&e.ReasonCode,
			&e.Message,
			&e.Metadata,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
