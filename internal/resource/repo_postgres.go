package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"casevault-platform/pkg/utils"
)

// PostgresRepo reads and mutates matters and documents.
//
// Expected schema:
//
//	CREATE TABLE matters (
//	  id             TEXT PRIMARY KEY,
//	  firm_id        TEXT NOT NULL,
//	  name           TEXT NOT NULL,
//	  classification INT  NOT NULL,
//	  status         TEXT NOT NULL,
//	  closed_at      TIMESTAMPTZ,
//	  created_at     TIMESTAMPTZ NOT NULL,
//	  updated_at     TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE documents (
//	  id             TEXT PRIMARY KEY,
//	  firm_id        TEXT NOT NULL,
//	  matter_id      TEXT NOT NULL REFERENCES matters(id),
//	  name           TEXT NOT NULL,
//	  classification INT  NOT NULL,
//	  status         TEXT NOT NULL,
//	  created_at     TIMESTAMPTZ NOT NULL,
//	  updated_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetMatter(ctx context.Context, id string) (Matter, error) {
	const q = `
SELECT id, firm_id, name, classification, status, closed_at, created_at, updated_at
FROM matters
WHERE id = $1
`
	var m Matter
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.FirmID, &m.Name, &m.Classification, &m.Status, &m.ClosedAt, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Matter{}, ErrNotFound
		}
		return Matter{}, err
	}
	return m, nil
}

func (r *PostgresRepo) GetDocument(ctx context.Context, id string) (Document, error) {
	const q = `
SELECT id, firm_id, matter_id, name, classification, status, created_at, updated_at
FROM documents
WHERE id = $1
`
	var d Document
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.FirmID, &d.MatterID, &d.Name, &d.Classification, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return d, nil
}

func (r *PostgresRepo) ListMatters(ctx context.Context) ([]Matter, error) {
	const q = `
SELECT id, firm_id, name, classification, status, closed_at, created_at, updated_at
FROM matters
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Matter
	for rows.Next() {
		var m Matter
		if err := rows.Scan(&m.ID, &m.FirmID, &m.Name, &m.Classification, &m.Status, &m.ClosedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListDocuments(ctx context.Context) ([]Document, error) {
	const q = `
SELECT id, firm_id, matter_id, name, classification, status, created_at, updated_at
FROM documents
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.FirmID, &d.MatterID, &d.Name, &d.Classification, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes the resource row. Deleting a matter cascades to its
// documents inside one transaction so a swept matter never leaves orphans
// behind.
func (r *PostgresRepo) Delete(ctx context.Context, typ Type, id string) error {
	switch typ {
	case TypeMatter:
		return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE matter_id = $1`, id); err != nil {
				return fmt.Errorf("delete matter documents: %w", err)
			}
			res, err := tx.ExecContext(ctx, `DELETE FROM matters WHERE id = $1`, id)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return ErrNotFound
			}
			return nil
		})
	case TypeDocument:
		return r.exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	}
	return ErrInvalidType
}

func (r *PostgresRepo) Archive(ctx context.Context, typ Type, id string, now time.Time) error {
	switch typ {
	case TypeMatter:
		return r.exec(ctx, `UPDATE matters SET status = $2, updated_at = $3 WHERE id = $1`, id, MatterStatusArchived, now)
	case TypeDocument:
		return r.exec(ctx, `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`, id, DocumentStatusArchived, now)
	}
	return ErrInvalidType
}

func (r *PostgresRepo) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
