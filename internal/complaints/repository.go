package complaints

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"civic-platform/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLRepo persists complaints in Postgres.
//
// Schema assumptions (see db/schema.sql):
// - complaints, complaint_status_log, complaint_assignments,
//   complaint_evidence, complaint_comments
// - complaint_status_log is INSERT-only
// - partial unique index uq_complaint_assignments_active ON
//   complaint_assignments(complaint_id) WHERE is_active
// - owned rows cascade-delete with their complaint; user references RESTRICT
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

const complaintColumns = `
id, reporter_id, category_id, status, COALESCE(priority::text, ''),
title, description, latitude, longitude, zone_id, public,
created_at, updated_at, resolved_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (Complaint, error) {
	var c Complaint
	err := row.Scan(
		&c.ID,
		&c.ReporterID,
		&c.CategoryID,
		&c.Status,
		&c.Priority,
		&c.Title,
		&c.Description,
		&c.Latitude,
		&c.Longitude,
		&c.ZoneID,
		&c.Public,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Complaint{}, ErrNotFound
		}
		return Complaint{}, err
	}
	return c, nil
}

func (r *SQLRepo) CreateComplaint(ctx context.Context, c Complaint) error {
	const q = `
INSERT INTO complaints (
  id, reporter_id, category_id, status, priority,
  title, description, latitude, longitude, zone_id, public,
  created_at, updated_at, resolved_at
) VALUES (
  $1,$2,$3,$4,NULLIF($5,'')::priority_level,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.ReporterID, c.CategoryID, c.Status, string(c.Priority),
		c.Title, c.Description, c.Latitude, c.Longitude, c.ZoneID, c.Public,
		c.CreatedAt, c.UpdatedAt, c.ResolvedAt,
	)
	return err
}

func (r *SQLRepo) GetComplaint(ctx context.Context, id string) (Complaint, error) {
	q := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	return scanComplaint(r.db.QueryRowContext(ctx, q, id))
}

func (r *SQLRepo) ListComplaints(ctx context.Context, f Filter) ([]Complaint, error) {
	q := `SELECT ` + complaintColumns + ` FROM complaints WHERE 1=1`
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(" AND %s $%d", cond, len(args))
	}
	if f.Status != "" {
		add("status =", f.Status)
	}
	if f.CategoryID != "" {
		add("category_id =", f.CategoryID)
	}
	if f.ZoneID != "" {
		add("zone_id =", f.ZoneID)
	}
	if f.ReporterID != "" {
		add("reporter_id =", f.ReporterID)
	}
	if f.VisibleTo != "" {
		args = append(args, f.VisibleTo)
		q += fmt.Sprintf(" AND (public OR reporter_id = $%d)", len(args))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Transition locks the complaint row, applies the mutation, and writes the
// status-log entry plus the updated row in one transaction. Concurrent
// transitions on the same complaint serialize on the row lock; different
// complaints do not contend.
func (r *SQLRepo) Transition(ctx context.Context, complaintID string, apply func(c *Complaint) (StatusLogEntry, error)) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		c, err := lockComplaint(ctx, tx, complaintID)
		if err != nil {
			return err
		}

		entry, err := apply(&c)
		if err != nil {
			return err
		}

		if err := insertStatusLog(ctx, tx, entry); err != nil {
			return err
		}

		const q = `
UPDATE complaints
SET status = $2, resolved_at = $3, updated_at = $4
WHERE id = $1
`
		_, err = tx.ExecContext(ctx, q, c.ID, c.Status, c.ResolvedAt, c.UpdatedAt)
		return err
	})
}

// Activate atomically replaces the active assignment. The complaint row lock
// serializes callers; the partial unique index backstops a lost race, which
// surfaces as ErrConflict.
func (r *SQLRepo) Activate(ctx context.Context, complaintID string, a Assignment) error {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := lockComplaint(ctx, tx, complaintID); err != nil {
			return err
		}

		const deactivate = `
UPDATE complaint_assignments
SET is_active = false, unassigned_at = $2
WHERE complaint_id = $1 AND is_active
`
		if _, err := tx.ExecContext(ctx, deactivate, complaintID, a.AssignedAt); err != nil {
			return err
		}

		const insert = `
INSERT INTO complaint_assignments (id, complaint_id, authority_id, assigned_at, unassigned_at, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
`
		_, err := tx.ExecContext(ctx, insert,
			a.ID, a.ComplaintID, a.AuthorityID, a.AssignedAt, a.UnassignedAt, a.IsActive,
		)
		return err
	})
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *SQLRepo) ListStatusLog(ctx context.Context, complaintID string) ([]StatusLogEntry, error) {
	const q = `
SELECT id, complaint_id, from_status, to_status, changed_by, COALESCE(comment, ''), changed_at
FROM complaint_status_log
WHERE complaint_id = $1
ORDER BY changed_at, id
`
	rows, err := r.db.QueryContext(ctx, q, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusLogEntry
	for rows.Next() {
		var e StatusLogEntry
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.FromStatus, &e.ToStatus, &e.ChangedBy, &e.Comment, &e.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLRepo) ActiveAssignment(ctx context.Context, complaintID string) (Assignment, bool, error) {
	const q = `
SELECT id, complaint_id, authority_id, assigned_at, unassigned_at, is_active
FROM complaint_assignments
WHERE complaint_id = $1 AND is_active
`
	var a Assignment
	err := r.db.QueryRowContext(ctx, q, complaintID).Scan(
		&a.ID, &a.ComplaintID, &a.AuthorityID, &a.AssignedAt, &a.UnassignedAt, &a.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, false, nil
	}
	if err != nil {
		return Assignment{}, false, err
	}
	return a, true, nil
}

func (r *SQLRepo) ListAssignments(ctx context.Context, complaintID string) ([]Assignment, error) {
	const q = `
SELECT id, complaint_id, authority_id, assigned_at, unassigned_at, is_active
FROM complaint_assignments
WHERE complaint_id = $1
ORDER BY assigned_at, id
`
	rows, err := r.db.QueryContext(ctx, q, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ComplaintID, &a.AuthorityID, &a.AssignedAt, &a.UnassignedAt, &a.IsActive); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLRepo) AddEvidence(ctx context.Context, e Evidence) error {
	const q = `
INSERT INTO complaint_evidence (id, complaint_id, type, url, caption, uploaded_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.ComplaintID, e.Type, e.URL, e.Caption, e.UploadedBy, e.CreatedAt)
	return err
}

func (r *SQLRepo) ListEvidence(ctx context.Context, complaintID string) ([]Evidence, error) {
	const q = `
SELECT id, complaint_id, type, url, COALESCE(caption, ''), uploaded_by, created_at
FROM complaint_evidence
WHERE complaint_id = $1
ORDER BY created_at, id
`
	rows, err := r.db.QueryContext(ctx, q, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evidence
	for rows.Next() {
		var e Evidence
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.Type, &e.URL, &e.Caption, &e.UploadedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLRepo) AddComment(ctx context.Context, c Comment) error {
	const q = `
INSERT INTO complaint_comments (id, complaint_id, author_id, body, internal, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.ComplaintID, c.AuthorID, c.Body, c.Internal, c.CreatedAt)
	return err
}

func (r *SQLRepo) ListComments(ctx context.Context, complaintID string) ([]Comment, error) {
	const q = `
SELECT id, complaint_id, author_id, body, internal, created_at
FROM complaint_comments
WHERE complaint_id = $1
ORDER BY created_at, id
`
	rows, err := r.db.QueryContext(ctx, q, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ComplaintID, &c.AuthorID, &c.Body, &c.Internal, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func lockComplaint(ctx context.Context, tx *sql.Tx, id string) (Complaint, error) {
	// Lock the complaint row to serialize concurrent state changes per complaint.
	q := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1 FOR UPDATE`
	return scanComplaint(tx.QueryRowContext(ctx, q, id))
}

func insertStatusLog(ctx context.Context, tx *sql.Tx, e StatusLogEntry) error {
	const q = `
INSERT INTO complaint_status_log (id, complaint_id, from_status, to_status, changed_by, comment, changed_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7)
`
	_, err := tx.ExecContext(ctx, q, e.ID, e.ComplaintID, e.FromStatus, e.ToStatus, e.ChangedBy, e.Comment, e.ChangedAt)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
