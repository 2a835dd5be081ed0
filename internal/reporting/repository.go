package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLRepo reads reporting data from Postgres. Durations come from the
// vw_resolved_durations view so ad-hoc SQL consumers see the same numbers;
// the status breakdown hits the base table because it needs a time range.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) CountByStatus(ctx context.Context, from, to time.Time, categoryID, zoneID string) ([]StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, count(*)
		FROM complaints
		WHERE created_at >= $1 AND created_at < $2
		  AND ($3 = '' OR category_id::text = $3)
		  AND ($4 = '' OR zone_id::text = $4)
		GROUP BY status
		ORDER BY status`,
		from, to, categoryID, zoneID,
	)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *SQLRepo) ResolvedDurations(ctx context.Context, from, to time.Time, categoryID string) ([]ResolvedDuration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT complaint_id, hours
		FROM vw_resolved_durations
		WHERE resolved_at >= $1 AND resolved_at < $2
		  AND ($3 = '' OR category_id::text = $3)
		ORDER BY resolved_at`,
		from, to, categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("resolved durations: %w", err)
	}
	defer rows.Close()

	var out []ResolvedDuration
	for rows.Next() {
		var rd ResolvedDuration
		if err := rows.Scan(&rd.ComplaintID, &rd.Hours); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (r *SQLRepo) ActiveAssignmentCounts(ctx context.Context) ([]AuthorityLoad, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT authority_id, count(*)
		FROM complaint_assignments
		WHERE is_active
		GROUP BY authority_id
		ORDER BY count(*) DESC, authority_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("active assignment counts: %w", err)
	}
	defer rows.Close()

	var out []AuthorityLoad
	for rows.Next() {
		var al AuthorityLoad
		if err := rows.Scan(&al.AuthorityID, &al.ActiveCount); err != nil {
			return nil, err
		}
		out = append(out, al)
	}
	return out, rows.Err()
}
