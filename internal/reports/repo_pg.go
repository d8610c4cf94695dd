package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"incident-backend/internal/geo"
	"incident-backend/internal/ownership"
	"incident-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const (
	reportColumns       = `id, user_id, title, description, tags, location::text, created_at, updated_at`
	newestFirst         = `ORDER BY updated_at DESC, created_at DESC, id`
	noAttachmentsClause = `NOT EXISTS (SELECT 1 FROM attachments a WHERE a.report_id = reports.id)`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) Create(ctx context.Context, report Report) error {
	const query = `
INSERT INTO reports (id, user_id, title, description, tags, location, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::point, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		report.ID,
		report.UserID,
		report.Title,
		report.Description,
		pq.StringArray(nonNilTags(report.Tags)),
		geo.NewNullPoint(report.Location),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(r.DB.QueryRowContext(ctx, query, id))
}

func (r *PGRepo) OwnerOf(ctx context.Context, id string) (string, error) {
	var owner string
	err := r.DB.QueryRowContext(ctx, `SELECT user_id FROM reports WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
			return "", ownership.ErrNotFound
		}
		return "", fmt.Errorf("lookup report owner: %w", err)
	}
	return owner, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE user_id = $1 ` + newestFirst
	return r.queryReports(ctx, query, userID)
}

func (r *PGRepo) RecentByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE user_id = $1 ` + newestFirst + ` LIMIT $2`
	return r.queryReports(ctx, query, userID, limit)
}

func (r *PGRepo) Search(ctx context.Context, userID string, in SearchInput) ([]Report, error) {
	query := `
SELECT ` + reportColumns + `
FROM reports
WHERE user_id = $1
  AND ($2 = '' OR title ILIKE '%' || $2 || '%' ESCAPE '\' OR description ILIKE '%' || $2 || '%' ESCAPE '\')
  AND ($3 = '' OR $3 = ANY(tags))
` + newestFirst
	return r.queryReports(ctx, query, userID, escapeLike(strings.TrimSpace(in.Query)), strings.TrimSpace(in.Tag))
}

func (r *PGRepo) Update(ctx context.Context, id string, in UpdateInput, now time.Time) (Report, error) {
	query := `
UPDATE reports
SET title = $2, description = $3, tags = $4, updated_at = $5
WHERE id = $1
RETURNING ` + reportColumns
	return scanReport(r.DB.QueryRowContext(ctx, query, id, in.Title, in.Description, pq.StringArray(nonNilTags(in.Tags)), now))
}

func (r *PGRepo) SetLocation(ctx context.Context, id string, loc *geo.Point, now time.Time) (Report, error) {
	query := `
UPDATE reports
SET location = $2::point, updated_at = $3
WHERE id = $1
RETURNING ` + reportColumns
	return scanReport(r.DB.QueryRowContext(ctx, query, id, geo.NewNullPoint(loc), now))
}

// Delete removes the report in a single statement guarded by the absence of
// attachments. The attachments FK is ON DELETE RESTRICT, so an attachment
// inserted concurrently makes the statement fail instead of orphaning rows.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reports WHERE id = $1 AND ` + noAttachmentsClause
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasAttachments
		}
		return fmt.Errorf("delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.explainNoDelete(ctx, id)
}

func (r *PGRepo) DeleteIfDefault(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM reports WHERE id = $1 AND title = $2 AND description = $3 AND ` + noAttachmentsClause
	res, err := r.DB.ExecContext(ctx, query, id, DefaultTitle, DefaultDescription)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return false, ErrHasAttachments
		}
		return false, fmt.Errorf("discard report: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if err := r.explainNoDelete(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// explainNoDelete reports why a guarded delete matched no rows. It returns
// nil when the report exists and has no attachments.
func (r *PGRepo) explainNoDelete(ctx context.Context, id string) error {
	const query = `
SELECT
  EXISTS (SELECT 1 FROM reports WHERE id = $1),
  EXISTS (SELECT 1 FROM attachments WHERE report_id = $1)`
	var exists, hasAttachments bool
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&exists, &hasAttachments); err != nil {
		return fmt.Errorf("inspect report: %w", err)
	}
	switch {
	case !exists:
		return ownership.ErrNotFound
	case hasAttachments:
		return ErrHasAttachments
	default:
		return nil
	}
}

func (r *PGRepo) queryReports(ctx context.Context, query string, args ...any) ([]Report, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := make([]Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func scanReport(row rowScanner) (Report, error) {
	var report Report
	var title, description sql.NullString
	var tags pq.StringArray
	var location geo.NullPoint
	err := row.Scan(
		&report.ID,
		&report.UserID,
		&title,
		&description,
		&tags,
		&location,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
			return Report{}, ownership.ErrNotFound
		}
		return Report{}, fmt.Errorf("scan report: %w", err)
	}
	report.Title = title.String
	report.Description = description.String
	report.Tags = nonNilTags(tags)
	report.Location = location.Ptr()
	return report, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
