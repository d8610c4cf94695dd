package attachments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"incident-backend/internal/geo"
	"incident-backend/internal/ownership"
	"incident-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const attachmentColumns = `id, report_id, media_type, title, description, media_url, location::text, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) Create(ctx context.Context, att Attachment) error {
	const query = `
INSERT INTO attachments (id, report_id, media_type, title, description, media_url, location, metadata, created_at, updated_at)
VALUES ($1, $2, $3::media_type, $4, $5, $6, $7::point, $8, $9, $10)`
	metadata, err := encodeMetadata(att.Metadata)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		att.ID,
		att.ReportID,
		string(att.MediaType),
		att.Title,
		att.Description,
		att.MediaURL,
		geo.NewNullPoint(att.Location),
		metadata,
		att.CreatedAt,
		att.UpdatedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ownership.ErrNotFound
		}
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`
	return scanAttachment(r.DB.QueryRowContext(ctx, query, id))
}

func (r *PGRepo) ReportOf(ctx context.Context, id string) (string, error) {
	var reportID string
	err := r.DB.QueryRowContext(ctx, `SELECT report_id FROM attachments WHERE id = $1`, id).Scan(&reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
			return "", ownership.ErrNotFound
		}
		return "", fmt.Errorf("lookup attachment report: %w", err)
	}
	return reportID, nil
}

func (r *PGRepo) ListByReport(ctx context.Context, reportID string) ([]Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE report_id = $1 ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	out := make([]Attachment, 0)
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return out, nil
}

func (r *PGRepo) CountByReport(ctx context.Context, reportID string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM attachments WHERE report_id = $1`, reportID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attachments: %w", err)
	}
	return n, nil
}

func (r *PGRepo) CountsByType(ctx context.Context, reportID string) (map[MediaType]int, error) {
	const query = `SELECT media_type::text, count(*) FROM attachments WHERE report_id = $1 GROUP BY media_type`
	rows, err := r.DB.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("count attachments by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[MediaType]int)
	for rows.Next() {
		var mt string
		var n int
		if err := rows.Scan(&mt, &n); err != nil {
			return nil, fmt.Errorf("scan attachment count: %w", err)
		}
		counts[MediaType(mt)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachment counts: %w", err)
	}
	return counts, nil
}

func (r *PGRepo) UpdateInfo(ctx context.Context, id string, patch InfoPatch, now time.Time) (Attachment, error) {
	query := `
UPDATE attachments
SET title = COALESCE($2, title), description = COALESCE($3, description), updated_at = $4
WHERE id = $1
RETURNING ` + attachmentColumns
	return scanAttachment(r.DB.QueryRowContext(ctx, query, id, nullString(patch.Title), nullString(patch.Description), now))
}

func (r *PGRepo) SetMedia(ctx context.Context, id string, state MediaState, now time.Time) (Attachment, error) {
	query := `
UPDATE attachments
SET media_url = $2, metadata = $3, location = $4::point, updated_at = $5
WHERE id = $1
RETURNING ` + attachmentColumns
	metadata, err := encodeMetadata(state.Metadata)
	if err != nil {
		return Attachment{}, err
	}
	return scanAttachment(r.DB.QueryRowContext(ctx, query, id, state.URL, metadata, geo.NewNullPoint(state.Location), now))
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ownership.ErrNotFound
	}
	return nil
}

func scanAttachment(row rowScanner) (Attachment, error) {
	var att Attachment
	var mediaType string
	var title, description sql.NullString
	var location geo.NullPoint
	var metadata []byte
	err := row.Scan(
		&att.ID,
		&att.ReportID,
		&mediaType,
		&title,
		&description,
		&att.MediaURL,
		&location,
		&metadata,
		&att.CreatedAt,
		&att.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
			return Attachment{}, ownership.ErrNotFound
		}
		return Attachment{}, fmt.Errorf("scan attachment: %w", err)
	}
	att.MediaType = MediaType(mediaType)
	att.Title = title.String
	att.Description = description.String
	att.Location = location.Ptr()
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &att.Metadata); err != nil {
			return Attachment{}, fmt.Errorf("decode attachment metadata: %w", err)
		}
	}
	return att, nil
}

func encodeMetadata(meta map[string]any) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode attachment metadata: %w", err)
	}
	return string(raw), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
