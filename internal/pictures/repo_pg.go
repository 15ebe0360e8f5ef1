package pictures

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const selectColumns = `id, type, source, source_image_id, analysis_type, edge_detect_type, group_id, snap_id, filename, uri, created_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get fetches a picture by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Picture, error) {
	query := `SELECT ` + selectColumns + ` FROM pictures WHERE id = $1 AND type = $2 LIMIT 1`
	pic, err := scanPicture(r.DB.QueryRowContext(ctx, query, id, TypePicture))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Picture{}, ErrNotFound
		}
		return Picture{}, err
	}
	return pic, nil
}

// Search lists pictures matching the filter, oldest first.
func (r *PGRepo) Search(ctx context.Context, filter Filter) ([]Picture, error) {
	clauses := []string{"type = $1"}
	args := []any{TypePicture}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("source_image_id", filter.SourceImageID)
	add("group_id", filter.GroupID)
	add("snap_id", filter.SnapID)
	add("analysis_type", filter.AnalysisType)

	query := `SELECT ` + selectColumns + ` FROM pictures WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at ASC, id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Picture, 0)
	for rows.Next() {
		pic, err := scanPicture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pic)
	}
	return out, rows.Err()
}

// Save inserts a new picture. The primary key makes concurrent saves of one id lose cleanly.
func (r *PGRepo) Save(ctx context.Context, pic Picture) error {
	if err := validate(pic); err != nil {
		return err
	}
	const query = `
INSERT INTO pictures (
    id,
    type,
    source,
    source_image_id,
    analysis_type,
    edge_detect_type,
    group_id,
    snap_id,
    filename,
    uri,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

	var sourceID sql.NullString
	if pic.SourceImageID != nil {
		sourceID = sql.NullString{String: *pic.SourceImageID, Valid: true}
	}
	var edgeType sql.NullString
	if pic.EdgeDetectType != "" {
		edgeType = sql.NullString{String: pic.EdgeDetectType, Valid: true}
	}

	res, err := r.DB.ExecContext(
		ctx,
		query,
		pic.ID,
		pic.Type,
		pic.Source,
		sourceID,
		pic.AnalysisType,
		edgeType,
		pic.GroupID,
		pic.SnapID,
		pic.Filename,
		pic.URI,
		pic.Created,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPicture(row rowScanner) (Picture, error) {
	var pic Picture
	var sourceID sql.NullString
	var edgeType sql.NullString
	if err := row.Scan(
		&pic.ID,
		&pic.Type,
		&pic.Source,
		&sourceID,
		&pic.AnalysisType,
		&edgeType,
		&pic.GroupID,
		&pic.SnapID,
		&pic.Filename,
		&pic.URI,
		&pic.Created,
	); err != nil {
		return Picture{}, err
	}
	if sourceID.Valid {
		id := sourceID.String
		pic.SourceImageID = &id
	}
	if edgeType.Valid {
		pic.EdgeDetectType = edgeType.String
	}
	return pic, nil
}

var _ Repo = (*PGRepo)(nil)
