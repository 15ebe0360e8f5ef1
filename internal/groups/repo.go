package groups

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// Repo is the read-only group configuration service.
type Repo interface {
	Get(ctx context.Context, groupID string) (Group, error)
}

// Writer stores group configuration; used by seeding.
type Writer interface {
	Upsert(ctx context.Context, g Group) error
}

// MemoryRepo keeps groups in memory.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Group
}

// NewMemoryRepo constructs a MemoryRepo seeded with the given groups.
func NewMemoryRepo(seed ...Group) *MemoryRepo {
	r := &MemoryRepo{byID: make(map[string]Group, len(seed))}
	for _, g := range seed {
		r.byID[g.ID] = g
	}
	return r
}

// Get returns a group by id.
func (r *MemoryRepo) Get(ctx context.Context, groupID string) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[groupID]
	if !ok {
		return Group{}, ErrNotFound
	}
	return g, nil
}

// Put adds or replaces a group; used for seeding and tests.
func (r *MemoryRepo) Put(g Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[g.ID] = g
}

// Upsert adds or replaces a group.
func (r *MemoryRepo) Upsert(ctx context.Context, g Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Put(g)
	return nil
}

// PGRepo reads groups from Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns a group by id.
func (r *PGRepo) Get(ctx context.Context, groupID string) (Group, error) {
	const query = `
SELECT id, scale_type, colorize_range_low, colorize_range_high
FROM groups
WHERE id = $1
LIMIT 1`
	var g Group
	var scaleType, low, high sql.NullString
	err := r.DB.QueryRowContext(ctx, query, groupID).Scan(&g.ID, &scaleType, &low, &high)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Group{}, ErrNotFound
		}
		return Group{}, err
	}
	g.ScaleType = scaleType.String
	g.ColorizeRangeLow = low.String
	g.ColorizeRangeHigh = high.String
	return g, nil
}

// Upsert inserts the group or overwrites its configuration.
func (r *PGRepo) Upsert(ctx context.Context, g Group) error {
	const query = `
INSERT INTO groups (id, scale_type, colorize_range_low, colorize_range_high)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	scale_type = EXCLUDED.scale_type,
	colorize_range_low = EXCLUDED.colorize_range_low,
	colorize_range_high = EXCLUDED.colorize_range_high`
	_, err := r.DB.ExecContext(ctx, query, g.ID, nullString(g.ScaleType), nullString(g.ColorizeRangeLow), nullString(g.ColorizeRangeHigh))
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var (
	_ Repo   = (*MemoryRepo)(nil)
	_ Repo   = (*PGRepo)(nil)
	_ Writer = (*MemoryRepo)(nil)
	_ Writer = (*PGRepo)(nil)
)
