package distortions

import (
	"context"
	"database/sql"
	"sort"
	"sync"
)

// Repo lists the control-point pairs of a distortion set in order.
type Repo interface {
	ListBySet(ctx context.Context, setID string) ([]Pair, error)
}

// Writer replaces the pairs of a set; used by seeding.
type Writer interface {
	ReplaceSet(ctx context.Context, setID string, pairs []Pair) error
}

// MemoryRepo keeps pairs in memory.
type MemoryRepo struct {
	mu    sync.RWMutex
	pairs []Pair
}

// NewMemoryRepo constructs a MemoryRepo seeded with pairs.
func NewMemoryRepo(seed ...Pair) *MemoryRepo {
	return &MemoryRepo{pairs: append([]Pair(nil), seed...)}
}

// Add appends a pair.
func (r *MemoryRepo) Add(p Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, p)
}

// ListBySet returns the pairs of setID ordered by position then id.
func (r *MemoryRepo) ListBySet(ctx context.Context, setID string) ([]Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Pair, 0)
	for _, p := range r.pairs {
		if p.DistortionSetID == setID {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position == out[j].Position {
			return out[i].ID < out[j].ID
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

// ReplaceSet drops the existing pairs of setID and stores pairs in their place.
func (r *MemoryRepo) ReplaceSet(ctx context.Context, setID string, pairs []Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.pairs[:0:0]
	for _, p := range r.pairs {
		if p.DistortionSetID != setID {
			kept = append(kept, p)
		}
	}
	for _, p := range pairs {
		p.DistortionSetID = setID
		kept = append(kept, p)
	}
	r.pairs = kept
	return nil
}

// PGRepo reads pairs from Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ListBySet returns the pairs of setID ordered by position then id.
func (r *PGRepo) ListBySet(ctx context.Context, setID string) ([]Pair, error) {
	const query = `
SELECT id, distortion_set_id, position, start_x, start_y, end_x, end_y
FROM distortion_pairs
WHERE distortion_set_id = $1
ORDER BY position ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Pair, 0)
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.ID, &p.DistortionSetID, &p.Position, &p.StartX, &p.StartY, &p.EndX, &p.EndY); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceSet swaps the pairs of setID inside one transaction.
func (r *PGRepo) ReplaceSet(ctx context.Context, setID string, pairs []Pair) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM distortion_pairs WHERE distortion_set_id = $1`, setID); err != nil {
		return err
	}
	const insert = `
INSERT INTO distortion_pairs (id, distortion_set_id, position, start_x, start_y, end_x, end_y)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, p := range pairs {
		if _, err := tx.ExecContext(ctx, insert, p.ID, setID, p.Position, p.StartX, p.StartY, p.EndX, p.EndY); err != nil {
			return err
		}
	}
	return tx.Commit()
}

var (
	_ Repo   = (*MemoryRepo)(nil)
	_ Repo   = (*PGRepo)(nil)
	_ Writer = (*MemoryRepo)(nil)
	_ Writer = (*PGRepo)(nil)
)
