package pictures

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores pictures in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Picture
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Picture)}
}

// Get returns a picture by id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Picture, error) {
	if err := ctx.Err(); err != nil {
		return Picture{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pic, ok := r.byID[id]
	if !ok {
		return Picture{}, ErrNotFound
	}
	return pic, nil
}

// Search returns matching pictures, oldest first.
func (r *MemoryRepo) Search(ctx context.Context, filter Filter) ([]Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Picture, 0)
	for _, pic := range r.byID {
		if filter.matches(pic) {
			out = append(out, pic)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Save stores a new picture.
func (r *MemoryRepo) Save(ctx context.Context, pic Picture) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(pic); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[pic.ID]; exists {
		return ErrAlreadyExists
	}
	r.byID[pic.ID] = pic
	return nil
}

// Len returns the number of stored pictures.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ Repo = (*MemoryRepo)(nil)
