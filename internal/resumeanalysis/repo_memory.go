package resumeanalysis

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Record
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[int64]Record),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	now := r.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.byID[rec.ID] = cloneRecord(rec)
	return rec, nil
}

func (r *MemoryRepo) AttachArtifacts(ctx context.Context, id int64, a Artifacts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Details = a.Details
	rec.PageImages = append([]string(nil), a.PageImages...)
	rec.Thumbnail = a.Thumbnail
	rec.UpdatedAt = r.now()
	r.byID[id] = cloneRecord(rec)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// ListByOwner returns records newest first. A limit of 0 returns all.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Record
	for _, rec := range r.byID {
		if rec.OwnerID == ownerID {
			out = append(out, cloneRecord(rec))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(rec Record) Record {
	if rec.Scores != nil {
		rec.Scores = rec.Scores.Complete()
	}
	rec.Suggestions = append(rec.Suggestions[:0:0], rec.Suggestions...)
	rec.PageImages = append(rec.PageImages[:0:0], rec.PageImages...)
	if rec.Details != nil {
		details := make(map[string]any, len(rec.Details))
		for k, v := range rec.Details {
			details[k] = v
		}
		rec.Details = details
	}
	return rec
}

var _ Repo = (*MemoryRepo)(nil)
