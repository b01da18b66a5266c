package resumeanalysis

import "context"

// Repo persists analysis records. Create assigns the id and timestamps; every
// mutation stamps updated_at.
type Repo interface {
	Create(ctx context.Context, rec Record) (Record, error)
	AttachArtifacts(ctx context.Context, id int64, a Artifacts) error
	GetByID(ctx context.Context, id int64) (Record, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error)
}
