package store

import (
	"context"

	"drivetime/internal/model"
)

// ArtifactReader provides read access to artifacts. Missing records come back
// as nil results, not errors.
type ArtifactReader interface {
	Get(ctx context.Context, id string) (*model.Artifact, error)
	GetAll(ctx context.Context, userID string) ([]model.Artifact, error)
	GetByDay(ctx context.Context, userID, date string) ([]model.Artifact, error)
	GetByStatus(ctx context.Context, userID, status string) ([]model.Artifact, error)
	GetPending(ctx context.Context, userID string) ([]model.Artifact, error)
	GetDayGroups(ctx context.Context, userID string) ([]model.DayGroup, error)
}

// ArtifactWriter provides write access to artifacts.
type ArtifactWriter interface {
	Save(ctx context.Context, a model.Artifact) error
	UpdateStatus(ctx context.Context, id, status string, patch *model.StatusPatch) (*model.Artifact, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ArtifactClaimer provides atomic claim operations for background processing.
type ArtifactClaimer interface {
	ClaimNextPending(ctx context.Context) (*model.Artifact, error)
	ResetStaleProcessing(ctx context.Context) (int64, error)
}

// Repository combines read and write operations for the API and facade layers.
type Repository interface {
	ArtifactReader
	ArtifactWriter
}
