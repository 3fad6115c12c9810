package worker

import (
	"context"
	"log/slog"
	"time"

	"drivetime/internal/model"
)

// Enricher produces the summary patch for a single claimed artifact.
type Enricher interface {
	Enrich(ctx context.Context, a *model.Artifact) (*model.StatusPatch, error)
}

// ArtifactClaimer provides atomic claim and status update operations.
type ArtifactClaimer interface {
	ClaimNextPending(ctx context.Context) (*model.Artifact, error)
	UpdateStatus(ctx context.Context, id, status string, patch *model.StatusPatch) (*model.Artifact, error)
}

// Worker polls for pending artifacts and enriches them.
type Worker struct {
	claimer  ArtifactClaimer
	enricher Enricher
	interval time.Duration
}

// New creates a new Worker.
func New(claimer ArtifactClaimer, enricher Enricher, interval time.Duration) *Worker {
	return &Worker{claimer: claimer, enricher: enricher, interval: interval}
}

// Start begins the polling loop. It blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("worker started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped")
			return
		default:
		}

		artifact, err := w.claimer.ClaimNextPending(ctx)
		if err != nil {
			slog.Error("worker claim error", "error", err)
			w.sleep(ctx)
			continue
		}
		if artifact == nil {
			w.sleep(ctx)
			continue
		}

		slog.Info("enriching artifact", "artifact_id", artifact.ID, "type", artifact.Type, "title", artifact.Title)
		patch, err := w.enricher.Enrich(ctx, artifact)
		if err != nil {
			// There is no failed status; the artifact goes back to pending
			// and a later tick retries it.
			slog.Error("enrichment failed", "artifact_id", artifact.ID, "error", err)
			if _, sErr := w.claimer.UpdateStatus(ctx, artifact.ID, model.StatusPending, nil); sErr != nil {
				slog.Error("failed to reset artifact to pending", "artifact_id", artifact.ID, "error", sErr)
			}
			w.sleep(ctx)
			continue
		}

		if _, err := w.claimer.UpdateStatus(ctx, artifact.ID, model.StatusReady, patch); err != nil {
			slog.Error("failed to set ready status", "artifact_id", artifact.ID, "error", err)
		} else {
			slog.Info("artifact is now ready", "artifact_id", artifact.ID)
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.interval):
	}
}
