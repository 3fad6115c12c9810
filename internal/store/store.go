package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"drivetime/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ ArtifactReader  = (*Store)(nil)
	_ ArtifactWriter  = (*Store)(nil)
	_ ArtifactClaimer = (*Store)(nil)
)

// Store provides data access to the SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	// Ensure the schema_version table exists.
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh database: initialize to version 0.
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// migrations is an ordered list of migration functions.
	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: initial schema
	}
	if len(migrations) != currentSchemaVersion {
		return fmt.Errorf("schema version %d does not match %d migrations", currentSchemaVersion, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}

	return nil
}

// migrateV1 creates the initial schema (v0 → v1).
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		type            TEXT NOT NULL,
		title           TEXT NOT NULL DEFAULT '',
		raw_content     TEXT NOT NULL DEFAULT '',
		summary         TEXT,
		full_audio_text TEXT,
		source_url      TEXT,
		image_data      TEXT,
		status          TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		played_at       TEXT,
		completed_at    TEXT,
		tags            TEXT NOT NULL DEFAULT '[]',
		day_bucket      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_user_created ON artifacts(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_artifacts_user_status ON artifacts(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_artifacts_user_day ON artifacts(user_id, day_bucket);
	`
	_, err := s.db.Exec(schema)
	return err
}

// artifactColumns is the canonical column list matching scanArtifact.
const artifactColumns = `id, user_id, type, title, raw_content, summary, full_audio_text, source_url, image_data, status, created_at, played_at, completed_at, tags, day_bucket`

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Get returns a single artifact by id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*model.Artifact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// GetAll returns all artifacts for a user, newest first.
func (s *Store) GetAll(ctx context.Context, userID string) ([]model.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
}

// GetByDay returns a user's artifacts for one day bucket, newest first.
func (s *Store) GetByDay(ctx context.Context, userID, date string) ([]model.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE user_id = ? AND day_bucket = ? ORDER BY created_at DESC`,
		userID, date)
}

// GetByStatus returns a user's artifacts with the given status, newest first.
func (s *Store) GetByStatus(ctx context.Context, userID, status string) ([]model.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE user_id = ? AND status = ? ORDER BY created_at DESC`,
		userID, status)
}

// GetPending returns a user's READY artifacts. The name is historical: the
// player treats both pending and ready artifacts as playable, but this query
// has always filtered on ready, and callers depend on that.
func (s *Store) GetPending(ctx context.Context, userID string) ([]model.Artifact, error) {
	return s.GetByStatus(ctx, userID, model.StatusReady)
}

// GetDayGroups returns per-day buckets with status counts, newest day first.
func (s *Store) GetDayGroups(ctx context.Context, userID string) ([]model.DayGroup, error) {
	artifacts, err := s.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.GroupByDay(artifacts), nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Save inserts or fully replaces an artifact keyed by id.
func (s *Store) Save(ctx context.Context, a model.Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			type = excluded.type,
			title = excluded.title,
			raw_content = excluded.raw_content,
			summary = excluded.summary,
			full_audio_text = excluded.full_audio_text,
			source_url = excluded.source_url,
			image_data = excluded.image_data,
			status = excluded.status,
			created_at = excluded.created_at,
			played_at = excluded.played_at,
			completed_at = excluded.completed_at,
			tags = excluded.tags,
			day_bucket = excluded.day_bucket`,
		a.ID, a.UserID, a.Type, a.Title, a.RawContent, a.Summary, a.FullAudioText,
		a.SourceURL, a.ImageData, a.Status, a.CreatedAt, a.PlayedAt, a.CompletedAt,
		marshalTags(a.Tags), a.DayBucket,
	)
	return err
}

// UpdateStatus sets an artifact's status and merges any patch fields, in a
// single statement. Entering "playing" stamps played_at and entering
// "completed" stamps completed_at, each only on the first transition; later
// transitions leave the timestamps untouched. Returns nil if the artifact
// does not exist.
func (s *Store) UpdateStatus(ctx context.Context, id, status string, patch *model.StatusPatch) (*model.Artifact, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	var title, summary, fullAudioText *string
	var tags any
	if patch != nil {
		title = patch.Title
		summary = patch.Summary
		fullAudioText = patch.FullAudioText
		if patch.Tags != nil {
			tags = marshalTags(patch.Tags)
		}
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE artifacts SET
			status = ?,
			played_at    = CASE WHEN ? = 'playing'   AND played_at    IS NULL THEN ? ELSE played_at    END,
			completed_at = CASE WHEN ? = 'completed' AND completed_at IS NULL THEN ? ELSE completed_at END,
			title           = COALESCE(?, title),
			summary         = COALESCE(?, summary),
			full_audio_text = COALESCE(?, full_audio_text),
			tags            = COALESCE(?, tags)
		WHERE id = ?
		RETURNING `+artifactColumns,
		status, status, now, status, now, title, summary, fullAudioText, tags, id,
	)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// Delete removes an artifact. It reports whether a row was actually deleted.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---------------------------------------------------------------------------
// Worker support
// ---------------------------------------------------------------------------

// ClaimNextPending atomically picks the oldest pending artifact and sets it
// to processing. Returns nil if no artifact is available.
func (s *Store) ClaimNextPending(ctx context.Context) (*model.Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE artifacts SET status = ?
		WHERE id = (SELECT id FROM artifacts WHERE status = ? ORDER BY created_at ASC LIMIT 1)
		RETURNING `+artifactColumns,
		model.StatusProcessing, model.StatusPending,
	)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ResetStaleProcessing resets any processing artifacts back to pending (for
// server restart).
func (s *Store) ResetStaleProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE artifacts SET status = ? WHERE status = ?`,
		model.StatusPending, model.StatusProcessing)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *Store) query(ctx context.Context, query string, args ...any) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*model.Artifact, error) {
	var a model.Artifact
	var tags string
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.RawContent,
		&a.Summary, &a.FullAudioText, &a.SourceURL, &a.ImageData,
		&a.Status, &a.CreatedAt, &a.PlayedAt, &a.CompletedAt, &tags, &a.DayBucket)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", a.ID, err)
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return &a, nil
}

// marshalTags encodes tags as a JSON array string; SQLite has no array type.
func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}
