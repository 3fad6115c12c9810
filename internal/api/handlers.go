package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"drivetime/internal/model"
)

// userFor resolves the owning user for a request: explicit value first, then
// the userId query parameter, then the configured default.
func (s *Server) userFor(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if q := r.URL.Query().Get("userId"); q != "" {
		return q
	}
	return s.defaultUser
}

// ---------------------------------------------------------------------------
// GET /api/artifacts
// ---------------------------------------------------------------------------

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	userID := s.userFor(r, "")

	artifacts, err := s.store.GetAll(r.Context(), userID)
	if err != nil {
		slog.Error("list artifacts failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to list artifacts", err.Error())
		return
	}
	if artifacts == nil {
		artifacts = []model.Artifact{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"artifacts": artifacts,
		"dayGroups": model.GroupByDay(artifacts),
	})
}

// ---------------------------------------------------------------------------
// POST /api/artifacts
// ---------------------------------------------------------------------------

type createRequest struct {
	Type      string   `json:"type"`
	Content   string   `json:"content"`
	Title     string   `json:"title"`
	SourceURL string   `json:"sourceUrl"`
	ImageData string   `json:"imageData"`
	Tags      []string `json:"tags"`
	UserID    string   `json:"userId"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" && req.ImageData == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	artifact := model.NewArtifact(
		uuid.New().String(),
		s.userFor(r, req.UserID),
		req.Type,
		req.Title,
		req.Content,
		req.SourceURL,
		req.ImageData,
		req.Tags,
	)

	if err := s.store.Save(r.Context(), artifact); err != nil {
		slog.Error("save artifact failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to save artifact", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, artifact)
}

// ---------------------------------------------------------------------------
// GET /api/artifacts/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	artifact, err := s.store.Get(r.Context(), id)
	if err != nil {
		slog.Error("get artifact failed", "artifact_id", id, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to get artifact", err.Error())
		return
	}
	if artifact == nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	writeJSON(w, http.StatusOK, artifact)
}

// ---------------------------------------------------------------------------
// PATCH /api/artifacts/{id}
// ---------------------------------------------------------------------------

type statusRequest struct {
	Status string `json:"status"`
	model.StatusPatch
}

var validStatuses = map[string]bool{
	model.StatusPending:    true,
	model.StatusProcessing: true,
	model.StatusReady:      true,
	model.StatusPlaying:    true,
	model.StatusCompleted:  true,
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	if !validStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	// Statuses are advisory labels: any current status may move to any other.
	// Only the first transitions into playing/completed stamp timestamps.
	artifact, err := s.store.UpdateStatus(r.Context(), id, req.Status, &req.StatusPatch)
	if err != nil {
		slog.Error("update status failed", "artifact_id", id, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to update artifact", err.Error())
		return
	}
	if artifact == nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	writeJSON(w, http.StatusOK, artifact)
}

// ---------------------------------------------------------------------------
// DELETE /api/artifacts/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ok, err := s.store.Delete(r.Context(), id)
	if err != nil {
		slog.Error("delete artifact failed", "artifact_id", id, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to delete artifact", err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ---------------------------------------------------------------------------
// POST /api/tts
// ---------------------------------------------------------------------------

type ttsRequest struct {
	ArtifactID string `json:"artifactId"`
	Mode       string `json:"mode"` // "summary" or "full"
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ArtifactID == "" {
		writeError(w, http.StatusBadRequest, "artifactId is required")
		return
	}
	if req.Mode == "" {
		req.Mode = "summary"
	}
	if req.Mode != "summary" && req.Mode != "full" {
		writeError(w, http.StatusBadRequest, "mode must be summary or full")
		return
	}

	artifact, err := s.store.Get(r.Context(), req.ArtifactID)
	if err != nil {
		slog.Error("get artifact failed", "artifact_id", req.ArtifactID, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to get artifact", err.Error())
		return
	}
	if artifact == nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	var text string
	if req.Mode == "full" {
		text, err = s.pipeline.ExpandFullText(r.Context(), artifact)
		if err != nil {
			slog.Error("expand full text failed", "artifact_id", artifact.ID, "error", err)
			writeErrorDetails(w, http.StatusInternalServerError, "failed to generate audio text", err.Error())
			return
		}
	} else if artifact.Summary != nil && *artifact.Summary != "" {
		text = *artifact.Summary
	} else {
		// Not yet enriched; read the capture itself.
		text = artifact.RawContent
	}

	audio, err := s.synth.Synthesize(r.Context(), text)
	if err != nil {
		slog.Error("speech synthesis failed", "artifact_id", artifact.ID, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to synthesize audio", err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}
