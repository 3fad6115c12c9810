package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"drivetime/internal/model"
)

// toolResult is the dual-shaped tool response: text for conversational
// consumption plus a structured payload for programmatic use. Tool-level
// failures set IsError instead of becoming transport faults.
type toolResult struct {
	Content           []contentItem `json:"content"`
	StructuredContent any           `json:"structuredContent,omitempty"`
	IsError           bool          `json:"isError,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(text string, structured any) *toolResult {
	return &toolResult{
		Content:           []contentItem{{Type: "text", Text: text}},
		StructuredContent: structured,
	}
}

func errorResult(msg string) *toolResult {
	return &toolResult{
		Content:           []contentItem{{Type: "text", Text: msg}},
		StructuredContent: map[string]string{"error": msg},
		IsError:           true,
	}
}

type toolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func schema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func toolCatalogue() []toolDef {
	return []toolDef{
		{
			Name:        "show_drivetime",
			Description: "Show the DriveTime player and how many episodes are ready to play.",
			InputSchema: schema(map[string]any{
				"user_id": map[string]any{"type": "string", "description": "Owner of the queue; defaults to the local user."},
			}),
		},
		{
			Name:        "get_todays_episodes",
			Description: "List today's episodes with their queue positions.",
			InputSchema: schema(map[string]any{
				"user_id": map[string]any{"type": "string"},
				"status":  map[string]any{"type": "string", "description": "Optional status filter; defaults to playable (pending or ready)."},
			}),
		},
		{
			Name:        "get_episode_content",
			Description: "Fetch one episode's text for playback and mark it as playing. Use mode 'full' for the expanded audio script.",
			InputSchema: schema(map[string]any{
				"episode_id": map[string]any{"type": "string"},
				"mode":       map[string]any{"type": "string", "enum": []string{"summary", "full"}},
			}, "episode_id"),
		},
		{
			Name:        "mark_episode_complete",
			Description: "Mark an episode as completed and report how many remain.",
			InputSchema: schema(map[string]any{
				"episode_id": map[string]any{"type": "string"},
			}, "episode_id"),
		},
		{
			Name:        "add_to_queue",
			Description: "Save a new idea, note, question, or article URL to the DriveTime queue.",
			InputSchema: schema(map[string]any{
				"content": map[string]any{"type": "string"},
				"type":    map[string]any{"type": "string", "enum": []string{"idea", "article", "question", "note"}},
				"title":   map[string]any{"type": "string"},
				"tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"user_id": map[string]any{"type": "string"},
			}, "content"),
		},
	}
}

// callTool dispatches a named tool. The returned error is reserved for
// genuinely unexpected failures (store/LLM faults); everything user-facing is
// an errorResult.
func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (*toolResult, error) {
	switch name {
	case "show_drivetime":
		return s.showDrivetime(ctx, args)
	case "get_todays_episodes":
		return s.todaysEpisodes(ctx, args)
	case "get_episode_content":
		return s.episodeContent(ctx, args)
	case "mark_episode_complete":
		return s.markComplete(ctx, args)
	case "add_to_queue":
		return s.addToQueue(ctx, args)
	default:
		return errorResult(fmt.Sprintf("unknown tool: %s", name)), nil
	}
}

func (s *Server) showDrivetime(ctx context.Context, args map[string]any) (*toolResult, error) {
	userID := argString(args, "user_id", s.defaultUser)

	pending, err := s.store.GetPending(ctx, userID)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("DriveTime is ready. You have %d episode(s) ready to play.", len(pending))
	return textResult(msg, map[string]any{
		"pendingCount": len(pending),
		"message":      msg,
	}), nil
}

// episodeListing is one queue entry with its 1-based position.
type episodeListing struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Status   string `json:"status"`
}

func (s *Server) todaysEpisodes(ctx context.Context, args map[string]any) (*toolResult, error) {
	userID := argString(args, "user_id", s.defaultUser)
	statusFilter := argString(args, "status", "")
	today := time.Now().UTC().Format("2006-01-02")

	artifacts, err := s.store.GetByDay(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	var episodes []episodeListing
	for _, a := range artifacts {
		if statusFilter != "" {
			if a.Status != statusFilter {
				continue
			}
		} else if !model.Playable(a.Status) {
			continue
		}
		episodes = append(episodes, episodeListing{
			Position: len(episodes) + 1,
			ID:       a.ID,
			Title:    a.Title,
			Type:     a.Type,
			Status:   a.Status,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d episode(s) for today.", len(episodes))
	for _, e := range episodes {
		fmt.Fprintf(&b, " %d. %s (%s).", e.Position, e.Title, e.Type)
	}
	return textResult(b.String(), map[string]any{
		"date":     today,
		"episodes": episodes,
	}), nil
}

func (s *Server) episodeContent(ctx context.Context, args map[string]any) (*toolResult, error) {
	id := argString(args, "episode_id", "")
	if id == "" {
		return errorResult("episode_id is required"), nil
	}
	mode := argString(args, "mode", "summary")

	// Marking the episode playing stamps playedAt on the first listen.
	artifact, err := s.store.UpdateStatus(ctx, id, model.StatusPlaying, nil)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return errorResult(fmt.Sprintf("episode not found: %s", id)), nil
	}

	var text string
	if mode == "full" {
		text, err = s.pipeline.ExpandFullText(ctx, artifact)
		if err != nil {
			return errorResult(fmt.Sprintf("could not expand episode: %v", err)), nil
		}
	} else if artifact.Summary != nil && *artifact.Summary != "" {
		text = *artifact.Summary
	} else {
		text = artifact.RawContent
	}

	return textResult(text, map[string]any{
		"id":     artifact.ID,
		"title":  artifact.Title,
		"mode":   mode,
		"status": artifact.Status,
		"text":   text,
	}), nil
}

func (s *Server) markComplete(ctx context.Context, args map[string]any) (*toolResult, error) {
	id := argString(args, "episode_id", "")
	if id == "" {
		return errorResult("episode_id is required"), nil
	}

	artifact, err := s.store.UpdateStatus(ctx, id, model.StatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return errorResult(fmt.Sprintf("episode not found: %s", id)), nil
	}

	// Remaining = still-playable episodes from the same day's queue.
	remaining := 0
	day, err := s.store.GetByDay(ctx, artifact.UserID, artifact.DayBucket)
	if err != nil {
		return nil, err
	}
	for _, a := range day {
		if model.Playable(a.Status) {
			remaining++
		}
	}

	msg := fmt.Sprintf("Episode complete. %d episode(s) remaining.", remaining)
	return textResult(msg, map[string]any{
		"id":        artifact.ID,
		"status":    artifact.Status,
		"remaining": remaining,
	}), nil
}

func (s *Server) addToQueue(ctx context.Context, args map[string]any) (*toolResult, error) {
	content := argString(args, "content", "")
	if content == "" {
		return errorResult("content is required"), nil
	}

	artifact := model.NewArtifact(
		uuid.New().String(),
		argString(args, "user_id", s.defaultUser),
		argString(args, "type", model.TypeNote),
		argString(args, "title", ""),
		content,
		"",
		"",
		argStrings(args, "tags"),
	)

	if err := s.store.Save(ctx, artifact); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Added %q to your DriveTime queue as a %s.", artifact.Title, artifact.Type)
	return textResult(msg, map[string]any{
		"id":     artifact.ID,
		"type":   artifact.Type,
		"title":  artifact.Title,
		"status": artifact.Status,
	}), nil
}

// ---------------------------------------------------------------------------
// argument helpers
// ---------------------------------------------------------------------------

func argString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func argStrings(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
