package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"drivetime/internal/engine"
	"drivetime/internal/model"
	"drivetime/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := store.New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	pipeline := engine.NewPipeline(s, &engine.StubExtractor{}, &engine.StubModelClient{})
	return New(s, pipeline, "u-test"), s
}

func rpc(t *testing.T, srv *Server, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/mcp", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rr.Body.String())
	}
	return resp
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) map[string]any {
	t.Helper()
	params, _ := json.Marshal(map[string]any{"name": name, "arguments": args})
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":%s}`, params)
	resp := rpc(t, srv, body)
	if resp["error"] != nil {
		t.Fatalf("tools/call %s returned transport error: %v", name, resp["error"])
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("tools/call %s: no result in %v", name, resp)
	}
	return result
}

func saveArtifact(t *testing.T, s *store.Store, id, userID, status string) model.Artifact {
	t.Helper()
	a := model.NewArtifact(id, userID, model.TypeNote, "", "content of "+id, "", "", nil)
	a.Status = status
	if err := s.Save(t.Context(), a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return a
}

func TestInitialize(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	result := resp["result"].(map[string]any)
	if result["protocolVersion"] != protocolVersion {
		t.Errorf("protocolVersion = %v, want %s", result["protocolVersion"], protocolVersion)
	}
	info := result["serverInfo"].(map[string]any)
	if info["name"] != "drivetime" {
		t.Errorf("serverInfo.name = %v, want drivetime", info["name"])
	}
}

func TestToolsList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := rpc(t, srv, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)
	if len(tools) != 5 {
		t.Fatalf("tools = %d, want 5", len(tools))
	}
	first := tools[0].(map[string]any)
	if first["name"] != "show_drivetime" {
		t.Errorf("first tool = %v, want show_drivetime", first["name"])
	}
}

func TestUnknownMethod(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := rpc(t, srv, `{"jsonrpc":"2.0","id":3,"method":"bogus/method"}`)
	rpcErr, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error in response: %v", resp)
	}
	if rpcErr["code"].(float64) != codeMethodNotFound {
		t.Errorf("code = %v, want %d", rpcErr["code"], codeMethodNotFound)
	}
}

func TestParseError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := rpc(t, srv, `{not json`)
	rpcErr, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error in response: %v", resp)
	}
	if rpcErr["code"].(float64) != codeParseError {
		t.Errorf("code = %v, want %d", rpcErr["code"], codeParseError)
	}
}

func TestResourcesList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := rpc(t, srv, `{"jsonrpc":"2.0","id":4,"method":"resources/list"}`)
	result := resp["result"].(map[string]any)
	if resources := result["resources"].([]any); len(resources) != 0 {
		t.Errorf("resources = %v, want empty", resources)
	}
}

func TestCallUnknownTool(t *testing.T) {
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "not_a_tool", nil)
	if result["isError"] != true {
		t.Errorf("isError = %v, want true", result["isError"])
	}
	structured := result["structuredContent"].(map[string]any)
	if structured["error"] == nil {
		t.Error("structuredContent.error missing")
	}
}

func TestShowDrivetime_CountsReadyOnly(t *testing.T) {
	srv, s := newTestServer(t)
	saveArtifact(t, s, "a-ready", "u-test", model.StatusReady)
	saveArtifact(t, s, "a-pending", "u-test", model.StatusPending)

	result := callTool(t, srv, "show_drivetime", nil)
	structured := result["structuredContent"].(map[string]any)
	if structured["pendingCount"].(float64) != 1 {
		t.Errorf("pendingCount = %v, want 1 (ready only)", structured["pendingCount"])
	}
}

func TestGetTodaysEpisodes(t *testing.T) {
	srv, s := newTestServer(t)
	saveArtifact(t, s, "a-1", "u-test", model.StatusReady)
	saveArtifact(t, s, "a-2", "u-test", model.StatusPending)
	saveArtifact(t, s, "a-3", "u-test", model.StatusCompleted)

	result := callTool(t, srv, "get_todays_episodes", nil)
	structured := result["structuredContent"].(map[string]any)
	if structured["date"] != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("date = %v, want today", structured["date"])
	}
	episodes := structured["episodes"].([]any)
	if len(episodes) != 2 {
		t.Fatalf("episodes = %d, want 2 playable", len(episodes))
	}
	first := episodes[0].(map[string]any)
	if first["position"].(float64) != 1 {
		t.Errorf("first position = %v, want 1", first["position"])
	}
}

func TestGetEpisodeContent(t *testing.T) {
	srv, s := newTestServer(t)
	a := saveArtifact(t, s, "a-1", "u-test", model.StatusReady)

	result := callTool(t, srv, "get_episode_content", map[string]any{"episode_id": a.ID})
	if result["isError"] == true {
		t.Fatalf("unexpected tool error: %v", result)
	}
	structured := result["structuredContent"].(map[string]any)
	if structured["status"] != model.StatusPlaying {
		t.Errorf("status = %v, want playing", structured["status"])
	}

	got, _ := s.Get(t.Context(), a.ID)
	if got.PlayedAt == nil {
		t.Error("playedAt not stamped after get_episode_content")
	}
}

func TestGetEpisodeContent_FullModeMemoizes(t *testing.T) {
	srv, s := newTestServer(t)
	a := saveArtifact(t, s, "a-1", "u-test", model.StatusReady)

	result := callTool(t, srv, "get_episode_content", map[string]any{"episode_id": a.ID, "mode": "full"})
	structured := result["structuredContent"].(map[string]any)
	text := structured["text"].(string)
	if text == "" {
		t.Fatal("empty full text")
	}

	got, _ := s.Get(t.Context(), a.ID)
	if got.FullAudioText == nil || *got.FullAudioText != text {
		t.Error("fullAudioText not memoized in store")
	}
}

func TestGetEpisodeContent_UnknownID(t *testing.T) {
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "get_episode_content", map[string]any{"episode_id": "nope"})
	if result["isError"] != true {
		t.Errorf("isError = %v, want true", result["isError"])
	}
	structured := result["structuredContent"].(map[string]any)
	if structured["error"] == nil {
		t.Error("structuredContent.error missing")
	}
}

func TestMarkEpisodeComplete(t *testing.T) {
	srv, s := newTestServer(t)
	a := saveArtifact(t, s, "a-1", "u-test", model.StatusReady)
	saveArtifact(t, s, "a-2", "u-test", model.StatusReady)

	result := callTool(t, srv, "mark_episode_complete", map[string]any{"episode_id": a.ID})
	structured := result["structuredContent"].(map[string]any)
	if structured["status"] != model.StatusCompleted {
		t.Errorf("status = %v, want completed", structured["status"])
	}
	if structured["remaining"].(float64) != 1 {
		t.Errorf("remaining = %v, want 1", structured["remaining"])
	}

	got, _ := s.Get(t.Context(), a.ID)
	if got.CompletedAt == nil {
		t.Error("completedAt not stamped")
	}
}

func TestAddToQueue_InfersArticle(t *testing.T) {
	srv, s := newTestServer(t)

	result := callTool(t, srv, "add_to_queue", map[string]any{
		"content": "https://example.com/post",
		"type":    "note",
		"tags":    []any{"tech"},
	})
	structured := result["structuredContent"].(map[string]any)
	if structured["type"] != model.TypeArticle {
		t.Errorf("type = %v, want article", structured["type"])
	}

	got, _ := s.Get(t.Context(), structured["id"].(string))
	if got == nil {
		t.Fatal("artifact not persisted")
	}
	if got.SourceURL == nil || *got.SourceURL != "https://example.com/post" {
		t.Errorf("sourceUrl = %v, want the content URL", got.SourceURL)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "tech" {
		t.Errorf("tags = %v, want [tech]", got.Tags)
	}
}

func TestAddToQueue_MissingContent(t *testing.T) {
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "add_to_queue", nil)
	if result["isError"] != true {
		t.Errorf("isError = %v, want true", result["isError"])
	}
}

func TestStream_ConnectionReady(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/mcp", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if !strings.Contains(rr.Body.String(), "event: connection/ready") {
		t.Errorf("body = %q, want connection/ready event", rr.Body.String())
	}
}
