package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClaudeComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "sk-ant-mock" {
			t.Errorf("x-api-key = %q, want %q", got, "sk-ant-mock")
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q, want 2023-06-01", got)
		}

		var req claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-claude" {
			t.Errorf("request model = %q, want %q", req.Model, "test-claude")
		}
		if req.MaxTokens == 0 {
			t.Error("max_tokens missing from request")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"Hello from Claude mock!"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("sk-ant-mock", WithClaudeModel("test-claude"), WithClaudeBaseURL(srv.URL))
	got, err := c.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hello from Claude mock!" {
		t.Errorf("Complete = %q, want mock response", got)
	}
}

func TestClaudeCompleteWithImage_RequestShape(t *testing.T) {
	var captured struct {
		Messages []struct {
			Content []struct {
				Type   string `json:"type"`
				Text   string `json:"text"`
				Source *struct {
					Type      string `json:"type"`
					MediaType string `json:"media_type"`
					Data      string `json:"data"`
				} `json:"source"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"a screenshot"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("sk-ant-test", WithClaudeBaseURL(srv.URL))
	// A data: prefix on the input must be stripped down to bare base64.
	got, err := c.CompleteWithImage(context.Background(), "describe this", "data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("CompleteWithImage: %v", err)
	}
	if got != "a screenshot" {
		t.Errorf("CompleteWithImage = %q, want %q", got, "a screenshot")
	}

	if len(captured.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(captured.Messages))
	}
	blocks := captured.Messages[0].Content
	if len(blocks) != 2 {
		t.Fatalf("content blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Type != "image" || blocks[0].Source == nil {
		t.Fatalf("first block = %+v, want image block", blocks[0])
	}
	if blocks[0].Source.Type != "base64" || blocks[0].Source.MediaType != "image/png" {
		t.Errorf("image source = %+v, want base64 image/png", blocks[0].Source)
	}
	if blocks[0].Source.Data != "aGVsbG8=" {
		t.Errorf("image data = %q, want bare base64", blocks[0].Source.Data)
	}
	if blocks[1].Type != "text" || blocks[1].Text != "describe this" {
		t.Errorf("second block = %+v, want text block with prompt", blocks[1])
	}
}

func TestClaudeComplete_NoRetryOn4xx(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad request"}}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("sk-ant-test", WithClaudeBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (should not retry 4xx)", attempts)
	}
}

func TestClaudeComplete_NoTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("sk-ant-test", WithClaudeBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for response without text content")
	}
}
