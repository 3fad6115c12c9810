package model

import (
	"strings"
	"testing"
	"time"
)

func TestNewArtifact_Defaults(t *testing.T) {
	a := NewArtifact("a-1", "u-1", TypeIdea, "", "Buy milk", "", "", nil)

	if a.Type != TypeIdea {
		t.Errorf("Type = %q, want %q", a.Type, TypeIdea)
	}
	if a.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", a.Title, "Buy milk")
	}
	if a.Status != StatusPending {
		t.Errorf("Status = %q, want %q", a.Status, StatusPending)
	}
	if a.SourceURL != nil {
		t.Errorf("SourceURL = %v, want nil", *a.SourceURL)
	}
	if a.Tags == nil || len(a.Tags) != 0 {
		t.Errorf("Tags = %v, want empty slice", a.Tags)
	}
	today := time.Now().UTC().Format("2006-01-02")
	if a.DayBucket != today {
		t.Errorf("DayBucket = %q, want %q", a.DayBucket, today)
	}
	if a.DayBucket != DayBucketOf(a.CreatedAt) {
		t.Errorf("DayBucket %q does not match CreatedAt %q", a.DayBucket, a.CreatedAt)
	}
}

func TestNewArtifact_URLContentBecomesArticle(t *testing.T) {
	a := NewArtifact("a-1", "u-1", TypeNote, "", "https://example.com/x", "", "", nil)

	if a.Type != TypeArticle {
		t.Errorf("Type = %q, want %q", a.Type, TypeArticle)
	}
	if a.SourceURL == nil || *a.SourceURL != "https://example.com/x" {
		t.Errorf("SourceURL = %v, want https://example.com/x", a.SourceURL)
	}
}

func TestNewArtifact_ExplicitSourceURL(t *testing.T) {
	a := NewArtifact("a-1", "u-1", TypeQuestion, "Title", "some selected text", "https://example.com/page", "", nil)

	if a.Type != TypeArticle {
		t.Errorf("Type = %q, want %q", a.Type, TypeArticle)
	}
	if a.SourceURL == nil || *a.SourceURL != "https://example.com/page" {
		t.Errorf("SourceURL = %v, want https://example.com/page", a.SourceURL)
	}
}

func TestNewArtifact_ImageOverridesURL(t *testing.T) {
	a := NewArtifact("a-1", "u-1", TypeNote, "", "https://example.com/x", "https://example.com/x", "aGVsbG8=", nil)

	if a.Type != TypeScreenshot {
		t.Errorf("Type = %q, want %q", a.Type, TypeScreenshot)
	}
	if a.ImageData == nil || *a.ImageData != "aGVsbG8=" {
		t.Errorf("ImageData = %v, want aGVsbG8=", a.ImageData)
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "Buy milk", "Buy milk"},
		{"first line only", "First line\nsecond line", "First line"},
		{"trimmed", "  padded  ", "padded"},
		{"truncated", strings.Repeat("x", 120), strings.Repeat("x", 80) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.content); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/x", true},
		{"http://example.com", true},
		{"  https://example.com  ", true},
		{"example.com", false},
		{"check out https://example.com today", false},
		{"ftp://example.com", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.in); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlayable(t *testing.T) {
	playable := map[string]bool{
		StatusPending:    true,
		StatusProcessing: false,
		StatusReady:      true,
		StatusPlaying:    false,
		StatusCompleted:  false,
	}
	for status, want := range playable {
		if got := Playable(status); got != want {
			t.Errorf("Playable(%q) = %v, want %v", status, got, want)
		}
	}
}
