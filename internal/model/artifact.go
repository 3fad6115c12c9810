package model

import (
	"net/url"
	"strings"
	"time"
)

// Artifact type constants
const (
	TypeIdea       = "idea"
	TypeArticle    = "article"
	TypeQuestion   = "question"
	TypeScreenshot = "screenshot"
	TypeNote       = "note"
)

// Status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusPlaying    = "playing"
	StatusCompleted  = "completed"
)

// maxTitleRunes is the length captured content is cut to when no title is given.
const maxTitleRunes = 80

// Artifact represents a single captured piece of content with playback lifecycle.
type Artifact struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	RawContent    string   `json:"rawContent"`
	Summary       *string  `json:"summary,omitempty"`
	FullAudioText *string  `json:"fullAudioText,omitempty"`
	SourceURL     *string  `json:"sourceUrl,omitempty"`
	ImageData     *string  `json:"imageData,omitempty"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"createdAt"`
	PlayedAt      *string  `json:"playedAt,omitempty"`
	CompletedAt   *string  `json:"completedAt,omitempty"`
	Tags          []string `json:"tags"`
	DayBucket     string   `json:"dayBucket"`
}

// StatusPatch carries the optional fields a status update may merge into an
// artifact. Nil fields are left untouched.
type StatusPatch struct {
	Title         *string  `json:"title,omitempty"`
	Summary       *string  `json:"summary,omitempty"`
	FullAudioText *string  `json:"fullAudioText,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// NewArtifact creates a pending Artifact from captured input.
//
// The effective type is coerced: image data forces "screenshot", a URL-shaped
// content string (or an explicit source URL) forces "article", otherwise the
// requested type is kept, defaulting to "note". A missing title is derived
// from the content.
func NewArtifact(id, userID, requestedType, title, content, sourceURL, imageData string, tags []string) Artifact {
	now := time.Now().UTC().Format(time.RFC3339)

	typ := requestedType
	if typ == "" {
		typ = TypeNote
	}

	var srcPtr, imgPtr *string
	switch {
	case imageData != "":
		typ = TypeScreenshot
		imgPtr = &imageData
		if sourceURL != "" {
			srcPtr = &sourceURL
		}
	case sourceURL != "":
		typ = TypeArticle
		srcPtr = &sourceURL
	case IsURL(content):
		typ = TypeArticle
		u := strings.TrimSpace(content)
		srcPtr = &u
	}

	if title == "" {
		title = DeriveTitle(content)
	}
	if tags == nil {
		tags = []string{}
	}

	return Artifact{
		ID:         id,
		UserID:     userID,
		Type:       typ,
		Title:      title,
		RawContent: content,
		SourceURL:  srcPtr,
		ImageData:  imgPtr,
		Status:     StatusPending,
		CreatedAt:  now,
		Tags:       tags,
		DayBucket:  DayBucketOf(now),
	}
}

// Playable reports whether an artifact with the given status may enter the
// playback queue.
func Playable(status string) bool {
	return status == StatusPending || status == StatusReady
}

// IsURL reports whether s looks like a single http(s) URL.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// DeriveTitle produces a title from raw content: the first line, cut to
// maxTitleRunes runes.
func DeriveTitle(content string) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	runes := []rune(line)
	if len(runes) > maxTitleRunes {
		return string(runes[:maxTitleRunes]) + "..."
	}
	return line
}

// DayBucketOf returns the YYYY-MM-DD partition key for an RFC3339 timestamp.
func DayBucketOf(createdAt string) string {
	if len(createdAt) < 10 {
		return createdAt
	}
	return createdAt[:10]
}
