package engine

import (
	"context"

	"drivetime/internal/model"
)

// ModelClient abstracts LLM calls. Implementations can wrap OpenAI, Claude, etc.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// CompleteWithImage sends a prompt together with a base64-encoded image.
	CompleteWithImage(ctx context.Context, prompt, imageBase64 string) (string, error)
}

// Synthesizer abstracts text-to-speech. Synthesize returns encoded MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ContentExtractor abstracts web content extraction.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (*ExtractedContent, error)
}

// ExtractedContent holds the result of content extraction.
type ExtractedContent struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	Byline    string `json:"byline,omitempty"`
	WordCount int    `json:"word_count"`
}

// SummaryResult is the structured output of the summarize step.
type SummaryResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ArtifactPatcher applies enrichment results back to stored artifacts.
// *store.Store satisfies this.
type ArtifactPatcher interface {
	UpdateStatus(ctx context.Context, id, status string, patch *model.StatusPatch) (*model.Artifact, error)
}
