package engine

import (
	"context"
	"encoding/json"
	"strings"

	"drivetime/internal/model"
)

// Pipeline derives enrichment for captured artifacts: a spoken-word summary
// at processing time and a full audio script on demand.
type Pipeline struct {
	patcher   ArtifactPatcher
	extractor ContentExtractor
	model     ModelClient
}

// NewPipeline creates a pipeline with the given dependencies.
func NewPipeline(patcher ArtifactPatcher, extractor ContentExtractor, mc ModelClient) *Pipeline {
	return &Pipeline{patcher: patcher, extractor: extractor, model: mc}
}

// Enrich produces the summary patch for an artifact. It does not write to
// the store; the caller applies the patch together with the status change.
// On failure it returns a *StepError naming the step that failed.
func (p *Pipeline) Enrich(ctx context.Context, a *model.Artifact) (*model.StatusPatch, error) {
	text, extractedTitle, err := p.sourceText(ctx, a)
	if err != nil {
		return nil, &StepError{Step: "extract", Err: err}
	}

	raw, err := p.model.Complete(ctx, buildSummarizePrompt(a.Title, a.Type, text))
	if err != nil {
		return nil, &StepError{Step: "summarize", Err: err}
	}

	var result SummaryResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &result); err != nil {
		return nil, &StepError{Step: "summarize", Err: err}
	}

	patch := &model.StatusPatch{Summary: &result.Summary}
	// Article pages know their own title better than a truncated URL does.
	if extractedTitle != "" {
		patch.Title = &extractedTitle
	} else if result.Title != "" && a.Title == "" {
		patch.Title = &result.Title
	}
	return patch, nil
}

// ExpandFullText returns the artifact's full audio script, generating and
// memoizing it through the store when absent. A present fullAudioText is a
// cache hit and costs no model call.
func (p *Pipeline) ExpandFullText(ctx context.Context, a *model.Artifact) (string, error) {
	if a.FullAudioText != nil && *a.FullAudioText != "" {
		return *a.FullAudioText, nil
	}

	text, _, err := p.sourceText(ctx, a)
	if err != nil {
		return "", &StepError{Step: "extract", Err: err}
	}

	summary := ""
	if a.Summary != nil {
		summary = *a.Summary
	}

	raw, err := p.model.Complete(ctx, buildFullTextPrompt(a.Title, summary, text))
	if err != nil {
		return "", &StepError{Step: "expand", Err: err}
	}
	script := strings.TrimSpace(raw)

	// Memoize without changing status.
	if _, err := p.patcher.UpdateStatus(ctx, a.ID, a.Status, &model.StatusPatch{FullAudioText: &script}); err != nil {
		return "", &StepError{Step: "save", Err: err}
	}
	return script, nil
}

// sourceText resolves the text to feed the model: extracted page content for
// articles, a vision transcription for screenshots, the raw capture otherwise.
// The second return is the page title for articles, when known.
func (p *Pipeline) sourceText(ctx context.Context, a *model.Artifact) (string, string, error) {
	switch {
	case a.ImageData != nil && *a.ImageData != "":
		text, err := p.model.CompleteWithImage(ctx, buildScreenshotPrompt(), *a.ImageData)
		if err != nil {
			return "", "", err
		}
		return text, "", nil
	case a.SourceURL != nil && *a.SourceURL != "":
		content, err := p.extractor.Extract(ctx, *a.SourceURL)
		if err != nil {
			return "", "", err
		}
		return content.Text, content.Title, nil
	default:
		return a.RawContent, "", nil
	}
}

// StepError wraps an error with the step name that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepName returns the name of the failed pipeline step.
func (e *StepError) StepName() string {
	return e.Step
}

// stripFences removes a surrounding markdown code fence, which some models
// insist on despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
