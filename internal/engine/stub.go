package engine

import (
	"context"
	"encoding/json"
	"strings"
)

// StubExtractor returns mock extraction results (for development/testing).
type StubExtractor struct{}

func (e *StubExtractor) Extract(_ context.Context, url string) (*ExtractedContent, error) {
	return &ExtractedContent{
		Title:     "Stub article",
		Text:      "This is a stub extracted article about " + url + ". It covers the main argument of the page, a few supporting points, and a short conclusion.",
		Byline:    "Stub Author",
		WordCount: 1500,
	}, nil
}

// StubModelClient returns mock LLM responses (for development/testing).
type StubModelClient struct{}

func (m *StubModelClient) Complete(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "episode summary") {
		result := SummaryResult{
			Title:   "Stub episode",
			Summary: "This saved item covers one main idea with a couple of supporting details. The key takeaway is that the idea is worth revisiting when you are back at your desk.",
		}
		b, _ := json.Marshal(result)
		return string(b), nil
	}

	if strings.Contains(prompt, "full audio script") {
		return "Here is the full story behind the item you saved. It starts with the main idea, walks through the supporting details one by one, and closes with what you might want to do about it next.", nil
	}

	return "", nil
}

func (m *StubModelClient) CompleteWithImage(_ context.Context, _, _ string) (string, error) {
	return "A screenshot of an application window. The visible text reads: stub screenshot content for development.", nil
}

// StubSynthesizer returns a tiny fake MP3 payload (for development/testing).
type StubSynthesizer struct{}

func (s *StubSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	// An MP3 file signature followed by silence-ish padding; enough for
	// players and tests to treat it as audio.
	return append([]byte("ID3"), make([]byte, 64)...), nil
}
