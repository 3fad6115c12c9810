package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SpeechClient implements Synthesizer using the OpenAI Audio Speech API.
type SpeechClient struct {
	apiKey     string
	baseURL    string
	model      string
	voice      string
	httpClient *http.Client
}

// SpeechOption configures the speech client.
type SpeechOption func(*SpeechClient)

// WithSpeechModel sets the TTS model name (default: tts-1).
func WithSpeechModel(model string) SpeechOption {
	return func(c *SpeechClient) { c.model = model }
}

// WithVoice sets the synthesis voice (default: alloy).
func WithVoice(voice string) SpeechOption {
	return func(c *SpeechClient) { c.voice = voice }
}

// WithSpeechBaseURL overrides the API endpoint.
func WithSpeechBaseURL(url string) SpeechOption {
	return func(c *SpeechClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithSpeechHTTPTimeout overrides the request timeout.
func WithSpeechHTTPTimeout(d time.Duration) SpeechOption {
	return func(c *SpeechClient) { c.httpClient.Timeout = d }
}

// NewSpeechClient creates a new OpenAI TTS client.
func NewSpeechClient(apiKey string, opts ...SpeechOption) *SpeechClient {
	c := &SpeechClient{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		model:   "tts-1",
		voice:   "alloy",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// maxSpeechInput is the API's input character limit.
const maxSpeechInput = 4096

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize converts text to MP3 audio. Input beyond the API limit is cut
// at the last word boundary; the truncation is logged so long scripts are
// visible in the worker output.
func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if r := []rune(text); len(r) > maxSpeechInput {
		cut := string(r[:maxSpeechInput])
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		slog.Warn("speech input truncated", "runes", len(r), "limit", maxSpeechInput)
		text = cut
	}
	reqBody := speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "mp3",
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	const maxAttempts = 2
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		audio, err := c.doRequest(ctx, body)
		if err == nil {
			return audio, nil
		}
		lastErr = err

		var ae *apiError
		if errors.As(err, &ae) && !ae.isRetryable() {
			return nil, fmt.Errorf("speech: %w", err)
		}

		if attempt < maxAttempts-1 {
			backoff := time.Duration(attempt+1) * 2 * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("speech: %w", lastErr)
}

func (c *SpeechClient) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
