package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions endpoint.
// Implements the Provider interface. Unlike AssemblyAI, the call is
// synchronous: the response carries the finished transcript.
type WhisperClient struct {
	url    string
	model  string
	apiKey string
	client *http.Client
}

// whisperResponse is the parsed response from the Whisper API (verbose_json format).
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// NewWhisperClient creates a new Whisper HTTP client. apiKey may be empty
// for self-hosted endpoints that don't authenticate.
func NewWhisperClient(url, model, apiKey string) *WhisperClient {
	return &WhisperClient{
		url:    url,
		model:  model,
		apiKey: apiKey,
		client: &http.Client{},
	}
}

// Name returns the provider name.
func (wc *WhisperClient) Name() string { return "whisper" }

// Model returns the configured model identifier.
func (wc *WhisperClient) Model() string { return wc.model }

// Transcribe sends an audio file to the Whisper API and returns the result.
// Uses multipart/form-data, so it works with speaches, faster-whisper-server,
// or any OpenAI-compatible endpoint.
func (wc *WhisperClient) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	if wc.model != "" {
		w.WriteField("model", wc.model)
	}
	w.WriteField("response_format", "verbose_json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if wc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+wc.apiKey)
	}

	resp, err := wc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
	}, nil
}
