package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const assemblyAIBaseURL = "https://api.assemblyai.com/v2"

// AssemblyAIClient calls the AssemblyAI speech-to-text API.
// Implements the Provider interface.
//
// AssemblyAI is asynchronous: the audio is uploaded, a transcript job is
// submitted, and the job is polled until it completes. The caller's context
// bounds the whole sequence; hitting the deadline mid-poll surfaces as
// context.DeadlineExceeded, never an indefinite hang.
type AssemblyAIClient struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	client       *http.Client
}

// assemblyAIUploadResponse is the JSON response from the upload endpoint.
type assemblyAIUploadResponse struct {
	UploadURL string `json:"upload_url"`
}

// assemblyAITranscript is the JSON shape of a transcript job.
type assemblyAITranscript struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"` // "queued", "processing", "completed", "error"
	Text          string  `json:"text"`
	LanguageCode  string  `json:"language_code"`
	AudioDuration float64 `json:"audio_duration"`
	Error         string  `json:"error"`
}

// NewAssemblyAIClient creates a new AssemblyAI client.
func NewAssemblyAIClient(apiKey string) *AssemblyAIClient {
	return &AssemblyAIClient{
		apiKey:       apiKey,
		baseURL:      assemblyAIBaseURL,
		pollInterval: 3 * time.Second,
		client:       &http.Client{},
	}
}

// Name returns the provider name.
func (c *AssemblyAIClient) Name() string { return "assemblyai" }

// Model returns the model identifier.
func (c *AssemblyAIClient) Model() string { return "assemblyai-default" }

// Transcribe uploads the audio file, submits a transcript job, and polls
// until the job completes or ctx expires.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	uploadURL, err := c.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	id, err := c.submit(ctx, uploadURL)
	if err != nil {
		return nil, err
	}

	return c.poll(ctx, id)
}

func (c *AssemblyAIClient) upload(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", f)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out assemblyAIUploadResponse
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}
	return out.UploadURL, nil
}

func (c *AssemblyAIClient) submit(ctx context.Context, audioURL string) (string, error) {
	body, _ := json.Marshal(map[string]string{"audio_url": audioURL})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out assemblyAITranscript
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("submit transcript: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("submit response missing transcript id")
	}
	return out.ID, nil
}

func (c *AssemblyAIClient) poll(ctx context.Context, id string) (*Response, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+id, nil)
		if err != nil {
			return nil, fmt.Errorf("create poll request: %w", err)
		}
		req.Header.Set("Authorization", c.apiKey)

		var tr assemblyAITranscript
		if err := c.do(req, &tr); err != nil {
			return nil, fmt.Errorf("poll transcript %s: %w", id, err)
		}

		switch tr.Status {
		case "completed":
			return &Response{
				Text:     tr.Text,
				Language: tr.LanguageCode,
				Duration: tr.AudioDuration,
			}, nil
		case "error":
			return nil, fmt.Errorf("assemblyai transcript %s failed: %s", id, tr.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *AssemblyAIClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("assemblyai API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
