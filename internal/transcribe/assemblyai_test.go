package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestAssemblyAI(t *testing.T, handler http.Handler) *AssemblyAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewAssemblyAIClient("test-key")
	c.baseURL = srv.URL
	c.pollInterval = 5 * time.Millisecond
	return c
}

func TestAssemblyAITranscribe(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/u/1"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["audio_url"] != "https://cdn.example/u/1" {
			t.Errorf("audio_url = %q", body["audio_url"])
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "tr_1", "status": "queued"})
	})
	mux.HandleFunc("/transcript/tr_1", func(w http.ResponseWriter, r *http.Request) {
		// First poll still processing, second completes
		if polls.Add(1) < 2 {
			json.NewEncoder(w).Encode(map[string]string{"id": "tr_1", "status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":             "tr_1",
			"status":         "completed",
			"text":           "Caching stores computed results...",
			"language_code":  "en",
			"audio_duration": 5.0,
		})
	})

	c := newTestAssemblyAI(t, mux)
	resp, err := c.Transcribe(context.Background(), writeTestAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if resp.Text != "Caching stores computed results..." {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Language != "en" {
		t.Errorf("Language = %q", resp.Language)
	}
	if polls.Load() < 2 {
		t.Errorf("polls = %d, want >= 2", polls.Load())
	}
}

func TestAssemblyAITranscribeJobError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/u/2"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "tr_2", "status": "queued"})
	})
	mux.HandleFunc("/transcript/tr_2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "tr_2", "status": "error", "error": "audio too short"})
	})

	c := newTestAssemblyAI(t, mux)
	_, err := c.Transcribe(context.Background(), writeTestAudio(t))
	if err == nil {
		t.Fatal("Transcribe succeeded, want job error")
	}
	if !strings.Contains(err.Error(), "audio too short") {
		t.Errorf("error = %v, want job failure detail", err)
	}
}

func TestAssemblyAITranscribePollTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/u/3"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "tr_3", "status": "queued"})
	})
	mux.HandleFunc("/transcript/tr_3", func(w http.ResponseWriter, r *http.Request) {
		// Never completes
		json.NewEncoder(w).Encode(map[string]string{"id": "tr_3", "status": "processing"})
	})

	c := newTestAssemblyAI(t, mux)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Transcribe(ctx, writeTestAudio(t))
	if err == nil {
		t.Fatal("Transcribe succeeded, want deadline error")
	}
	if ctx.Err() == nil {
		t.Error("context not expired; poll returned early for another reason")
	}
}

func TestAssemblyAIUploadAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	})

	c := newTestAssemblyAI(t, mux)
	_, err := c.Transcribe(context.Background(), writeTestAudio(t))
	if err == nil {
		t.Fatal("Transcribe succeeded, want upload error")
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("error = %v, want status 401", err)
	}
}
