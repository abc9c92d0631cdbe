package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestClassifyYtdlpError(t *testing.T) {
	base := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"private", "ERROR: [youtube] abc: Private video. Sign in if you've been granted access", ErrUnavailable},
		{"removed", "ERROR: [youtube] abc: Video unavailable", ErrUnavailable},
		{"age_restricted", "ERROR: Sign in to confirm your age. This video may be age-restricted", ErrUnavailable},
		{"no_format", "ERROR: [youtube] abc: Requested format is not available", ErrNoAudioStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyYtdlpError(context.Background(), base, tt.stderr)
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%q) = %v, want %v", tt.stderr, got, tt.want)
			}
		})
	}

	t.Run("unmatched_is_generic", func(t *testing.T) {
		got := classifyYtdlpError(context.Background(), base, "ERROR: connection reset by peer")
		if errors.Is(got, ErrUnavailable) || errors.Is(got, ErrNoAudioStream) {
			t.Errorf("classify = %v, want generic failure", got)
		}
	})

	t.Run("expired_context_wins", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		got := classifyYtdlpError(ctx, base, "ERROR: Video unavailable")
		if !errors.Is(got, context.DeadlineExceeded) {
			t.Errorf("classify = %v, want deadline exceeded", got)
		}
	})
}

func TestRemovePartials(t *testing.T) {
	dir := t.TempDir()
	f := NewYtdlpFetcher("yt-dlp", dir, zerolog.Nop())

	for _, name := range []string{"abc-run1.webm", "abc-run1.mp3.part", "abc-run2.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f.removePartials("abc-run1")

	if _, err := os.Stat(filepath.Join(dir, "abc-run1.webm")); !os.IsNotExist(err) {
		t.Error("abc-run1.webm not removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "abc-run1.mp3.part")); !os.IsNotExist(err) {
		t.Error("abc-run1.mp3.part not removed")
	}
	// Another run's artifact is untouched
	if _, err := os.Stat(filepath.Join(dir, "abc-run2.mp3")); err != nil {
		t.Error("abc-run2.mp3 should survive")
	}
}
