package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Fetch failure sentinels, matched by the orchestrator with errors.Is.
var (
	// ErrUnavailable means the video is private, removed, age-restricted,
	// or otherwise not accessible.
	ErrUnavailable = errors.New("video unavailable")

	// ErrNoAudioStream means the source offers no extractable audio.
	ErrNoAudioStream = errors.New("no audio stream")
)

// Fetcher resolves a video locator to its title and a downloaded audio artifact.
type Fetcher interface {
	Fetch(ctx context.Context, loc Locator) (title string, audio *Artifact, err error)
}

// YtdlpFetcher downloads audio through the yt-dlp binary. The binary handles
// stream selection and transcodes muxed sources to a normalized container,
// so the artifact is always audio-only mp3.
type YtdlpFetcher struct {
	binPath  string
	mediaDir string
	log      zerolog.Logger
}

// NewYtdlpFetcher creates a fetcher that shells out to the given yt-dlp
// binary and writes artifacts under mediaDir.
func NewYtdlpFetcher(binPath, mediaDir string, log zerolog.Logger) *YtdlpFetcher {
	return &YtdlpFetcher{binPath: binPath, mediaDir: mediaDir, log: log}
}

// CheckBinary checks that the configured yt-dlp binary is runnable.
// Call once at startup.
func (f *YtdlpFetcher) CheckBinary() error {
	_, err := exec.LookPath(f.binPath)
	return err
}

// Fetch downloads the audio stream for loc and resolves the video title.
// The artifact name combines the video id with a fresh UUID so concurrent
// runs for the same video never collide. On any failure, partial files
// are removed before returning.
func (f *YtdlpFetcher) Fetch(ctx context.Context, loc Locator) (string, *Artifact, error) {
	if err := os.MkdirAll(f.mediaDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create media dir: %w", err)
	}

	base := fmt.Sprintf("%s-%s", sanitize(loc.VideoID()), uuid.NewString())
	outPath := filepath.Join(f.mediaDir, base+".mp3")

	// --print after_move:title emits the title on stdout once the download
	// has finished; --no-simulate keeps the download enabled alongside it.
	cmd := exec.CommandContext(ctx, f.binPath,
		"--no-playlist",
		"--no-progress",
		"--no-simulate",
		"--print", "after_move:title",
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
		"-o", filepath.Join(f.mediaDir, base+".%(ext)s"),
		loc.String(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		f.removePartials(base)
		return "", nil, classifyYtdlpError(ctx, err, stderr.String())
	}

	title := strings.TrimSpace(stdout.String())
	if title == "" {
		title = loc.VideoID()
	}

	if _, err := os.Stat(outPath); err != nil {
		f.removePartials(base)
		return "", nil, fmt.Errorf("%w: download produced no audio file", ErrNoAudioStream)
	}

	f.log.Debug().
		Str("video_id", loc.VideoID()).
		Str("artifact", outPath).
		Dur("duration_ms", time.Since(start)).
		Msg("audio downloaded")

	return title, &Artifact{Path: outPath, ContentType: "audio/mpeg"}, nil
}

// removePartials deletes any files yt-dlp left behind for this run's base
// name (intermediate containers, .part files).
func (f *YtdlpFetcher) removePartials(base string) {
	matches, err := filepath.Glob(filepath.Join(f.mediaDir, base+"*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			f.log.Warn().Err(err).Str("file", m).Msg("failed to remove partial download")
		}
	}
}

func classifyYtdlpError(ctx context.Context, err error, stderr string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "video unavailable"),
		strings.Contains(s, "private video"),
		strings.Contains(s, "age-restricted"),
		strings.Contains(s, "age restricted"),
		strings.Contains(s, "sign in to confirm"):
		return fmt.Errorf("%w: %s", ErrUnavailable, firstLine(stderr))
	case strings.Contains(s, "requested format is not available"),
		strings.Contains(s, "no audio"):
		return fmt.Errorf("%w: %s", ErrNoAudioStream, firstLine(stderr))
	}
	return fmt.Errorf("yt-dlp: %w: %s", err, firstLine(stderr))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// sanitize strips path separators and other unsafe characters from a video
// id before it becomes part of a filename.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
