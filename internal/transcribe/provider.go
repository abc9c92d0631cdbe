package transcribe

import "context"

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (*Response, error)
	Name() string  // "assemblyai", "whisper"
	Model() string // model identifier for logs
}

// Response is the common transcription result from any provider.
type Response struct {
	Text     string
	Language string
	Duration float64 // audio duration in seconds
}
