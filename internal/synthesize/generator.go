package synthesize

import "context"

// Generator is the interface for text-generation backends that compose an
// article from a transcript.
type Generator interface {
	Synthesize(ctx context.Context, transcript string) (string, error)
	Model() string // model identifier for logs
}
