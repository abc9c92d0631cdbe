package pipeline

import "fmt"

// Stage identifies one step of the linear pipeline.
type Stage string

const (
	StageValidate   Stage = "validate"
	StageFetch      Stage = "fetch"
	StageTranscribe Stage = "transcribe"
	StageSynthesize Stage = "synthesize"
	StagePersist    Stage = "persist"
)

// Kind classifies a stage failure for callers and metrics.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindUnavailable       Kind = "unavailable"
	KindNoAudioStream     Kind = "no_audio_stream"
	KindNetworkFailure    Kind = "network_failure"
	KindTimeout           Kind = "timeout"
	KindEmptyTranscript   Kind = "empty_transcript"
	KindEmptyContent      Kind = "empty_content"
	KindPersistenceFailed Kind = "persistence_failed"
	KindCanceled          Kind = "canceled"
)

// StageError is a classified failure carrying the stage it originated from.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Detail returns a human-readable message for API responses.
func (e *StageError) Detail() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}
