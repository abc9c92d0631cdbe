package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/snarg/blogsmith/internal/database"
	"github.com/snarg/blogsmith/internal/media"
	"github.com/snarg/blogsmith/internal/metrics"
	"github.com/snarg/blogsmith/internal/synthesize"
	"github.com/snarg/blogsmith/internal/transcribe"
)

// Store persists completed articles.
type Store interface {
	InsertArticle(ctx context.Context, row *database.ArticleRow) (int64, error)
}

// EventPublishFunc is a callback for publishing pipeline observability events.
type EventPublishFunc func(evtType, runID string, payload map[string]any)

// Result is the outcome of one pipeline run. Err is nil on success. A
// persistence failure still carries Title and Content so the caller can
// retry the save without repeating the expensive upstream stages.
type Result struct {
	RunID      string
	ArticleID  int64
	Title      string
	Content    string
	SourceLink string
	Err        *StageError
}

// OK reports whether the run produced a persisted article.
func (r Result) OK() bool { return r.Err == nil }

// Options configures the orchestrator. Fetcher, Provider, Generator and
// Store are required; everything else has a usable zero value.
type Options struct {
	Fetcher   media.Fetcher
	Provider  transcribe.Provider
	Generator synthesize.Generator
	Store     Store

	// AllowedHosts overrides media.DefaultHosts for locator validation.
	AllowedHosts []string

	// StageTimeout bounds each external call. Defaults to 5 minutes.
	StageTimeout time.Duration

	Publish EventPublishFunc
	Log     zerolog.Logger
}

// Orchestrator drives one video link through fetch → transcribe →
// synthesize → persist. Each run is an independent sequential unit of work;
// concurrent runs share nothing but the store.
type Orchestrator struct {
	opts Options
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 5 * time.Minute
	}
	return &Orchestrator{opts: opts}
}

// Run executes the pipeline for one video link. It never panics or returns
// a raw error past its boundary: every outcome is a classified Result.
func (o *Orchestrator) Run(ctx context.Context, link, ownerID string) Result {
	runID := uuid.NewString()
	log := o.opts.Log.With().Str("run_id", runID).Str("owner_id", ownerID).Logger()
	res := Result{RunID: runID}

	// Validating: fail fast before any network I/O.
	if strings.TrimSpace(ownerID) == "" {
		return o.abort(log, res, StageValidate, KindInvalidInput, errors.New("missing owner"))
	}
	loc, err := media.ParseLocator(link, o.opts.AllowedHosts...)
	if err != nil {
		return o.abort(log, res, StageValidate, KindInvalidInput, err)
	}
	res.SourceLink = loc.String()

	// Fetching
	title, audio, err := o.fetch(ctx, log, runID, loc)
	if err != nil {
		return o.abort(log, res, StageFetch, classifyFetch(err), err)
	}
	res.Title = title
	// The artifact belongs to this run alone; whatever happens from here,
	// it must not outlive the run.
	defer audio.Release()

	if err := ctx.Err(); err != nil {
		return o.abort(log, res, StageTranscribe, KindCanceled, err)
	}

	// Transcribing
	transcript, err := o.transcribeStage(ctx, log, runID, audio)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return o.abort(log, res, se.Stage, se.Kind, se.Err)
		}
		return o.abort(log, res, StageTranscribe, classifyExternal(err), err)
	}

	if err := ctx.Err(); err != nil {
		return o.abort(log, res, StageSynthesize, KindCanceled, err)
	}

	// Synthesizing
	content, err := o.synthesizeStage(ctx, log, runID, transcript)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return o.abort(log, res, se.Stage, se.Kind, se.Err)
		}
		return o.abort(log, res, StageSynthesize, classifyExternal(err), err)
	}
	res.Content = content

	if err := ctx.Err(); err != nil {
		return o.abort(log, res, StagePersist, KindCanceled, err)
	}

	// Persisting, the only stage whose failure keeps the generated
	// content in the result.
	id, err := o.persist(ctx, log, runID, &database.ArticleRow{
		OwnerID:    ownerID,
		Title:      res.Title,
		SourceLink: res.SourceLink,
		Content:    content,
	})
	if err != nil {
		return o.abort(log, res, StagePersist, KindPersistenceFailed, err)
	}
	res.ArticleID = id

	metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	o.publish("run_completed", runID, map[string]any{
		"outcome":    "success",
		"article_id": id,
		"title":      res.Title,
	})
	log.Info().Int64("article_id", id).Str("title", res.Title).Msg("pipeline run complete")
	return res
}

func (o *Orchestrator) fetch(ctx context.Context, log zerolog.Logger, runID string, loc media.Locator) (string, *media.Artifact, error) {
	done := o.stageStart(log, runID, StageFetch)
	ctx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	title, audio, err := o.opts.Fetcher.Fetch(ctx, loc)
	done(err)
	return title, audio, err
}

func (o *Orchestrator) transcribeStage(ctx context.Context, log zerolog.Logger, runID string, audio *media.Artifact) (string, error) {
	done := o.stageStart(log, runID, StageTranscribe)
	tctx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	resp, err := o.opts.Provider.Transcribe(tctx, audio.Path)

	// Release as soon as the transcriber is done with the file, success or
	// not; the deferred release in Run is then a no-op.
	if relErr := audio.Release(); relErr != nil {
		log.Warn().Err(relErr).Str("artifact", audio.Path).Msg("failed to release audio artifact")
	}

	if err != nil {
		done(err)
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		err := &StageError{Stage: StageTranscribe, Kind: KindEmptyTranscript,
			Err: fmt.Errorf("provider %s returned an empty transcript", o.opts.Provider.Name())}
		done(err)
		return "", err
	}

	done(nil)
	log.Debug().
		Str("provider", o.opts.Provider.Name()).
		Str("model", o.opts.Provider.Model()).
		Int("chars", len(text)).
		Msg("transcription complete")
	return text, nil
}

func (o *Orchestrator) synthesizeStage(ctx context.Context, log zerolog.Logger, runID string, transcript string) (string, error) {
	done := o.stageStart(log, runID, StageSynthesize)
	sctx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	content, err := o.opts.Generator.Synthesize(sctx, transcript)
	if err != nil {
		done(err)
		return "", err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		err := &StageError{Stage: StageSynthesize, Kind: KindEmptyContent,
			Err: fmt.Errorf("model %s returned empty content", o.opts.Generator.Model())}
		done(err)
		return "", err
	}

	done(nil)
	log.Debug().
		Str("model", o.opts.Generator.Model()).
		Str("prompt_version", synthesize.PromptVersion()).
		Int("chars", len(content)).
		Msg("synthesis complete")
	return content, nil
}

func (o *Orchestrator) persist(ctx context.Context, log zerolog.Logger, runID string, row *database.ArticleRow) (int64, error) {
	done := o.stageStart(log, runID, StagePersist)
	pctx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	id, err := o.opts.Store.InsertArticle(pctx, row)
	done(err)
	return id, err
}

// stageStart logs and publishes a stage transition and returns a completion
// callback that records duration and outcome.
func (o *Orchestrator) stageStart(log zerolog.Logger, runID string, stage Stage) func(error) {
	start := time.Now()
	log.Debug().Str("stage", string(stage)).Msg("stage started")
	o.publish("stage_started", runID, map[string]any{"stage": string(stage)})

	return func(err error) {
		dur := time.Since(start)
		metrics.PipelineStageDuration.WithLabelValues(string(stage)).Observe(dur.Seconds())
		payload := map[string]any{
			"stage":       string(stage),
			"duration_ms": dur.Milliseconds(),
			"ok":          err == nil,
		}
		if err != nil {
			payload["error"] = err.Error()
		}
		o.publish("stage_completed", runID, payload)
		log.Debug().
			Str("stage", string(stage)).
			Dur("duration_ms", dur).
			Bool("ok", err == nil).
			Msg("stage completed")
	}
}

func (o *Orchestrator) abort(log zerolog.Logger, res Result, stage Stage, kind Kind, err error) Result {
	res.Err = &StageError{Stage: stage, Kind: kind, Err: err}

	metrics.PipelineRunsTotal.WithLabelValues("failure").Inc()
	metrics.PipelineStageFailures.WithLabelValues(string(stage), string(kind)).Inc()
	o.publish("run_completed", res.RunID, map[string]any{
		"outcome": "failure",
		"stage":   string(stage),
		"kind":    string(kind),
	})

	log.Warn().
		Err(err).
		Str("stage", string(stage)).
		Str("kind", string(kind)).
		Msg("pipeline run aborted")
	return res
}

func (o *Orchestrator) publish(evtType, runID string, payload map[string]any) {
	if o.opts.Publish != nil {
		o.opts.Publish(evtType, runID, payload)
	}
}

func classifyFetch(err error) Kind {
	switch {
	case errors.Is(err, media.ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, media.ErrNoAudioStream):
		return KindNoAudioStream
	default:
		return classifyExternal(err)
	}
}

func classifyExternal(err error) Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindNetworkFailure
	}
}
