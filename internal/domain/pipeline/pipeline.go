// Package pipeline moves one recording through normalization, silence
// removal, transcription and rate extraction.
package pipeline

import (
	"context"
	"fmt"
	"time"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/internal/domain/rate"
	"github.com/okian/speechrate/pkg/logger"
	"github.com/okian/speechrate/pkg/metrics"
)

// Normalizer converts a raw recording to the canonical WAV container.
type Normalizer interface {
	Normalize(ctx context.Context, path string) (string, error)
}

// Segmenter writes a silence-stripped copy of a canonical recording.
type Segmenter interface {
	RemoveSilence(ctx context.Context, path string, seg model.Segmentation) (string, model.SegmentationResult, error)
}

// Transcriber returns the timestamped words of a recording. Zero spans is a
// legal result.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string, cfg model.Transcription) ([]model.WordSpan, error)
}

// TranscriptWriter persists a transcript next to its audio.
type TranscriptWriter interface {
	WriteTranscript(ctx context.Context, path string, spans []model.WordSpan) error
}

// Pipeline runs the per-file stages. It holds no per-run state and is safe
// for concurrent use when its collaborators are.
type Pipeline struct {
	normalizer  Normalizer
	segmenter   Segmenter
	transcriber Transcriber
	transcripts TranscriptWriter
	logger      logger.Logger
}

// New creates a pipeline from its stage collaborators.
func New(n Normalizer, s Segmenter, t Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		normalizer:  n,
		segmenter:   s,
		transcriber: t,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("pipeline")
	}
	return p
}

// Run advances rec until RatesExtracted or the first failing stage. The
// returned error is rec.Err.
func (p *Pipeline) Run(ctx context.Context, rec *model.FileRecord, settings model.Settings) error {
	log := p.logger.With(logger.String("recording", rec.ID.String()))

	steps := []struct {
		stage model.Stage
		run   func(context.Context, *model.FileRecord, model.Settings) error
	}{
		{model.StageNormalized, p.normalize},
		{model.StageDesilenced, p.desilence},
		{model.StageTranscribed, p.transcribe},
		{model.StageRatesExtracted, p.extract},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			rec.Fail(step.stage, err)
			return rec.Err
		}
		start := time.Now()
		err := step.run(ctx, rec, settings)
		metrics.RecordStageLatency(step.stage.String(), time.Since(start))
		if err != nil {
			rec.Fail(step.stage, err)
			metrics.RecordRecordingFailed(step.stage.String(), model.Reason(err))
			log.Error(ctx, "recording failed",
				logger.String("stage", step.stage.String()),
				logger.Error(err))
			return rec.Err
		}
		log.Debug(ctx, "stage completed", logger.String("stage", step.stage.String()))
	}

	metrics.RecordRecordingProcessed()
	return nil
}

func (p *Pipeline) normalize(ctx context.Context, rec *model.FileRecord, _ model.Settings) error {
	canonical, err := p.normalizer.Normalize(ctx, rec.RawPath)
	if err != nil {
		return err
	}
	rec.Advance(model.StageNormalized, canonical)
	return nil
}

func (p *Pipeline) desilence(ctx context.Context, rec *model.FileRecord, settings model.Settings) error {
	path, res, err := p.segmenter.RemoveSilence(ctx, rec.CanonicalPath, settings.Segmentation)
	if err != nil {
		return err
	}
	rec.Loudness = res.Loudness
	metrics.RecordInputLoudness(res.Loudness.DBFS)
	metrics.RecordSilenceRemoved(res.RemovedRatio())
	if res.Output <= 0 {
		return fmt.Errorf("%w: %d speech chunks in %s", model.ErrEmptyAudio, res.Chunks, res.Input)
	}
	rec.Advance(model.StageDesilenced, path)
	return nil
}

func (p *Pipeline) transcribe(ctx context.Context, rec *model.FileRecord, settings model.Settings) error {
	spans, err := p.transcriber.Transcribe(ctx, rec.DesilencedPath, settings.Transcription)
	if err != nil {
		return err
	}
	metrics.RecordWordsTranscribed(len(spans))
	if len(spans) == 0 {
		return model.ErrNoTranscript
	}
	path := model.TranscriptPath(rec.DesilencedPath)
	if p.transcripts != nil {
		if err := p.transcripts.WriteTranscript(ctx, path, spans); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	}
	rec.Spans = spans
	rec.Advance(model.StageTranscribed, path)
	return nil
}

func (p *Pipeline) extract(ctx context.Context, rec *model.FileRecord, _ model.Settings) error {
	samples, dropped := rate.Extract(ctx, rec.Spans)
	rec.Dropped = dropped
	metrics.RecordWordsDropped(dropped)
	if len(samples) == 0 {
		return fmt.Errorf("%w: %d spans dropped", model.ErrNoValidRate, dropped)
	}
	rec.Samples = samples
	rec.Advance(model.StageRatesExtracted, "")
	return nil
}
