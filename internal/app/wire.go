package service

import (
	"context"
	"fmt"

	"github.com/okian/speechrate/internal/adapters/audio"
	"github.com/okian/speechrate/internal/adapters/ffmpeg"
	"github.com/okian/speechrate/internal/adapters/sink"
	"github.com/okian/speechrate/internal/adapters/transcribe"
	"github.com/okian/speechrate/internal/config"
	"github.com/okian/speechrate/internal/domain/pipeline"
	"github.com/okian/speechrate/pkg/logger"
)

// NewTranscriber returns the transcription backend selected by cfg.
func NewTranscriber(cfg *config.Config) (pipeline.Transcriber, error) {
	switch cfg.Transcriber {
	case config.TranscriberOpenAI:
		return transcribe.NewOpenAI(cfg.TranscriberURL, cfg.TranscriberToken, nil, nil), nil
	case config.TranscriberCommand:
		return transcribe.NewCommand(cfg.TranscriberCommand, nil), nil
	case config.TranscriberReplay:
		return transcribe.CSVReplay{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTranscriber, cfg.Transcriber)
	}
}

// NewSink returns the report destinations: always the output directory, plus
// S3 when a bucket is configured.
func NewSink(cfg *config.Config) (sink.Sink, error) {
	sinks := sink.Multi{sink.NewFile(cfg.OutputDir)}
	if s3cfg := cfg.S3(); s3cfg.Bucket != "" {
		s3sink, err := sink.NewS3(s3cfg, nil)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3sink)
	}
	return sinks, nil
}

// Build assembles a Service from cfg. A missing ffmpeg is not fatal; only
// WebM input then fails, at the normalize stage.
func Build(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.Get().Named("service")

	var transcoder audio.Transcoder
	if t, err := ffmpeg.New(ffmpeg.WithPath(cfg.FFmpegPath)); err != nil {
		log.Warn(ctx, "ffmpeg unavailable, webm recordings will fail", logger.Error(err))
	} else {
		log.Debug(ctx, "using ffmpeg", logger.String("path", t.Path()))
		transcoder = t
	}

	tr, err := NewTranscriber(cfg)
	if err != nil {
		return nil, err
	}
	out, err := NewSink(cfg)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(
		audio.NewNormalizer(transcoder, nil),
		audio.NewSegmenter(nil),
		tr,
		pipeline.WithTranscriptWriter(transcribe.FileWriter{}),
	)

	return New(p,
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithSettings(cfg.Settings()),
		WithSink(out),
		WithReportName(cfg.ReportName),
		WithLogger(log),
	), nil
}
