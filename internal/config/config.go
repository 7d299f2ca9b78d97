// Package config defines the pipeline configuration and how it is loaded.
//
// Conventions:
// - Flat snake_case keys so file and env names line up.
// - New(ctx) returns the defaults; Load layers file and env on top.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"runtime"
	"slices"

	"github.com/okian/speechrate/internal/adapters/sink"
	model "github.com/okian/speechrate/internal/domain/model"
)

// Transcriber backends.
const (
	TranscriberOpenAI  = "openai"
	TranscriberCommand = "command"
	TranscriberReplay  = "replay"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// DataDir is scanned for recordings.
	DataDir string `koanf:"data_dir" validate:"required"`
	// OutputDir receives the report when no other sink is set.
	OutputDir string `koanf:"output_dir" validate:"required"`
	// ReportName is the file name of the published report.
	ReportName string `koanf:"report_name" validate:"required,max=255"`

	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1,lte=1024"`
	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// FFmpegPath overrides ffmpeg discovery.
	FFmpegPath string `koanf:"ffmpeg_path"`

	MinSilenceMs         int     `koanf:"min_silence_ms" validate:"gte=1"`
	SilenceThresholdDBFS float64 `koanf:"silence_threshold_dbfs" validate:"lte=0"`
	SeekStepMs           int     `koanf:"seek_step_ms" validate:"gte=1"`
	KeepSilenceMs        int     `koanf:"keep_silence_ms" validate:"gte=0"`

	// Transcriber selects the backend: openai, command or replay.
	Transcriber        string `koanf:"transcriber" validate:"oneof=openai command replay"`
	TranscriberURL     string `koanf:"transcriber_url" validate:"required_if=Transcriber openai"`
	TranscriberToken   string `koanf:"transcriber_token"`
	TranscriberCommand string `koanf:"transcriber_command" validate:"required_if=Transcriber command"`

	Model              string    `koanf:"model" validate:"required"`
	Language           string    `koanf:"language"`
	BeamSize           int       `koanf:"beam_size" validate:"gte=1"`
	BestOf             int       `koanf:"best_of" validate:"gte=1"`
	Temperatures       []float64 `koanf:"temperatures" validate:"min=1,dive,gte=0,lte=1"`
	VAD                bool      `koanf:"vad"`
	DetectDisfluencies bool      `koanf:"detect_disfluencies"`
	RemovePunctuation  bool      `koanf:"remove_punctuation"`
	RemoveEmptyWords   bool      `koanf:"remove_empty_words"`

	// MetricsFile, when set, receives a Prometheus textfile dump after a run.
	MetricsFile string `koanf:"metrics_file"`

	S3Bucket          string `koanf:"s3_bucket"`
	S3Endpoint        string `koanf:"s3_endpoint" validate:"omitempty,url"`
	S3Region          string `koanf:"s3_region"`
	S3AccessKeyID     string `koanf:"s3_access_key_id" validate:"required_with=S3Bucket"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key" validate:"required_with=S3Bucket"`
	S3Prefix          string `koanf:"s3_prefix"`
}

// New creates a Config holding the defaults. Context is accepted first to
// follow the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	d := model.DefaultSettings()
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		DataDir:              ".",
		OutputDir:            "results",
		ReportName:           "textreading_speechrate.csv",
		WorkerCount:          runtime.NumCPU(),
		QueueSize:            1024,
		MinSilenceMs:         d.Segmentation.MinSilenceMs,
		SilenceThresholdDBFS: d.Segmentation.ThresholdDBFS,
		SeekStepMs:           d.Segmentation.SeekStepMs,
		KeepSilenceMs:        d.Segmentation.KeepSilenceMs,
		Transcriber:          TranscriberCommand,
		TranscriberCommand:   "whisper_timestamped",
		Model:                d.Transcription.Model,
		Language:             d.Transcription.Language,
		BeamSize:             d.Transcription.BeamSize,
		BestOf:               d.Transcription.BestOf,
		Temperatures:         d.Transcription.Temperatures,
		VAD:                  d.Transcription.VAD,
		DetectDisfluencies:   d.Transcription.DetectDisfluencies,
		RemovePunctuation:    d.Transcription.RemovePunctuation,
		RemoveEmptyWords:     d.Transcription.RemoveEmptyWords,
	}
}

// Settings projects the pipeline settings. The result shares nothing with c.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		Segmentation: model.Segmentation{
			MinSilenceMs:  c.MinSilenceMs,
			ThresholdDBFS: c.SilenceThresholdDBFS,
			SeekStepMs:    c.SeekStepMs,
			KeepSilenceMs: c.KeepSilenceMs,
		},
		Transcription: model.Transcription{
			Model:              c.Model,
			Language:           c.Language,
			BeamSize:           c.BeamSize,
			BestOf:             c.BestOf,
			Temperatures:       slices.Clone(c.Temperatures),
			VAD:                c.VAD,
			DetectDisfluencies: c.DetectDisfluencies,
			RemovePunctuation:  c.RemovePunctuation,
			RemoveEmptyWords:   c.RemoveEmptyWords,
		},
	}
}

// S3 returns the upload settings.
func (c *Config) S3() sink.S3Config {
	return sink.S3Config{
		Bucket:          c.S3Bucket,
		Prefix:          c.S3Prefix,
		Endpoint:        c.S3Endpoint,
		Region:          c.S3Region,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
	}
}
