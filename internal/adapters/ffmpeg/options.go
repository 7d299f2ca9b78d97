package ffmpeg

import "github.com/okian/speechrate/pkg/logger"

// Option configures a Transcoder.
type Option func(*Transcoder)

// WithPath sets a custom ffmpeg binary instead of searching PATH.
func WithPath(path string) Option {
	return func(t *Transcoder) {
		t.path = path
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Transcoder) {
		t.logger = l
	}
}
