package pipeline

import "github.com/okian/speechrate/pkg/logger"

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for stage failures.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTranscriptWriter persists every transcript as <desilenced>.words.csv.
func WithTranscriptWriter(w TranscriptWriter) Option {
	return func(p *Pipeline) {
		p.transcripts = w
	}
}
