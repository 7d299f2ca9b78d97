// Package rate turns word timings into per-word speech rates and aggregates
// them per subject.
package rate

import (
	"context"
	"math"
	"unicode/utf8"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/logger"
)

// Length is the character count of a token, counted in Unicode code points.
// It stands in for the syllable count of logographic text.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// Extract returns one sample per span with a positive, finite duration. Other
// spans, including those with NaN or infinite timestamps, are skipped with a
// warning and counted in dropped.
func Extract(ctx context.Context, spans []model.WordSpan) (samples []model.WordRateSample, dropped int) {
	samples = make([]model.WordRateSample, 0, len(spans))
	for i, s := range spans {
		d := s.Duration()
		if !(d > 0) || math.IsInf(d, 0) {
			dropped++
			logger.Get().Named("rate").Warn(ctx, "dropping word span without a positive finite duration",
				logger.Int("index", i),
				logger.String("word", s.Text),
				logger.Float64("start", s.Start),
				logger.Float64("end", s.End))
			continue
		}
		n := Length(s.Text)
		samples = append(samples, model.WordRateSample{
			Text:     s.Text,
			Duration: d,
			Length:   n,
			Rate:     float64(n) / d,
		})
	}
	return samples, dropped
}

// Mean returns the arithmetic mean rate of samples. It reports false for an
// empty slice.
func Mean(samples []model.WordRateSample) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range samples {
		sum += s.Rate
	}
	return sum / float64(len(samples)), true
}
