package audio

import (
	"context"
	"fmt"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/internal/domain/silence"
	"github.com/okian/speechrate/pkg/logger"
)

// Segmenter removes silence from canonical WAV files.
type Segmenter struct {
	logger logger.Logger
}

// NewSegmenter returns a Segmenter.
func NewSegmenter(l logger.Logger) *Segmenter {
	if l == nil {
		l = logger.Get().Named("segmenter")
	}
	return &Segmenter{logger: l}
}

// RemoveSilence decodes path, strips silent stretches and writes the speech
// chunks back to back as <stem>_ds.wav. The file is written even when no
// speech remains; the caller decides what an empty result means.
func (s *Segmenter) RemoveSilence(ctx context.Context, path string, seg model.Segmentation) (string, model.SegmentationResult, error) {
	if err := ctx.Err(); err != nil {
		return "", model.SegmentationResult{}, err
	}
	rec, err := Decode(path)
	if err != nil {
		return "", model.SegmentationResult{}, err
	}

	loudness := silence.Loudness(rec)
	s.logger.Info(ctx, "input loudness",
		logger.String("recording", rec.ID.String()),
		logger.Float64("dbfs", loudness.DBFS),
		logger.Duration("duration", rec.Duration()))

	out, chunks := silence.Remove(rec, seg)
	dst := model.DesilencedPath(path)
	if err := Encode(dst, out); err != nil {
		return "", model.SegmentationResult{}, fmt.Errorf("write desilenced audio: %w", err)
	}

	res := model.SegmentationResult{
		Input:    rec.Duration(),
		Output:   out.Duration(),
		Chunks:   len(chunks),
		Loudness: loudness,
	}
	s.logger.Debug(ctx, "silence removed",
		logger.String("recording", rec.ID.String()),
		logger.Int("chunks", res.Chunks),
		logger.Duration("output", res.Output))
	return dst, res, nil
}
