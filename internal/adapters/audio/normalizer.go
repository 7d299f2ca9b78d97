package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/logger"
)

// Transcoder converts a recording between containers.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// Normalizer brings recordings into the canonical WAV container.
type Normalizer struct {
	transcoder Transcoder
	logger     logger.Logger
}

// NewNormalizer returns a Normalizer that converts with t. A nil t limits
// it to WAV input.
func NewNormalizer(t Transcoder, l logger.Logger) *Normalizer {
	if l == nil {
		l = logger.Get().Named("normalizer")
	}
	return &Normalizer{transcoder: t, logger: l}
}

// Normalize returns the canonical path of the recording at path. WAV input
// is returned unchanged. WebM input is transcoded to the sibling .wav,
// overwriting a previous output; the input is never removed.
func (n *Normalizer) Normalize(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return path, nil
	case ".webm":
		if n.transcoder == nil {
			return "", fmt.Errorf("%w: no transcoder configured for %s", model.ErrTranscode, path)
		}
		dst := model.CanonicalPath(path)
		if err := n.transcoder.Transcode(ctx, path, dst); err != nil {
			return "", err
		}
		n.logger.Debug(ctx, "normalized recording", logger.String("src", path), logger.String("dst", dst))
		return dst, nil
	default:
		return "", fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, filepath.Ext(path))
	}
}
