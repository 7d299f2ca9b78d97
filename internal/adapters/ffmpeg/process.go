// Package ffmpeg runs the ffmpeg binary to convert recordings between
// containers.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/logger"
)

// maxErrorLineLength caps the stderr line carried in errors.
const maxErrorLineLength = 200

// ResolvePath returns the ffmpeg binary to run. A custom path must resolve
// through exec.LookPath; otherwise "ffmpeg" is searched in PATH. It returns
// "" when nothing is found.
func ResolvePath(customPath string) string {
	if customPath != "" {
		if _, err := exec.LookPath(customPath); err == nil {
			return customPath
		}
		return ""
	}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ""
	}
	return path
}

// ExtractLastError returns the last non-empty line of stderr output.
func ExtractLastError(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			if len(line) > maxErrorLineLength {
				return line[:maxErrorLineLength] + "..."
			}
			return line
		}
	}
	return ""
}

// Args returns the ffmpeg arguments that decode src and write dst. The output
// container follows the extension of dst; video streams are dropped.
func Args(src, dst string) []string {
	return []string{"-y", "-nostdin", "-hide_banner", "-loglevel", "error", "-i", src, "-vn", dst}
}

// Transcoder converts recordings with an ffmpeg subprocess.
type Transcoder struct {
	path   string
	logger logger.Logger
}

// New resolves the ffmpeg binary and returns a Transcoder.
func New(opts ...Option) (*Transcoder, error) {
	t := &Transcoder{}
	for _, opt := range opts {
		opt(t)
	}
	resolved := ResolvePath(t.path)
	if resolved == "" {
		if t.path != "" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, t.path)
		}
		return nil, ErrNotFound
	}
	t.path = resolved
	if t.logger == nil {
		t.logger = logger.Get().Named("ffmpeg")
	}
	return t, nil
}

// Path returns the resolved binary.
func (t *Transcoder) Path() string { return t.path }

// Transcode writes src to dst, overwriting dst. Failures wrap model.ErrTranscode
// and carry the last line ffmpeg printed.
func (t *Transcoder) Transcode(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, t.path, Args(src, dst)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.logger.Debug(ctx, "transcoding", logger.String("src", src), logger.String("dst", dst))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %w", model.ErrTranscode, src, ctx.Err())
		}
		if msg := ExtractLastError(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s: %s", model.ErrTranscode, src, msg)
		}
		return fmt.Errorf("%w: %s: %w", model.ErrTranscode, src, err)
	}
	return nil
}
