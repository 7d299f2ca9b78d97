package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/speechrate/pkg/metrics"
)

// File writes documents into a directory.
type File struct {
	Dir string
}

// NewFile returns a File sink rooted at dir.
func NewFile(dir string) *File {
	return &File{Dir: dir}
}

// Publish writes body to Dir/name through a temporary file so readers never
// see a partial report.
func (f *File) Publish(ctx context.Context, name string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		metrics.RecordPublishError("file")
		return fmt.Errorf("create output dir: %w", err)
	}
	dst := filepath.Join(f.Dir, name)
	tmp, err := os.CreateTemp(f.Dir, "."+name+".*")
	if err != nil {
		metrics.RecordPublishError("file")
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		metrics.RecordPublishError("file")
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		metrics.RecordPublishError("file")
		return fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		metrics.RecordPublishError("file")
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}
