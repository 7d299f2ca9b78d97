package ffmpeg

import "errors"

// ErrNotFound is returned when no ffmpeg binary can be resolved.
var ErrNotFound = errors.New("ffmpeg binary not found")
