package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds of the pipeline. These allow errors.Is from callers.
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDecode            = errors.New("audio decode failed")
	ErrEmptyAudio        = errors.New("desilenced audio is empty")
	ErrNoTranscript      = errors.New("transcription produced no usable words")
	ErrNoValidRate       = errors.New("no word span with a positive duration")
	ErrAggregationEmpty  = errors.New("no transcript yielded a valid rate")
	ErrTranscode         = errors.New("transcode failed")
	ErrTranscription     = errors.New("transcription failed")
)

// StageError wraps a stage failure with the recording it happened to.
type StageError struct {
	Recording RecordingID
	Stage     Stage
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("recording %s: stage %s: %v", e.Recording, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Reason maps an error to a short metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrEmptyAudio):
		return "empty_audio"
	case errors.Is(err, ErrNoTranscript):
		return "no_transcript"
	case errors.Is(err, ErrNoValidRate):
		return "no_valid_rate"
	case errors.Is(err, ErrTranscode):
		return "transcode"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrAggregationEmpty):
		return "aggregation_empty"
	default:
		return "other"
	}
}
