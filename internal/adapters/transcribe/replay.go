package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	model "github.com/okian/speechrate/internal/domain/model"
)

// CSVReplay serves transcripts already written next to the audio. It lets
// rates be recomputed offline without a recognizer.
type CSVReplay struct{}

// Transcribe reads <wavPath>.words.csv. A missing file yields zero spans.
func (CSVReplay) Transcribe(_ context.Context, wavPath string, cfg model.Transcription) ([]model.WordSpan, error) {
	spans, err := ReadCSVFile(model.TranscriptPath(wavPath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrTranscription, err)
	}
	return Clean(spans, cfg), nil
}
