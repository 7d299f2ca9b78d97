// Package transcribe implements the transcription engine contract: an
// OpenAI-compatible HTTP client, an external recognizer command and a replay
// of previously written transcripts.
package transcribe

import (
	"strings"
	"unicode"

	model "github.com/okian/speechrate/internal/domain/model"
)

// Clean applies the token post-processing switches of cfg. Punctuation is
// any Unicode punctuation rune; a token left empty is dropped when
// RemoveEmptyWords is set.
func Clean(spans []model.WordSpan, cfg model.Transcription) []model.WordSpan {
	out := make([]model.WordSpan, 0, len(spans))
	for _, s := range spans {
		text := strings.TrimSpace(s.Text)
		if cfg.RemovePunctuation {
			text = strings.TrimSpace(strings.Map(func(r rune) rune {
				if unicode.IsPunct(r) {
					return -1
				}
				return r
			}, text))
		}
		if cfg.RemoveEmptyWords && text == "" {
			continue
		}
		s.Text = text
		out = append(out, s)
	}
	return out
}
