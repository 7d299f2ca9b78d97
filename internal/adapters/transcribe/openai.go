package transcribe

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/logger"
)

// OpenAI transcribes through an OpenAI-compatible /audio/transcriptions
// endpoint, such as a LocalAI whisper backend.
type OpenAI struct {
	client *openai.Client
	logger logger.Logger
}

// NewOpenAI creates a client for baseURL (including the /v1 suffix). The
// token may be empty for local servers.
func NewOpenAI(baseURL, token string, httpClient *http.Client, l logger.Logger) *OpenAI {
	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if l == nil {
		l = logger.Get().Named("transcribe.openai")
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), logger: l}
}

// Transcribe requests word timestamps for wavPath. The endpoint accepts one
// temperature, so the first entry of the schedule is sent.
func (o *OpenAI) Transcribe(ctx context.Context, wavPath string, cfg model.Transcription) ([]model.WordSpan, error) {
	req := openai.AudioRequest{
		Model:                  cfg.Model,
		FilePath:               wavPath,
		Language:               cfg.Language,
		Format:                 openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{openai.TranscriptionTimestampGranularityWord},
	}
	if len(cfg.Temperatures) > 0 {
		req.Temperature = float32(cfg.Temperatures[0])
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrTranscription, wavPath, err)
	}

	spans := make([]model.WordSpan, 0, len(resp.Words))
	for _, w := range resp.Words {
		spans = append(spans, model.WordSpan{Text: w.Word, Start: w.Start, End: w.End})
	}
	o.logger.Debug(ctx, "transcription received",
		logger.String("file", wavPath),
		logger.String("language", resp.Language),
		logger.Int("words", len(spans)))
	return Clean(spans, cfg), nil
}
