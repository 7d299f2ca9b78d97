package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/logger"
)

// Command runs an external recognizer with a whisper_timestamped style
// command line and reads the <audio>.words.csv it writes next to the input.
type Command struct {
	binary string
	logger logger.Logger
}

// NewCommand returns a Command running binary.
func NewCommand(binary string, l logger.Logger) *Command {
	if l == nil {
		l = logger.Get().Named("transcribe.command")
	}
	return &Command{binary: binary, logger: l}
}

// CommandArgs renders cfg as recognizer flags. The temperature schedule is
// passed as its first value plus the fallback increment. RemovePunctuation
// and RemoveEmptyWords have no recognizer flag; Clean applies them to the
// words read back from the CSV.
func CommandArgs(wavPath string, cfg model.Transcription) []string {
	args := []string{
		wavPath,
		"--model", cfg.Model,
		"--language", cfg.Language,
		"--beam_size", strconv.Itoa(cfg.BeamSize),
		"--best_of", strconv.Itoa(cfg.BestOf),
	}
	if len(cfg.Temperatures) > 0 {
		args = append(args, "--temperature", formatFloat(cfg.Temperatures[0]))
		inc := "None"
		if len(cfg.Temperatures) > 1 {
			inc = formatFloat(cfg.Temperatures[1] - cfg.Temperatures[0])
		}
		args = append(args, "--temperature_increment_on_fallback", inc)
	}
	args = append(args,
		"--vad", pyBool(cfg.VAD),
		"--detect_disfluencies", pyBool(cfg.DetectDisfluencies),
		"--output_format", "csv",
		"--output_dir", filepath.Dir(wavPath),
	)
	return args
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Transcribe runs the recognizer on wavPath and returns the cleaned words.
func (c *Command) Transcribe(ctx context.Context, wavPath string, cfg model.Transcription) ([]model.WordSpan, error) {
	cmd := exec.CommandContext(ctx, c.binary, CommandArgs(wavPath, cfg)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
			msg = msg[i+1:]
		}
		return nil, fmt.Errorf("%w: %s: %w: %s", model.ErrTranscription, wavPath, err, msg)
	}

	out := model.TranscriptPath(wavPath)
	spans, err := ReadCSVFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrTranscription, err)
	}
	c.logger.Debug(ctx, "recognizer finished", logger.String("file", wavPath), logger.Int("words", len(spans)))
	return Clean(spans, cfg), nil
}
