package transcribe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	model "github.com/okian/speechrate/internal/domain/model"
)

// ErrMalformedTranscript is returned for rows that are not word,start,end.
var ErrMalformedTranscript = errors.New("malformed transcript row")

// ReadCSV parses a word-level transcript: one word,start,end row per token,
// seconds as decimals. A leading header row and extra trailing columns are
// tolerated.
func ReadCSV(r io.Reader) ([]model.WordSpan, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var spans []model.WordSpan
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return spans, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedTranscript, line, err)
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("%w: line %d: %d columns", ErrMalformedTranscript, line, len(rec))
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: start: %w", ErrMalformedTranscript, line, err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: end: %w", ErrMalformedTranscript, line, err)
		}
		spans = append(spans, model.WordSpan{Text: rec[0], Start: start, End: end})
	}
}

func isHeader(rec []string) bool {
	return strings.EqualFold(strings.TrimSpace(rec[1]), "start") && strings.EqualFold(strings.TrimSpace(rec[2]), "end")
}

// ReadCSVFile reads the transcript at path.
func ReadCSVFile(path string) ([]model.WordSpan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	spans, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spans, nil
}

// WriteCSV writes spans header-less in chronological input order.
func WriteCSV(w io.Writer, spans []model.WordSpan) error {
	cw := csv.NewWriter(w)
	for _, s := range spans {
		row := []string{
			s.Text,
			strconv.FormatFloat(s.Start, 'f', -1, 64),
			strconv.FormatFloat(s.End, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes spans to path, replacing an existing file.
func WriteCSVFile(path string, spans []model.WordSpan) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, spans)
}

// FileWriter persists transcripts as CSV files.
type FileWriter struct{}

// WriteTranscript writes spans to path.
func (FileWriter) WriteTranscript(_ context.Context, path string, spans []model.WordSpan) error {
	return WriteCSVFile(path, spans)
}
