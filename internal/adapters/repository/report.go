package repository

import (
	"encoding/csv"
	"fmt"
	"io"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/internal/domain/types"
)

// WriteCSV writes the subject report: a header row, then one row per result
// in the given order. Absent rates are written as NaN.
func WriteCSV(w io.Writer, results []model.SubjectRateResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Header()); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(types.NewEntry(r).Record()); err != nil {
			return fmt.Errorf("write report row %s: %w", r.SubjectID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
