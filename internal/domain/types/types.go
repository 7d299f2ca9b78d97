// Package types contains common types used across the application
package types

import (
	"math"
	"strconv"

	model "github.com/okian/speechrate/internal/domain/model"
)

// Report column names.
const (
	ColumnID     = "ID"
	ColumnMeanSR = "LANGUAGE_READING_BEH_NULL_MeanSR"
)

// Entry is one row of the subject report.
type Entry struct {
	SubjectID string  `json:"subject_id"`
	MeanRate  float64 `json:"mean_rate"`
	Valid     bool    `json:"valid"`
}

// NewEntry converts a subject result into a report row.
func NewEntry(r model.SubjectRateResult) Entry {
	mean, ok := r.Rate()
	return Entry{SubjectID: r.SubjectID, MeanRate: mean, Valid: ok}
}

// Value returns the rate cell: the mean, or NaN when the rate is absent.
func (e Entry) Value() float64 {
	if !e.Valid {
		return math.NaN()
	}
	return e.MeanRate
}

// Record returns the row as CSV fields.
func (e Entry) Record() []string {
	if !e.Valid {
		return []string{e.SubjectID, "NaN"}
	}
	return []string{e.SubjectID, strconv.FormatFloat(e.MeanRate, 'f', -1, 64)}
}

// Header returns the report header row.
func Header() []string {
	return []string{ColumnID, ColumnMeanSR}
}
