// Package repository stores subject results and renders them as a report.
package repository

import (
	"context"

	model "github.com/okian/speechrate/internal/domain/model"
)

// Store provides read/write access to subject results.
type Store interface {
	// Put stores res, replacing an earlier result for the same subject.
	Put(ctx context.Context, res model.SubjectRateResult) error

	// Get returns the result of a subject.
	// Returns ErrNotFound if the subject is unknown.
	Get(ctx context.Context, subjectID string) (model.SubjectRateResult, error)

	// All returns every result ordered by subject id.
	All(ctx context.Context) []model.SubjectRateResult

	// Count returns the number of subjects stored.
	Count(ctx context.Context) int
}
