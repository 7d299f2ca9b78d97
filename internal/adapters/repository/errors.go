package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("subject not found")
	ErrEmptySubjectID = errors.New("empty subject id")
)
