// Package sink publishes finished reports outside the process.
package sink

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a sink lacks required settings.
var ErrNotConfigured = errors.New("sink not configured")

// Sink publishes a named document.
type Sink interface {
	Publish(ctx context.Context, name string, body []byte) error
}

// Multi publishes to every sink in order and joins their errors.
type Multi []Sink

// Publish sends body to every sink under name.
func (m Multi) Publish(ctx context.Context, name string, body []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, name, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
