package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMetrics records every stored result in the subject metrics.
func WithMetrics() Option {
	return func(s *MemStore) {
		s.observe = true
	}
}
