package queue

import "errors"

// ErrRejected is returned by callers when Enqueue refuses a job.
var ErrRejected = errors.New("queue rejected job")
