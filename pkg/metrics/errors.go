package metrics

import (
	"errors"
)

// ErrExport wraps failures writing the registry out of the process.
var ErrExport = errors.New("metrics export failed")
