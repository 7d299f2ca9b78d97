package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrDataDir = errors.New("read data dir failed")
)
