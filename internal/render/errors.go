package render

import "errors"

// ErrUnknownFormat is returned when the requested output format is not supported.
var ErrUnknownFormat = errors.New("unknown output format")
