package config

import "errors"

var (
	// ErrUnknownKey is returned when a source names a key outside the table.
	ErrUnknownKey = errors.New("unknown configuration key")
	// ErrDerivedKey is returned when a source tries to set a derived key directly.
	ErrDerivedKey = errors.New("derived key cannot be overridden")
	// ErrDuplicateKey is returned when two names in one source resolve to the same key.
	ErrDuplicateKey = errors.New("key set more than once")
	// ErrNotScalar is returned when a config file maps a key to a table or list.
	ErrNotScalar = errors.New("value must be a scalar")
	// ErrUnsupportedFile is returned for config files that are neither YAML nor TOML.
	ErrUnsupportedFile = errors.New("unsupported config file format")
	// ErrInvalidConfig wraps validation failures of the resolved table.
	ErrInvalidConfig = errors.New("invalid configuration")
)
