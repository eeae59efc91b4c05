package setting

import "errors"

var (
	// ErrLocked is returned by any mutating operation on a locked Setting or
	// one of its descendants. Data is left unchanged when this is returned.
	ErrLocked = errors.New("setting is locked from editing")

	// ErrMissingOption is returned by LoadOptions when a required option
	// resolves to neither an override, an environment variable, a file value,
	// nor a declared default.
	ErrMissingOption = errors.New("required option not resolved")

	// ErrConfigNotFound is returned by LoadFile when the file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrNotASection is returned when a path segment refers to a scalar value
	// where a nested section was expected.
	ErrNotASection = errors.New("path refers to a value, not a section")
)
