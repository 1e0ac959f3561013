package manifest

import "errors"

var (
	// ErrIncompatibleVersion is returned when the manifest format version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible manifest version")

	// ErrNotFound is returned when no manifest has been published yet.
	ErrNotFound = errors.New("manifest not found")
)
