package repository

import "errors"

var (
	// ErrInvalidImageSource indicates an empty or unparsable source string
	ErrInvalidImageSource = errors.New("invalid image source")

	// ErrUnsupportedScheme indicates a source scheme with no configured fetcher
	ErrUnsupportedScheme = errors.New("unsupported image source scheme")
)
