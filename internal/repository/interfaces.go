package repository

import (
	"context"
	"image"
)

// ImageRepository defines the interface for microscope frame access
type ImageRepository interface {
	// FetchImage loads the frame at source
	FetchImage(ctx context.Context, source string) (image.Image, error)

	// ValidateSource checks that source is well formed and routable
	ValidateSource(source string) error
}

// Scheme identifies where a frame is stored.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeAzure Scheme = "azblob"
	SchemeFile  Scheme = "file"
)
