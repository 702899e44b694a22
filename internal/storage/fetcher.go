// Package storage loads microscope frames from HTTP servers, Azure Blob
// Storage and the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/tiff"
)

var (
	// ErrImageNotFound is returned when the source does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrDecode is returned when the bytes are not a supported image format.
	ErrDecode = errors.New("unsupported or corrupt image")
)

// ImageFetcher loads one image from a source location.
type ImageFetcher interface {
	FetchImage(ctx context.Context, source string) (image.Image, error)
}

// Decode reads a PNG, JPEG or TIFF image from r.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
