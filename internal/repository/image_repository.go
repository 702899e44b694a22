package repository

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"go-plankton-inspector/internal/storage"
)

// SourceRepository routes a source string to the fetcher for its scheme.
// http and https URLs, azblob:// URLs, file:// URLs and bare paths are
// recognized; a scheme with no registered fetcher is rejected.
type SourceRepository struct {
	fetchers map[Scheme]storage.ImageFetcher
}

// NewSourceRepository creates a repository with no fetchers registered.
func NewSourceRepository() *SourceRepository {
	return &SourceRepository{fetchers: make(map[Scheme]storage.ImageFetcher)}
}

// Register sets the fetcher used for scheme.
func (r *SourceRepository) Register(scheme Scheme, fetcher storage.ImageFetcher) *SourceRepository {
	r.fetchers[scheme] = fetcher
	return r
}

// Schemes lists the schemes that have a fetcher.
func (r *SourceRepository) Schemes() []Scheme {
	out := make([]Scheme, 0, len(r.fetchers))
	for _, s := range []Scheme{SchemeHTTP, SchemeAzure, SchemeFile} {
		if _, ok := r.fetchers[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// SchemeOf classifies source without consulting registered fetchers.
func SchemeOf(source string) (Scheme, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", ErrInvalidImageSource
	}
	if !strings.Contains(source, "://") {
		return SchemeFile, nil
	}
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageSource, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return SchemeHTTP, nil
	case "azblob":
		return SchemeAzure, nil
	case "file":
		return SchemeFile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func (r *SourceRepository) fetcherFor(source string) (storage.ImageFetcher, error) {
	scheme, err := SchemeOf(source)
	if err != nil {
		return nil, err
	}
	f, ok := r.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not enabled", ErrUnsupportedScheme, scheme)
	}
	return f, nil
}

func (r *SourceRepository) ValidateSource(source string) error {
	_, err := r.fetcherFor(source)
	return err
}

func (r *SourceRepository) FetchImage(ctx context.Context, source string) (image.Image, error) {
	f, err := r.fetcherFor(source)
	if err != nil {
		return nil, err
	}
	return f.FetchImage(ctx, strings.TrimSpace(source))
}
