package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalFileFetcher reads frames from disk. Sources may be plain paths or
// file:// URLs. When Root is set, paths resolve inside it and may not escape.
type LocalFileFetcher struct {
	Root string
}

func NewLocalFileFetcher(root string) *LocalFileFetcher {
	return &LocalFileFetcher{Root: root}
}

func (l *LocalFileFetcher) resolve(source string) (string, error) {
	path := source
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("invalid file URL: %w", err)
		}
		path = u.Path
	}
	if path == "" {
		return "", fmt.Errorf("empty file path")
	}
	if l.Root == "" {
		return filepath.Clean(path), nil
	}

	full := filepath.Join(l.Root, filepath.Clean("/"+path))
	rel, err := filepath.Rel(l.Root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes image root", source)
	}
	return full, nil
}

func (l *LocalFileFetcher) FetchImage(ctx context.Context, source string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.resolve(source)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
