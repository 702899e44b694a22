package storage

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

func writeTIFF(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, 8, 6))
	img.SetGray16(2, 2, color.Gray16{Y: 40000})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("Failed to encode tiff: %v", err)
	}
}

func TestLocalFileFetcher(t *testing.T) {
	dir := t.TempDir()
	writeTIFF(t, filepath.Join(dir, "frame.tif"))

	tests := []struct {
		name     string
		root     string
		source   string
		wantErr  bool
		notFound bool
	}{
		{name: "absolute path", source: filepath.Join(dir, "frame.tif")},
		{name: "file url", source: "file://" + filepath.Join(dir, "frame.tif")},
		{name: "relative to root", root: dir, source: "frame.tif"},
		{name: "escape attempt stays in root", root: dir, source: "../frame.tif"},
		{name: "missing file", source: filepath.Join(dir, "missing.tif"), wantErr: true, notFound: true},
		{name: "empty source", source: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewLocalFileFetcher(tt.root).FetchImage(context.Background(), tt.source)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				if errors.Is(err, ErrImageNotFound) != tt.notFound {
					t.Errorf("Expected ErrImageNotFound=%v, got %v", tt.notFound, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
				t.Errorf("Unexpected bounds %v", img.Bounds())
			}
		})
	}
}

func TestLocalFileFetcher_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLocalFileFetcher("").FetchImage(context.Background(), path); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestParseBlobURL(t *testing.T) {
	tests := []struct {
		url       string
		container string
		blob      string
		wantErr   bool
	}{
		{"azblob://samples/2024/station-4/frame.tif", "samples", "2024/station-4/frame.tif", false},
		{"azblob://samples/frame.png", "samples", "frame.png", false},
		{"azblob://samples/", "", "", true},
		{"https://acct.blob.core.windows.net/samples/frame.png", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			container, blob, err := ParseBlobURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if container != tt.container || blob != tt.blob {
				t.Errorf("Expected %s/%s, got %s/%s", tt.container, tt.blob, container, blob)
			}
		})
	}
}
