package factory

import (
	"testing"
	"time"

	"go-plankton-inspector/internal/classifier"
	"go-plankton-inspector/internal/config"
	"go-plankton-inspector/internal/storage"
)

func TestCreateStorage(t *testing.T) {
	cfg := &config.Config{ImageFetchTimeout: time.Second, LocalImageRoot: "/data/frames"}
	f := NewStorageFactory(cfg)

	if s, err := f.CreateStorage(HTTPStorage); err != nil {
		t.Errorf("Unexpected error: %v", err)
	} else if _, ok := s.(*storage.HTTPImageFetcher); !ok {
		t.Errorf("Expected HTTP fetcher, got %T", s)
	}

	s, err := f.CreateStorage(LocalStorage)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if local, ok := s.(*storage.LocalFileFetcher); !ok || local.Root != "/data/frames" {
		t.Errorf("Expected local fetcher rooted at /data/frames, got %#v", s)
	}

	if _, err := f.CreateStorage(AzureStorage); err == nil {
		t.Error("Expected azure storage to require credentials")
	}
	if _, err := f.CreateStorage("s3"); err == nil {
		t.Error("Expected unsupported storage type error")
	}
}

func TestCreateModel(t *testing.T) {
	cfg := &config.Config{ModelEndpoint: "http://localhost:9000/predict", ModelName: "plankton-v2", AnalysisTimeout: time.Second}
	f := NewModelFactory(cfg)

	m, closer, err := f.CreateModel(config.ModelBackendHeuristic, 5, 224)
	if err != nil || closer == nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if classifier.ModelName(m) != "heuristic-baseline" {
		t.Errorf("Unexpected model %s", classifier.ModelName(m))
	}

	m, _, err = f.CreateModel(config.ModelBackendRemote, 5, 224)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if classifier.ModelName(m) != "plankton-v2" {
		t.Errorf("Expected remote model name, got %s", classifier.ModelName(m))
	}

	if _, _, err := f.CreateModel("tensorflow", 5, 224); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
