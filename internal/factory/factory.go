package factory

import (
	"fmt"
	"io"

	"go-plankton-inspector/internal/classifier"
	"go-plankton-inspector/internal/config"
	"go-plankton-inspector/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// ModelFactory creates classification models
type ModelFactory interface {
	CreateModel(backend string, classes int, inputSize int) (classifier.Model, io.Closer, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureBlobFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
	case LocalStorage:
		return storage.NewLocalFileFetcher(f.cfg.LocalImageRoot), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

type modelFactory struct {
	cfg *config.Config
}

// NewModelFactory creates a new model factory
func NewModelFactory(cfg *config.Config) ModelFactory {
	return &modelFactory{cfg: cfg}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// CreateModel builds the model for backend. The returned closer releases
// native resources held by the model.
func (f *modelFactory) CreateModel(backend string, classes int, inputSize int) (classifier.Model, io.Closer, error) {
	switch backend {
	case config.ModelBackendHeuristic:
		return classifier.NewHeuristicModel(classes), nopCloser{}, nil
	case config.ModelBackendRemote:
		return classifier.NewRemoteModel(f.cfg.ModelEndpoint, f.cfg.ModelName, f.cfg.AnalysisTimeout), nopCloser{}, nil
	case config.ModelBackendONNX:
		m, err := classifier.NewONNXModel(f.cfg.ModelPath, inputSize)
		if err != nil {
			return nil, nil, err
		}
		return m, m, nil
	default:
		return nil, nil, fmt.Errorf("unsupported model backend: %s", backend)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	ModelFactory   ModelFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(cfg),
		ModelFactory:   NewModelFactory(cfg),
	}
}
