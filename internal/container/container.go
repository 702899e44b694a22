package container

import (
	"fmt"
	"io"
	"net/http"

	"go-plankton-inspector/internal/config"
	"go-plankton-inspector/internal/factory"
	"go-plankton-inspector/internal/logger"
	"go-plankton-inspector/internal/observer"
	"go-plankton-inspector/internal/pipeline"
	"go-plankton-inspector/internal/repository"
	"go-plankton-inspector/internal/service"
	"go-plankton-inspector/internal/transport"
	"go-plankton-inspector/internal/worker"
	"go-plankton-inspector/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	pipelineConfig  *config.PipelineConfig
	pipeline        *pipeline.Pipeline
	metrics         *observer.MetricsObserver
	pool            *worker.Pool
	imageRepository *repository.SourceRepository
	analysisService service.SampleAnalysisService
	handler         http.Handler
	modelCloser     io.Closer
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	pipelineCfg, err := config.LoadPipelineConfig(cfg.PipelineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}

	components := factory.NewComponentFactory(cfg)

	model, closer, err := components.ModelFactory.CreateModel(
		cfg.ModelBackend,
		len(pipelineCfg.Classification.ClassNames),
		pipelineCfg.Classification.InputSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	p, err := pipeline.New(pipelineCfg, model, pipeline.WithEvents(events))
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	repo, validator, err := buildRepository(cfg, components.StorageFactory)
	if err != nil {
		closer.Close()
		return nil, err
	}

	pool := worker.NewPool(cfg.BatchWorkers)
	pool.Start()

	svc := service.NewSampleAnalysisService(repo, validator, p, pool, service.Options{
		FetchTimeout:    cfg.ImageFetchTimeout,
		AnalysisTimeout: cfg.AnalysisTimeout,
		MaxBatchSize:    cfg.MaxBatchSize,
	})

	c := &Container{
		config:          cfg,
		pipelineConfig:  pipelineCfg,
		pipeline:        p,
		metrics:         metrics,
		pool:            pool,
		imageRepository: repo,
		analysisService: svc,
		modelCloser:     closer,
	}
	c.handler = transport.NewHandler(svc, c, cfg)

	logger.WithFields(logrus.Fields{
		"model_backend":   cfg.ModelBackend,
		"classes":         pipelineCfg.Classification.ClassNames,
		"segmentation":    pipelineCfg.Segmentation.Method,
		"image_schemes":   repo.Schemes(),
		"batch_workers":   pool.Workers(),
		"pipeline_config": cfg.PipelineConfigPath,
	}).Info("Container initialized")

	return c, nil
}

// buildRepository registers a fetcher for every image source the
// configuration enables.
func buildRepository(cfg *config.Config, storages factory.StorageFactory) (*repository.SourceRepository, *validation.URLValidator, error) {
	repo := repository.NewSourceRepository()
	schemes := []string{"http", "https"}

	httpFetcher, err := storages.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, nil, err
	}
	repo.Register(repository.SchemeHTTP, httpFetcher)

	if cfg.AzureEnabled() {
		blobFetcher, err := storages.CreateStorage(factory.AzureStorage)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
		repo.Register(repository.SchemeAzure, blobFetcher)
		schemes = append(schemes, "azblob")
	}

	if cfg.LocalImageRoot != "" {
		localFetcher, err := storages.CreateStorage(factory.LocalStorage)
		if err != nil {
			return nil, nil, err
		}
		repo.Register(repository.SchemeFile, localFetcher)
		schemes = append(schemes, "file")
	}

	return repo, validation.NewURLValidatorWithOptions(schemes, nil), nil
}

// GetMetrics merges run metrics with batch pool statistics.
func (c *Container) GetMetrics() map[string]interface{} {
	m := c.metrics.GetMetrics()
	m["batch_pool"] = c.pool.Stats()
	return m
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Pipeline returns the shared analysis pipeline
func (c *Container) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Close stops the batch workers and releases the model.
func (c *Container) Close() error {
	c.pool.Close()
	return c.modelCloser.Close()
}
