package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/internal/logger"
	"go-plankton-inspector/internal/pipeline"
	"go-plankton-inspector/internal/repository"
	"go-plankton-inspector/internal/storage"
	"go-plankton-inspector/internal/worker"
	"go-plankton-inspector/pkg/models"
	"go-plankton-inspector/pkg/validation"

	"github.com/sirupsen/logrus"
)

// SampleAnalysisService defines the sample analysis use cases exposed by the API
type SampleAnalysisService interface {
	// AnalyzeSample fetches the frame named by req and runs the pipeline on it
	AnalyzeSample(ctx context.Context, req models.AnalyzeRequest) (*models.SampleResult, error)

	// AnalyzeImage runs the pipeline on an already decoded frame
	AnalyzeImage(ctx context.Context, img image.Image, source string, req models.AnalyzeRequest) (*models.SampleResult, error)

	// AnalyzeBatch runs every request as an independent sample
	AnalyzeBatch(ctx context.Context, reqs []models.AnalyzeRequest) (*models.BatchAnalyzeResponse, error)

	// ValidateImageURL checks a source before any work is done
	ValidateImageURL(imageURL string) error
}

// Analyzer is the pipeline entry point used by the service.
type Analyzer interface {
	Analyze(ctx context.Context, sample pipeline.Sample) (*models.SampleResult, error)
}

// Options bounds the work the service does per request.
type Options struct {
	FetchTimeout    time.Duration
	AnalysisTimeout time.Duration
	MaxBatchSize    int
}

type sampleAnalysisService struct {
	imageRepo repository.ImageRepository
	validator *validation.URLValidator
	analyzer  Analyzer
	pool      *worker.Pool
	opts      Options
}

// NewSampleAnalysisService creates a new sample analysis service. pool must
// already be started.
func NewSampleAnalysisService(
	imageRepository repository.ImageRepository,
	validator *validation.URLValidator,
	analyzer Analyzer,
	pool *worker.Pool,
	opts Options,
) SampleAnalysisService {
	return &sampleAnalysisService{
		imageRepo: imageRepository,
		validator: validator,
		analyzer:  analyzer,
		pool:      pool,
		opts:      opts,
	}
}

func (s *sampleAnalysisService) ValidateImageURL(imageURL string) error {
	if err := s.validator.ValidateImageURL(imageURL); err != nil {
		return err
	}
	if err := s.imageRepo.ValidateSource(imageURL); err != nil {
		return apperrors.NewValidationError("image source not supported", err)
	}
	return nil
}

func (s *sampleAnalysisService) AnalyzeSample(ctx context.Context, req models.AnalyzeRequest) (*models.SampleResult, error) {
	if err := validation.ValidateAnalyzeRequest(req); err != nil {
		return nil, err
	}
	if err := s.ValidateImageURL(req.ImageURL); err != nil {
		return nil, err
	}

	img, err := s.fetch(ctx, req.ImageURL)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, img, req.ImageURL, req)
}

func (s *sampleAnalysisService) AnalyzeImage(ctx context.Context, img image.Image, source string, req models.AnalyzeRequest) (*models.SampleResult, error) {
	if err := validation.ValidateAnalyzeRequest(req); err != nil {
		return nil, err
	}
	return s.run(ctx, img, source, req)
}

func (s *sampleAnalysisService) fetch(ctx context.Context, source string) (image.Image, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	start := time.Now()
	img, err := s.imageRepo.FetchImage(fetchCtx, source)
	if err != nil {
		return nil, fetchError(err)
	}
	logger.WithFields(logrus.Fields{
		"source":      source,
		"width":       img.Bounds().Dx(),
		"height":      img.Bounds().Dy(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Image fetched")
	return img, nil
}

// fetchError maps storage failures onto API error types.
func fetchError(err error) error {
	switch {
	case errors.Is(err, storage.ErrImageNotFound):
		return apperrors.NewNotFoundError("image not found", err)
	case errors.Is(err, storage.ErrDecode):
		return apperrors.NewValidationError("image could not be decoded", err)
	case errors.Is(err, repository.ErrInvalidImageSource), errors.Is(err, repository.ErrUnsupportedScheme):
		return apperrors.NewValidationError("image source not supported", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("image fetch timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewCanceledError("image fetch canceled", err)
	default:
		return apperrors.NewNetworkError("failed to fetch image", err)
	}
}

func (s *sampleAnalysisService) run(ctx context.Context, img image.Image, source string, req models.AnalyzeRequest) (*models.SampleResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.opts.AnalysisTimeout)
	defer cancel()

	return s.analyzer.Analyze(runCtx, pipeline.Sample{
		ID:    req.SampleID,
		Image: img,
		Calibration: models.Calibration{
			Magnification:               req.Magnification,
			SensorPixelPitchMicrometers: req.SensorPixelPitchMicrometers,
		},
		Source:         source,
		PreviousCounts: req.PreviousCounts,
	})
}

func (s *sampleAnalysisService) AnalyzeBatch(ctx context.Context, reqs []models.AnalyzeRequest) (*models.BatchAnalyzeResponse, error) {
	if len(reqs) == 0 {
		return nil, apperrors.NewValidationError("batch must contain at least one sample", nil)
	}
	if len(reqs) > s.opts.MaxBatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch of %d samples exceeds the limit of %d", len(reqs), s.opts.MaxBatchSize), nil)
	}

	items := make([]models.BatchItem, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			res, err := s.AnalyzeSample(ctx, req)
			items[i] = batchItem(req, res, err)
		})
		if err != nil {
			wg.Done()
			items[i] = batchItem(req, nil, apperrors.NewInternalError("batch worker pool unavailable", err))
		}
	}
	wg.Wait()

	resp := &models.BatchAnalyzeResponse{Items: items}
	for _, it := range items {
		if it.Error != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	logger.WithFields(logrus.Fields{
		"samples":   len(reqs),
		"succeeded": resp.Succeeded,
		"failed":    resp.Failed,
	}).Info("Batch analysis completed")
	return resp, nil
}

func batchItem(req models.AnalyzeRequest, res *models.SampleResult, err error) models.BatchItem {
	if err != nil {
		body := apperrors.ToResponse(err)
		return models.BatchItem{SampleID: req.SampleID, Status: "failed", Error: &body}
	}
	return models.BatchItem{SampleID: res.Metadata.SampleID, Status: "done", Result: res}
}
