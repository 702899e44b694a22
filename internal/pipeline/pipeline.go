// Package pipeline runs one microscope sample through segmentation,
// classification, counting and analytics, validating each stage's output
// before the next stage starts.
package pipeline

import (
	"context"
	"image"
	"time"

	"go-plankton-inspector/internal/analytics"
	"go-plankton-inspector/internal/classifier"
	"go-plankton-inspector/internal/config"
	"go-plankton-inspector/internal/counting"
	"go-plankton-inspector/internal/observer"
	"go-plankton-inspector/internal/segmentation"
	"go-plankton-inspector/pkg/models"
)

// Classifier is the classification stage as seen by the orchestrator.
type Classifier interface {
	Classify(ctx context.Context, img image.Image, regions []models.Region) ([]models.Prediction, error)
	ModelName() string
}

// Sample is one image plus the metadata needed to analyze it.
type Sample struct {
	ID             string
	Image          image.Image
	Calibration    models.Calibration
	Source         string
	Timestamp      time.Time
	PreviousCounts map[string]int
}

// Pipeline holds validated stage configuration and the shared classifier.
// It is safe for concurrent use; each sample gets its own Run.
type Pipeline struct {
	cfg        *config.PipelineConfig
	segmenter  segmentation.Segmenter
	classifier Classifier
	counting   counting.Config
	analytics  *analytics.Engine
	events     observer.Subject
	now        func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithEvents publishes run events to s.
func WithEvents(s observer.Subject) Option {
	return func(p *Pipeline) { p.events = s }
}

// WithClassifier replaces the model-backed classification stage.
func WithClassifier(c Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithClock overrides the time source used for timestamps and timings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New validates cfg once and builds every stage. model may be nil when
// WithClassifier supplies the classification stage.
func New(cfg *config.PipelineConfig, model classifier.Model, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seg, err := segmentation.NewSegmenter(cfg.Segmentation)
	if err != nil {
		return nil, err
	}
	engine, err := analytics.NewEngine(cfg.Analytics)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:       cfg,
		segmenter: seg,
		counting:  cfg.CountingConfig(),
		analytics: engine,
		events:    observer.NewEventPublisher(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.classifier == nil {
		adapter, err := classifier.NewAdapter(model, cfg.Classification)
		if err != nil {
			return nil, err
		}
		p.classifier = adapter
	}
	return p, nil
}

// Config returns the validated configuration.
func (p *Pipeline) Config() *config.PipelineConfig {
	return p.cfg
}

// NewRun creates an idle run for sample.
func (p *Pipeline) NewRun(sample Sample) *Run {
	return newRun(p, sample)
}

// Analyze runs sample to completion and returns its result, or the first
// stage failure.
func (p *Pipeline) Analyze(ctx context.Context, sample Sample) (*models.SampleResult, error) {
	return p.NewRun(sample).Execute(ctx)
}
