package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-plankton-inspector/internal/analytics"
	"go-plankton-inspector/internal/calibration"
	"go-plankton-inspector/internal/counting"
	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/internal/logger"
	"go-plankton-inspector/internal/observer"
	"go-plankton-inspector/internal/quality"
	"go-plankton-inspector/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is a position in the run state machine.
type State string

const (
	StateIdle        State = "idle"
	StateSegmenting  State = "segmenting"
	StateClassifying State = "classifying"
	StateCounting    State = "counting"
	StateAnalyzing   State = "analyzing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Run is one sample's pass through the pipeline. Stages execute strictly
// in order on the caller's goroutine.
type Run struct {
	ID       string
	pipeline *Pipeline
	sample   Sample

	mu          sync.Mutex
	executed    bool
	state       State
	failedStage State
	err         error
	result      *models.SampleResult
	history     []State
}

func newRun(p *Pipeline, sample Sample) *Run {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = p.now().UTC()
	}
	return &Run{
		ID:       uuid.NewString(),
		pipeline: p,
		sample:   sample,
		state:    StateIdle,
		history:  []State{StateIdle},
	}
}

// SampleID returns the sample identifier, generated when the caller gave none.
func (r *Run) SampleID() string { return r.sample.ID }

func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// History lists every state the run has entered, in order.
func (r *Run) History() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.history...)
}

// Failure returns the stage that failed and its error, if the run failed.
func (r *Run) Failure() (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failedStage, r.err
}

// Result returns the sample result once the run is Done, nil otherwise.
func (r *Run) Result() *models.SampleResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

func (r *Run) transition(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	r.history = append(r.history, s)
}

// stageState carries data between stages of a single run.
type stageState struct {
	conv        calibration.Converter
	regions     []models.Region
	predictions []models.Prediction
	counts      *counting.Result
	analysis    *analytics.Result
	quality     models.FrameQuality
	timings     []models.StageTiming
}

// Execute drives the run from Idle to Done or Failed. Cancellation of ctx
// is observed between stages only.
func (r *Run) Execute(ctx context.Context) (*models.SampleResult, error) {
	r.mu.Lock()
	if r.executed {
		r.mu.Unlock()
		return nil, apperrors.NewInternalError(fmt.Sprintf("run %s already executed", r.ID), nil)
	}
	r.executed = true
	r.mu.Unlock()

	p := r.pipeline
	log := logger.ForRun(r.sample.ID, r.ID)
	started := p.now()
	p.events.NotifyObservers(ctx, r.event(observer.RunStarted, "", 0, nil))

	st := &stageState{}
	conv, err := calibration.NewConverter(r.sample.Calibration)
	if err != nil {
		return nil, r.fail(ctx, StateIdle, err, started)
	}
	st.conv = conv

	stages := []struct {
		state State
		run   func(context.Context, *stageState) error
	}{
		{StateSegmenting, r.segment},
		{StateClassifying, r.classify},
		{StateCounting, r.count},
		{StateAnalyzing, r.analyze},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(ctx, stage.state, canceled(stage.state, err), started)
		}
		r.transition(stage.state)
		t0 := p.now()
		if err := stage.run(ctx, st); err != nil {
			return nil, r.fail(ctx, stage.state, err, started)
		}
		d := p.now().Sub(t0)
		st.timings = append(st.timings, models.StageTiming{Stage: string(stage.state), DurationMs: float64(d.Microseconds()) / 1000})
		p.events.NotifyObservers(ctx, r.event(observer.StageCompleted, stage.state, d, nil))
	}

	result := r.assemble(st)
	r.mu.Lock()
	r.result = result
	r.state = StateDone
	r.history = append(r.history, StateDone)
	r.mu.Unlock()

	total := p.now().Sub(started)
	log.WithFields(logrus.Fields{
		"regions":     result.RegionCount,
		"organisms":   result.TotalCount,
		"richness":    result.Diversity.Richness,
		"alerts":      len(result.BloomAlerts),
		"duration_ms": float64(total.Microseconds()) / 1000,
	}).Info("Sample analysis completed")
	p.events.NotifyObservers(ctx, r.event(observer.RunCompleted, "", total, nil))
	return result, nil
}

func canceled(stage State, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(fmt.Sprintf("deadline passed before %s", stage), err)
	}
	return apperrors.NewCanceledError(fmt.Sprintf("run canceled before %s", stage), err)
}

// fail records the failing stage, attributes the error to it and publishes the failure.
func (r *Run) fail(ctx context.Context, stage State, err error, started time.Time) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("stage failed", err)
	}
	if appErr.Stage == "" {
		appErr = appErr.WithStage(string(stage))
	}

	r.mu.Lock()
	r.failedStage = stage
	r.err = appErr
	r.state = StateFailed
	r.history = append(r.history, StateFailed)
	r.mu.Unlock()

	logger.ForRun(r.sample.ID, r.ID).WithError(appErr).WithFields(logrus.Fields{
		"stage":      stage,
		"error_kind": appErr.Type,
	}).Error("Sample analysis failed")
	r.pipeline.events.NotifyObservers(ctx, r.event(observer.RunFailed, stage, r.pipeline.now().Sub(started), appErr))
	return appErr
}

func (r *Run) event(t observer.EventType, stage State, d time.Duration, err *apperrors.AppError) observer.RunEvent {
	ev := observer.RunEvent{
		EventType: t,
		Timestamp: r.pipeline.now(),
		SampleID:  r.sample.ID,
		RunID:     r.ID,
		Stage:     string(stage),
		Duration:  d,
	}
	if err != nil {
		ev.ErrorKind = string(err.Type)
		ev.ErrorMessage = err.Error()
	}
	return ev
}

func (r *Run) segment(_ context.Context, st *stageState) error {
	p := r.pipeline
	regions, err := p.segmenter.Segment(r.sample.Image)
	if err != nil {
		return err
	}
	b := r.sample.Image.Bounds()
	if err := checkRegions(regions, b.Dx(), b.Dy(), p.cfg.Segmentation); err != nil {
		return err
	}
	st.regions = regions

	st.quality = quality.Assess(r.sample.Image, p.cfg.Quality)
	if len(st.quality.Warnings) > 0 {
		logger.ForRun(r.sample.ID, r.ID).WithField("warnings", st.quality.Warnings).Warn("Frame quality is poor")
	}
	return nil
}

func (r *Run) classify(ctx context.Context, st *stageState) error {
	p := r.pipeline
	preds, err := p.classifier.Classify(ctx, r.sample.Image, st.regions)
	if err != nil {
		return err
	}
	if err := checkPredictions(preds, len(st.regions), p.cfg.Classification.ClassNames, p.cfg.Classification.TopK); err != nil {
		return err
	}
	st.predictions = preds
	return nil
}

func (r *Run) count(_ context.Context, st *stageState) error {
	res, err := counting.CountAndSize(st.regions, st.predictions, st.conv, r.pipeline.counting)
	if err != nil {
		return err
	}
	if err := checkCounts(res, len(st.regions)); err != nil {
		return err
	}
	st.counts = res
	return nil
}

func (r *Run) analyze(_ context.Context, st *stageState) error {
	res := r.pipeline.analytics.Analyze(st.counts.CountsByClass, r.sample.PreviousCounts)
	if err := checkAnalytics(res, st.counts.CountsByClass); err != nil {
		return err
	}
	st.analysis = res
	return nil
}

func (r *Run) assemble(st *stageState) *models.SampleResult {
	p := r.pipeline
	b := r.sample.Image.Bounds()
	return &models.SampleResult{
		Metadata: models.SampleMetadata{
			SampleID:                      r.sample.ID,
			RunID:                         r.ID,
			Timestamp:                     r.sample.Timestamp,
			Source:                        r.sample.Source,
			Magnification:                 r.sample.Calibration.Magnification,
			SensorPixelPitchMicrometers:   r.sample.Calibration.SensorPixelPitchMicrometers,
			ResolutionMicrometersPerPixel: st.conv.Resolution(),
			ImageWidth:                    b.Dx(),
			ImageHeight:                   b.Dy(),
			FieldOfViewMicrometers:        models.Point{X: st.conv.ToMicrometers(float64(b.Dx())), Y: st.conv.ToMicrometers(float64(b.Dy()))},
			SegmentationMethod:            p.segmenter.Name(),
			ModelName:                     p.classifier.ModelName(),
		},
		RegionCount:      len(st.regions),
		CountsByClass:    st.counts.CountsByClass,
		TotalCount:       st.counts.TotalCount,
		Organisms:        st.counts.Organisms,
		SizeDistribution: st.counts.SizeDistribution,
		Diversity:        st.analysis.Diversity,
		Composition:      st.analysis.Composition,
		BloomAlerts:      st.analysis.BloomAlerts,
		Trends:           st.analysis.Trends,
		FrameQuality:     st.quality,
		Timings:          st.timings,
	}
}
