package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunEvent describes a pipeline run transition.
type RunEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	SampleID     string                 `json:"sample_id"`
	RunID        string                 `json:"run_id"`
	Stage        string                 `json:"stage,omitempty"`
	Duration     time.Duration          `json:"duration"`
	ErrorKind    string                 `json:"error_kind,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of run event
type EventType string

const (
	RunStarted     EventType = "run_started"
	StageCompleted EventType = "stage_completed"
	RunCompleted   EventType = "run_completed"
	RunFailed      EventType = "run_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event RunEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event RunEvent)
}

// LoggingObserver logs run events
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event RunEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"sample_id":   event.SampleID,
		"run_id":      event.RunID,
		"duration_ms": float64(event.Duration.Microseconds()) / 1000,
	}
	if event.Stage != "" {
		fields["stage"] = event.Stage
	}
	if event.ErrorKind != "" {
		fields["error_kind"] = event.ErrorKind
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case RunStarted:
		entry.Info("Sample run started")
	case StageCompleted:
		entry.Debug("Pipeline stage completed")
	case RunCompleted:
		entry.Info("Sample run completed")
	case RunFailed:
		entry.Error("Sample run failed")
	default:
		entry.Info("Run event occurred")
	}
}

func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver aggregates run outcomes and per-stage timings.
type MetricsObserver struct {
	mu             sync.RWMutex
	totalRuns      int64
	completedRuns  int64
	failedRuns     int64
	totalRunTime   time.Duration
	failuresByKind map[string]int64
	stageTime      map[string]time.Duration
	stageCount     map[string]int64
}

func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		failuresByKind: map[string]int64{},
		stageTime:      map[string]time.Duration{},
		stageCount:     map[string]int64{},
	}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event RunEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case RunStarted:
		o.totalRuns++
	case StageCompleted:
		o.stageTime[event.Stage] += event.Duration
		o.stageCount[event.Stage]++
	case RunCompleted:
		o.completedRuns++
		o.totalRunTime += event.Duration
	case RunFailed:
		o.failedRuns++
		o.failuresByKind[event.ErrorKind]++
	}
}

func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a snapshot suitable for JSON encoding.
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgRun := time.Duration(0)
	if o.completedRuns > 0 {
		avgRun = o.totalRunTime / time.Duration(o.completedRuns)
	}
	stages := make(map[string]float64, len(o.stageTime))
	for stage, total := range o.stageTime {
		stages[stage] = float64((total / time.Duration(o.stageCount[stage])).Microseconds()) / 1000
	}
	failures := make(map[string]int64, len(o.failuresByKind))
	for k, v := range o.failuresByKind {
		failures[k] = v
	}

	return map[string]interface{}{
		"total_runs":        o.totalRuns,
		"completed_runs":    o.completedRuns,
		"failed_runs":       o.failedRuns,
		"avg_run_time_ms":   float64(avgRun.Microseconds()) / 1000,
		"avg_stage_time_ms": stages,
		"failures_by_kind":  failures,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{observers: make([]Observer, 0)}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order on the caller's goroutine. A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event RunEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event RunEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
