package observer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, RunEvent) { panic("observer bug") }
func (panickingObserver) GetObserverName() string           { return "panicking" }

func TestMetricsObserverAggregates(t *testing.T) {
	m := NewMetricsObserver()
	p := NewEventPublisher()
	p.Subscribe(m)
	ctx := context.Background()

	p.NotifyObservers(ctx, RunEvent{EventType: RunStarted})
	p.NotifyObservers(ctx, RunEvent{EventType: StageCompleted, Stage: "segmenting", Duration: 10 * time.Millisecond})
	p.NotifyObservers(ctx, RunEvent{EventType: StageCompleted, Stage: "segmenting", Duration: 30 * time.Millisecond})
	p.NotifyObservers(ctx, RunEvent{EventType: RunCompleted, Duration: 50 * time.Millisecond})
	p.NotifyObservers(ctx, RunEvent{EventType: RunStarted})
	p.NotifyObservers(ctx, RunEvent{EventType: RunFailed, ErrorKind: "classifier_timeout"})

	metrics := m.GetMetrics()
	if metrics["total_runs"] != int64(2) || metrics["completed_runs"] != int64(1) || metrics["failed_runs"] != int64(1) {
		t.Errorf("Unexpected run counters: %v", metrics)
	}
	if metrics["avg_run_time_ms"] != 50.0 {
		t.Errorf("Expected avg run time 50ms, got %v", metrics["avg_run_time_ms"])
	}
	stages := metrics["avg_stage_time_ms"].(map[string]float64)
	if stages["segmenting"] != 20 {
		t.Errorf("Expected avg segmenting time 20ms, got %v", stages["segmenting"])
	}
	failures := metrics["failures_by_kind"].(map[string]int64)
	if failures["classifier_timeout"] != 1 {
		t.Errorf("Expected one classifier_timeout failure, got %v", failures)
	}
}

func TestPublisherSurvivesPanickingObserver(t *testing.T) {
	m := NewMetricsObserver()
	p := NewEventPublisher()
	p.Subscribe(panickingObserver{})
	p.Subscribe(m)

	p.NotifyObservers(context.Background(), RunEvent{EventType: RunStarted})

	if m.GetMetrics()["total_runs"] != int64(1) {
		t.Error("Expected later observers to still receive the event")
	}
}

func TestUnsubscribe(t *testing.T) {
	m := NewMetricsObserver()
	p := NewEventPublisher()
	p.Subscribe(m)
	p.Unsubscribe(m)
	p.NotifyObservers(context.Background(), RunEvent{EventType: RunStarted})

	if m.GetMetrics()["total_runs"] != int64(0) {
		t.Error("Expected no events after unsubscribe")
	}
}

func TestLoggingObserverWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	o := NewLoggingObserver(l)
	o.OnEvent(context.Background(), RunEvent{
		EventType:    RunFailed,
		SampleID:     "sample-7",
		Stage:        "classifying",
		ErrorKind:    "classifier_timeout",
		ErrorMessage: "too slow",
	})

	out := buf.String()
	for _, want := range []string{`"sample_id":"sample-7"`, `"stage":"classifying"`, `"error_kind":"classifier_timeout"`, `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %s, got %s", want, out)
		}
	}
}
