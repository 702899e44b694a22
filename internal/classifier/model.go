package classifier

import (
	"context"
	"image"
	"sync"
)

// Model scores a batch of crops. Each returned vector has one score per
// configured class, in class order. Scores may be probabilities or logits.
type Model interface {
	Predict(ctx context.Context, crops []image.Image) ([][]float64, error)
}

// ConcurrentSafe is implemented by models that tolerate parallel Predict calls.
type ConcurrentSafe interface {
	ConcurrentSafe() bool
}

// Named is implemented by models that report an identifier for result metadata.
type Named interface {
	Name() string
}

// ModelName returns m's name, or "unnamed" when it does not implement Named.
func ModelName(m Model) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return "unnamed"
}

// Serialize guards m with a mutex unless it declares itself safe for concurrent use.
func Serialize(m Model) Model {
	if cs, ok := m.(ConcurrentSafe); ok && cs.ConcurrentSafe() {
		return m
	}
	if _, ok := m.(*serialModel); ok {
		return m
	}
	return &serialModel{model: m}
}

type serialModel struct {
	mu    sync.Mutex
	model Model
}

func (s *serialModel) Predict(ctx context.Context, crops []image.Image) ([][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Predict(ctx, crops)
}

func (s *serialModel) Name() string {
	return ModelName(s.model)
}
