package triage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrModelUnavailable signals that no trained model is loaded. The
// engine treats it as a degraded mode, never as a request failure.
var ErrModelUnavailable = errors.New("ml model unavailable")

// Prediction is the advisory ML judgment: a simplified-level label and
// the top class probability.
type Prediction struct {
	Label       Simplified
	Probability float64
}

// Classifier is the interface for any ML backend.
type Classifier interface {
	Predict(ctx context.Context, f Features) (*Prediction, error)
}

type classifierBox struct{ c Classifier }

// LazyClassifier defers loading the model handle until the first
// prediction and guarantees at most one load under concurrent first
// requests (double-checked: fast atomic read, then a locked re-check).
// A failed load is returned to the caller and retried on the next call.
type LazyClassifier struct {
	mu     sync.Mutex
	handle atomic.Pointer[classifierBox]
	open   func(ctx context.Context) (Classifier, error)
}

// NewLazyClassifier wraps a model-opening function.
func NewLazyClassifier(open func(ctx context.Context) (Classifier, error)) *LazyClassifier {
	return &LazyClassifier{open: open}
}

// Predict loads the model on first use, then delegates.
func (l *LazyClassifier) Predict(ctx context.Context, f Features) (*Prediction, error) {
	c, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.Predict(ctx, f)
}

func (l *LazyClassifier) get(ctx context.Context) (Classifier, error) {
	if box := l.handle.Load(); box != nil {
		return box.c, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if box := l.handle.Load(); box != nil {
		return box.c, nil
	}

	c, err := l.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ml model: %w", err)
	}
	l.handle.Store(&classifierBox{c: c})
	return c, nil
}
