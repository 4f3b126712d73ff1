package triage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type stubClassifier struct {
	pred  *Prediction
	err   error
	calls atomic.Int64
}

func (s *stubClassifier) Predict(_ context.Context, _ Features) (*Prediction, error) {
	s.calls.Add(1)
	return s.pred, s.err
}

func TestLazyClassifier_LoadsOnce(t *testing.T) {
	t.Parallel()

	var opens atomic.Int64
	stub := &stubClassifier{pred: &Prediction{Label: Yellow, Probability: 0.8}}
	lazy := NewLazyClassifier(func(_ context.Context) (Classifier, error) {
		opens.Add(1)
		return stub, nil
	})

	const workers = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := lazy.Predict(context.Background(), Features{}); err != nil {
				t.Errorf("Predict: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := opens.Load(); got != 1 {
		t.Errorf("open called %d times under concurrency, want 1", got)
	}
	if got := stub.calls.Load(); got != workers {
		t.Errorf("Predict delegated %d times, want %d", got, workers)
	}
}

func TestLazyClassifier_FailedLoadRetries(t *testing.T) {
	t.Parallel()

	var opens atomic.Int64
	stub := &stubClassifier{pred: &Prediction{Label: Red, Probability: 0.9}}
	lazy := NewLazyClassifier(func(_ context.Context) (Classifier, error) {
		if opens.Add(1) < 3 {
			return nil, ErrModelUnavailable
		}
		return stub, nil
	})

	for i := range 2 {
		_, err := lazy.Predict(context.Background(), Features{})
		if !errors.Is(err, ErrModelUnavailable) {
			t.Fatalf("attempt %d: err = %v, want ErrModelUnavailable", i+1, err)
		}
	}

	pred, err := lazy.Predict(context.Background(), Features{})
	if err != nil {
		t.Fatalf("third attempt: %v", err)
	}
	if pred.Label != Red {
		t.Errorf("label = %s, want red", pred.Label)
	}
	if got := opens.Load(); got != 3 {
		t.Errorf("open called %d times, want 3", got)
	}

	// Once loaded the handle is cached.
	if _, err := lazy.Predict(context.Background(), Features{}); err != nil {
		t.Fatalf("post-load attempt: %v", err)
	}
	if got := opens.Load(); got != 3 {
		t.Errorf("open called %d times after load, want 3", got)
	}
}
