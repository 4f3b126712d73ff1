package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/acuity/internal/patient"
)

var (
	// ErrMissingDecisionID is returned when feedback arrives without a
	// decision reference.
	ErrMissingDecisionID = errors.New("feedback requires a decision_id")

	// ErrDecisionNotFound is returned when feedback references a
	// decision the store has never seen.
	ErrDecisionNotFound = errors.New("decision not found")
)

// Notifier delivers high-acuity decisions to an external channel.
type Notifier interface {
	Send(ctx context.Context, d *Decision) error
}

// Service is the business boundary for triage operations: validation,
// engine invocation, ids, best-effort history persistence and
// notification dispatch.
type Service struct {
	store    Store
	engine   *Engine
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
}

// NewService creates a new triage service. metrics and notifier may be
// nil.
func NewService(store Store, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// Triage validates the record, runs the decision engine and persists
// the outcome. Validation failures abort before any rule evaluation;
// store failures are logged and surfaced as metrics but never fail the
// request — the caller still gets the decision.
func (s *Service) Triage(ctx context.Context, rec *patient.Record) (*Decision, error) {
	if err := rec.Validate(); err != nil {
		s.metrics.incValidationFailure(err)
		return nil, err
	}

	d := s.engine.Evaluate(ctx, rec)
	d.ID = ulid.Make().String()
	d.CreatedAt = time.Now().UTC()

	if err := s.store.Put(ctx, d); err != nil {
		s.logger.Error(ctx, err, "failed to persist triage decision", "decision_id", d.ID)
		s.metrics.incStoreFailure()
	}

	if s.notifier != nil && d.Simplified == Red {
		// Notification must not block or outlive-cancel the request.
		go s.notify(context.WithoutCancel(ctx), d)
	}

	return d, nil
}

// Get retrieves a stored decision by ID.
func (s *Service) Get(ctx context.Context, id string) (*Decision, bool, error) {
	return s.store.Get(ctx, id)
}

// Recent lists the most recent decisions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Decision, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.Recent(ctx, limit)
}

// AddFeedback records a clinician correction against an existing
// decision.
func (s *Service) AddFeedback(ctx context.Context, fb *Feedback) error {
	if fb.DecisionID == "" {
		return ErrMissingDecisionID
	}
	if _, ok, err := s.store.Get(ctx, fb.DecisionID); err != nil {
		return fmt.Errorf("look up decision %s: %w", fb.DecisionID, err)
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrDecisionNotFound, fb.DecisionID)
	}

	fb.ID = ulid.Make().String()
	fb.CreatedAt = time.Now().UTC()
	if err := s.store.PutFeedback(ctx, fb); err != nil {
		return fmt.Errorf("persist feedback: %w", err)
	}
	s.metrics.incFeedback()
	return nil
}

func (s *Service) notify(ctx context.Context, d *Decision) {
	if err := s.notifier.Send(ctx, d); err != nil {
		s.logger.Error(ctx, err, "notifier send failed", "decision_id", d.ID)
		s.metrics.incNotify("error")
		return
	}
	s.metrics.incNotify("ok")
}
