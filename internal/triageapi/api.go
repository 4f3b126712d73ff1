// Package triageapi exposes the triage engine over HTTP.
package triageapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/acuity/internal/patient"
	"github.com/linnemanlabs/acuity/internal/triage"
)

// TriageService defines the business operations triageapi needs.
type TriageService interface {
	Triage(ctx context.Context, rec *patient.Record) (*triage.Decision, error)
	Get(ctx context.Context, id string) (*triage.Decision, bool, error)
	Recent(ctx context.Context, limit int) ([]*triage.Decision, error)
	AddFeedback(ctx context.Context, fb *triage.Feedback) error
}

// Extractor turns free-form intake text into a structured record.
type Extractor interface {
	Extract(ctx context.Context, text string) (*patient.Record, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger    log.Logger
	svc       TriageService
	extractor Extractor
}

// New creates a new API handler. extractor may be nil; the extract
// endpoint then answers 501.
func New(logger log.Logger, svc TriageService, extractor Extractor) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger:    logger,
		svc:       svc,
		extractor: extractor,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/triage", a.handleTriage)
		r.Get("/triage", a.handleRecent)
		r.Get("/triage/{id}", a.handleGetDecision)
		r.Post("/feedback", a.handleFeedback)
		r.Post("/extract", a.handleExtract)
	})
}

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	var rec patient.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	d, err := a.svc.Triage(r.Context(), &rec)
	if err != nil {
		var verr *patient.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    "validation failed",
				"field":    verr.Field,
				"expected": verr.Expected,
			})
			return
		}
		a.logger.Error(r.Context(), err, "triage failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("acuity.decision.id", d.ID),
		attribute.String("acuity.decision.level", d.Level.String()),
		attribute.String("acuity.decision.simplified", d.Simplified.String()),
	)

	writeJSON(w, http.StatusCreated, d)
}

func (a *API) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("acuity.decision.id", id))

	d, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get decision", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, `{"error":"limit must be an integer"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	decisions, err := a.svc.Recent(r.Context(), limit)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list decisions")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if decisions == nil {
		decisions = []*triage.Decision{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}

func (a *API) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var fb triage.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	if err := a.svc.AddFeedback(r.Context(), &fb); err != nil {
		if errors.Is(err, triage.ErrDecisionNotFound) {
			http.Error(w, `{"error":"decision not found"}`, http.StatusNotFound)
			return
		}
		if errors.Is(err, triage.ErrMissingDecisionID) {
			http.Error(w, `{"error":"decision_id is required"}`, http.StatusBadRequest)
			return
		}
		a.logger.Error(r.Context(), err, "failed to record feedback")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": fb.ID})
}

type extractRequest struct {
	Text string `json:"text"`
}

func (a *API) handleExtract(w http.ResponseWriter, r *http.Request) {
	if a.extractor == nil {
		http.Error(w, `{"error":"extraction not configured"}`, http.StatusNotImplemented)
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	rec, err := a.extractor.Extract(r.Context(), req.Text)
	if err != nil {
		var verr *patient.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    "extracted record failed validation",
				"field":    verr.Field,
				"expected": verr.Expected,
			})
			return
		}
		a.logger.Error(r.Context(), err, "extraction failed")
		http.Error(w, `{"error":"extraction failed"}`, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
