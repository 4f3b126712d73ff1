package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/acuity/internal/patient"
)

// Confidence model. Rule-triggered red flags dominate ML disagreement:
// any alert forces the high ceiling regardless of what the model says.
const (
	baseConfidence      = 0.75
	agreementBonus      = 0.15
	alertConfidence     = 0.95
	lowQualityPenalty   = 0.10
	insufficientPenalty = 0.20
	minConfidence       = 0.50
	maxConfidence       = 0.99
)

// DefaultMLTimeout bounds the external classifier call. The rule path
// itself has no timeout; it completes in microseconds.
const DefaultMLTimeout = 2 * time.Second

// EngineHooks lets the caller observe engine activity (wired to
// Prometheus by main). Nil fields are skipped.
type EngineHooks struct {
	OnMLCall   func(outcome string, duration float64)
	OnDecision func(d *Decision)
}

// Engine is the consolidation engine: it merges the rule-based decision
// with an optional ML prediction into one final, explainable decision.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	classifier Classifier
	mlTimeout  time.Duration
	logger     log.Logger
	hooks      EngineHooks
}

// NewEngine creates an engine. classifier may be nil, in which case
// every decision is rule-only with ml_available=false.
func NewEngine(classifier Classifier, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		classifier: classifier,
		mlTimeout:  DefaultMLTimeout,
		logger:     logger,
		hooks:      hooks,
	}
}

// SetMLTimeout overrides the per-decision classifier deadline. Call
// before serving; the engine is otherwise immutable.
func (e *Engine) SetMLTimeout(d time.Duration) {
	if d > 0 {
		e.mlTimeout = d
	}
}

// Evaluate runs the full pipeline over a validated record:
//
//	vitals rules + motif rules → combine → comorbidity adjust → simplify,
//
// then consults the ML classifier (advisory only) and consolidates both
// judgments into a Decision. The ML label never overrides the
// rule-based level; it only moves the confidence and the agreement
// flag. ML errors and timeouts degrade, they never fail the request.
func (e *Engine) Evaluate(ctx context.Context, rec *patient.Record) *Decision {
	start := time.Now()

	vitalsLevel, alerts := EvaluateVitals(&rec.Vitals, rec.Age)
	motifLevel, category, recommendations := ClassifyMotif(rec.Complaint)

	combined := Combine(vitalsLevel, motifLevel)
	level := AdjustForComorbidity(combined, rec.ChronicConditions)
	simplified := level.Simplify()

	features := FeaturesFromRecord(rec)
	quality, missing := AssessQuality(features)

	d := &Decision{
		Level:           level,
		Simplified:      simplified,
		Category:        category,
		Alerts:          alerts,
		Recommendations: recommendations,
		TimeToCare:      level.TimeToCare(),
		CareLocation:    level.CareLocation(),
		DataQuality:     quality,
		MissingFeatures: missing,
	}

	pred, mlErr := e.predict(ctx, features, quality)
	if pred != nil {
		d.MLAvailable = true
		d.MLScore = pred.Probability
		d.MLAgreement = pred.Label == simplified
	}
	d.MLError = mlErr

	d.Confidence = consolidateConfidence(d)
	d.Justification = buildJustification(level, category, combined, alerts, quality)
	d.Duration = time.Since(start).Seconds()

	e.logger.Info(ctx, "triage decision",
		"severity", level.String(),
		"simplified", simplified.String(),
		"category", string(category),
		"confidence", d.Confidence,
		"alerts", len(alerts),
		"ml_available", d.MLAvailable,
		"ml_agreement", d.MLAgreement,
		"data_quality", string(quality),
	)

	if e.hooks.OnDecision != nil {
		e.hooks.OnDecision(d)
	}

	return d
}

// predict consults the classifier and folds every failure mode —
// disabled, insufficient data, load failure, timeout — into the
// degraded path. The returned string is the ml_error surfaced to the
// caller, empty when the prediction succeeded or was never attempted.
func (e *Engine) predict(ctx context.Context, features Features, quality Quality) (*Prediction, string) {
	if e.classifier == nil {
		e.observeML("disabled", 0)
		return nil, ""
	}
	if quality == QualityInsufficient {
		e.observeML("skipped_insufficient", 0)
		return nil, ""
	}

	cctx, cancel := context.WithTimeout(ctx, e.mlTimeout)
	defer cancel()

	start := time.Now()
	pred, err := e.classifier.Predict(cctx, features)
	dur := time.Since(start).Seconds()
	if err != nil {
		e.observeML("error", dur)
		e.logger.Warn(ctx, "ml prediction unavailable, continuing rules-only", "error", err)
		return nil, err.Error()
	}
	e.observeML("ok", dur)
	return pred, ""
}

func (e *Engine) observeML(outcome string, duration float64) {
	if e.hooks.OnMLCall != nil {
		e.hooks.OnMLCall(outcome, duration)
	}
}

// consolidateConfidence computes the bounded confidence score from the
// decision's rule outcome, ML agreement and data quality.
func consolidateConfidence(d *Decision) float64 {
	c := baseConfidence

	if d.MLAvailable && d.MLAgreement {
		c += agreementBonus
	}

	// Rule-triggered red flags dominate: force the ceiling whether or
	// not the model agrees.
	if len(d.Alerts) > 0 {
		c = alertConfidence
	}

	switch d.DataQuality {
	case QualityLow:
		c -= lowQualityPenalty
	case QualityInsufficient:
		c -= insufficientPenalty
	}

	if c < minConfidence {
		c = minConfidence
	}
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

// buildJustification renders the explanation deterministically from the
// rule outcome and the triggered alerts. The ML output contributes
// nothing here: explainability is derived from rules only.
func buildJustification(level Level, category Category, beforeAdjust Level, alerts []string, quality Quality) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Triage level %s, category %s.", level, category)
	if level != beforeAdjust {
		b.WriteString(" Escalated one step for heavy comorbidity.")
	}
	if len(alerts) > 0 {
		fmt.Fprintf(&b, " Alerts: %s.", strings.Join(alerts, "; "))
	}
	if quality != QualityHigh {
		fmt.Fprintf(&b, " Data quality: %s.", quality)
	}
	return b.String()
}
