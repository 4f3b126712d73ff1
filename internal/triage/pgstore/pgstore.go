// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/acuity/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/acuity/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage decisions and feedback in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned
// by the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const decisionColumns = `id, created_at, severity, simplified, category, confidence,
	justification, alerts, recommendations, time_to_care, care_location,
	ml_available, ml_agreement, ml_score, ml_error, data_quality, missing_features, duration_s`

// Put upserts a decision.
func (s *Store) Put(ctx context.Context, d *triage.Decision) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	alerts, err := json.Marshal(sliceOrEmpty(d.Alerts))
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}
	recs, err := json.Marshal(sliceOrEmpty(d.Recommendations))
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	missing, err := json.Marshal(sliceOrEmpty(d.MissingFeatures))
	if err != nil {
		return fmt.Errorf("marshal missing features: %w", err)
	}

	query := `INSERT INTO triage_decisions (` + decisionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			severity = EXCLUDED.severity,
			simplified = EXCLUDED.simplified,
			category = EXCLUDED.category,
			confidence = EXCLUDED.confidence,
			justification = EXCLUDED.justification,
			alerts = EXCLUDED.alerts,
			recommendations = EXCLUDED.recommendations,
			time_to_care = EXCLUDED.time_to_care,
			care_location = EXCLUDED.care_location,
			ml_available = EXCLUDED.ml_available,
			ml_agreement = EXCLUDED.ml_agreement,
			ml_score = EXCLUDED.ml_score,
			ml_error = EXCLUDED.ml_error,
			data_quality = EXCLUDED.data_quality,
			missing_features = EXCLUDED.missing_features,
			duration_s = EXCLUDED.duration_s`

	_, err = s.pool.Exec(ctx, query,
		d.ID, d.CreatedAt, d.Level.String(), d.Simplified.String(), string(d.Category),
		d.Confidence, d.Justification, alerts, recs, d.TimeToCare, d.CareLocation,
		d.MLAvailable, d.MLAgreement, d.MLScore, d.MLError, string(d.DataQuality),
		missing, d.Duration,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// Get retrieves a decision by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.Decision, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + decisionColumns + ` FROM triage_decisions WHERE id = $1`
	d, err := scanDecision(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if d == nil {
		return nil, false, nil
	}
	return d, true, nil
}

// Recent returns up to limit decisions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*triage.Decision, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Recent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + decisionColumns + ` FROM triage_decisions ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query recent decisions: %w", err)
	}
	defer rows.Close()

	var out []*triage.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// PutFeedback inserts a feedback record.
func (s *Store) PutFeedback(ctx context.Context, fb *triage.Feedback) error {
	ctx, span := tracer.Start(ctx, "pgstore.PutFeedback", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	query := `INSERT INTO triage_feedback (id, decision_id, corrected_level, comment, created_at)
		VALUES ($1,$2,$3,$4,$5)`
	_, err := s.pool.Exec(ctx, query,
		fb.ID, fb.DecisionID, fb.CorrectedLevel.String(), fb.Comment, fb.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// scanDecision scans one decision row. Returns (nil, nil) when the row
// does not exist.
func scanDecision(row pgx.Row) (*triage.Decision, error) {
	var (
		d                     triage.Decision
		severity, simplified  string
		category, quality     string
		alerts, recs, missing []byte
	)
	err := row.Scan(
		&d.ID, &d.CreatedAt, &severity, &simplified, &category, &d.Confidence,
		&d.Justification, &alerts, &recs, &d.TimeToCare, &d.CareLocation,
		&d.MLAvailable, &d.MLAgreement, &d.MLScore, &d.MLError, &quality,
		&missing, &d.Duration,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan decision: %w", err)
	}

	if d.Level, err = triage.ParseLevel(severity); err != nil {
		return nil, fmt.Errorf("decision %s: %w", d.ID, err)
	}
	if d.Simplified, err = triage.ParseSimplified(simplified); err != nil {
		return nil, fmt.Errorf("decision %s: %w", d.ID, err)
	}
	d.Category = triage.Category(category)
	d.DataQuality = triage.Quality(quality)

	if err := json.Unmarshal(alerts, &d.Alerts); err != nil {
		return nil, fmt.Errorf("decision %s: unmarshal alerts: %w", d.ID, err)
	}
	if err := json.Unmarshal(recs, &d.Recommendations); err != nil {
		return nil, fmt.Errorf("decision %s: unmarshal recommendations: %w", d.ID, err)
	}
	if err := json.Unmarshal(missing, &d.MissingFeatures); err != nil {
		return nil, fmt.Errorf("decision %s: unmarshal missing features: %w", d.ID, err)
	}
	return &d, nil
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
