package triage

import "context"

// Store is the persistence interface for the decision history and the
// clinician feedback used for retraining. The triage path never depends
// on persistence succeeding.
type Store interface {
	Put(ctx context.Context, d *Decision) error
	Get(ctx context.Context, id string) (*Decision, bool, error)
	Recent(ctx context.Context, limit int) ([]*Decision, error)
	PutFeedback(ctx context.Context, fb *Feedback) error
}
