package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/linnemanlabs/acuity/internal/triage"
)

func TestPutGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	d := &triage.Decision{
		ID:         "01A",
		Level:      triage.LevelEmergent,
		Simplified: triage.Red,
		Confidence: 0.95,
		Alerts:     []string{"Hypoxia: SpO2 89%"},
	}
	if err := s.Put(ctx, d); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, "01A")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v", ok, err)
	}
	if got.Level != triage.LevelEmergent || got.Confidence != 0.95 {
		t.Errorf("got %+v", got)
	}

	// Returned value is a copy; mutating it must not affect the store.
	got.Confidence = 0.1
	again, _, _ := s.Get(ctx, "01A")
	if again.Confidence != 0.95 {
		t.Error("Get returned a shared pointer, not a copy")
	}
}

func TestGet_Missing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("found a decision that was never stored")
	}
}

func TestPut_UpsertKeepsOrder(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	for i := range 3 {
		d := &triage.Decision{ID: fmt.Sprintf("%02d", i)}
		if err := s.Put(ctx, d); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	// Re-put the first; it must not move to the front of Recent.
	if err := s.Put(ctx, &triage.Decision{ID: "00", Confidence: 0.9}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent returned %d, want 3", len(recent))
	}
	if recent[0].ID != "02" || recent[2].ID != "00" {
		t.Errorf("order = [%s %s %s], want newest first", recent[0].ID, recent[1].ID, recent[2].ID)
	}
	if recent[2].Confidence != 0.9 {
		t.Error("upsert did not replace the stored decision")
	}
}

func TestRecent_Limit(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	for i := range 10 {
		if err := s.Put(ctx, &triage.Decision{ID: fmt.Sprintf("%02d", i)}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	recent, err := s.Recent(ctx, 4)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 4 {
		t.Fatalf("Recent(4) returned %d", len(recent))
	}
	if recent[0].ID != "09" {
		t.Errorf("first = %s, want 09", recent[0].ID)
	}
}

func TestPutFeedback(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	fb := &triage.Feedback{ID: "F1", DecisionID: "01A", CorrectedLevel: triage.Green}
	if err := s.PutFeedback(ctx, fb); err != nil {
		t.Fatalf("PutFeedback: %v", err)
	}
	if s.FeedbackCount() != 1 {
		t.Errorf("FeedbackCount = %d, want 1", s.FeedbackCount())
	}

	// Stored copy is detached from the caller's value.
	fb.Comment = "changed after store"
	if s.feedback[0].Comment != "" {
		t.Error("PutFeedback stored a shared pointer, not a copy")
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("%03d", i)
			_ = s.Put(ctx, &triage.Decision{ID: id})
			_, _, _ = s.Get(ctx, id)
			_, _ = s.Recent(ctx, 5)
		}()
	}
	wg.Wait()

	recent, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 50 {
		t.Errorf("stored %d decisions, want 50", len(recent))
	}
}
