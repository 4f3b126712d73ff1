package triageapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/acuity/internal/patient"
	"github.com/linnemanlabs/acuity/internal/triage"
	"github.com/linnemanlabs/acuity/internal/triage/memstore"
)

const validRecord = `{
	"age": 65,
	"sex": "male",
	"complaint": "chest pain",
	"vitals": {
		"heart_rate": 95,
		"systolic_bp": 135,
		"diastolic_bp": 85,
		"respiratory_rate": 18,
		"temperature": 37.1,
		"oxygen_saturation": 96,
		"pain_score": 6
	}
}`

type fixedExtractor struct {
	rec *patient.Record
	err error
}

func (e *fixedExtractor) Extract(_ context.Context, _ string) (*patient.Record, error) {
	return e.rec, e.err
}

func newTestService(t *testing.T) *triage.Service {
	t.Helper()
	engine := triage.NewEngine(nil, nil, triage.EngineHooks{})
	return triage.NewService(memstore.New(), engine, nil, nil, nil)
}

func newTestRouter(t *testing.T, extractor Extractor) chi.Router {
	t.Helper()
	api := New(nil, newTestService(t), extractor)
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	return r
}

//  New / constructor

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	api := New(nil, newTestService(t), nil)
	if api == nil {
		t.Fatal("New(nil, svc, nil) returned nil API")
	}
	if api.logger == nil {
		t.Fatal("New(nil, svc, nil) left logger nil; expected Nop logger")
	}
}

func TestNew_WithLogger(t *testing.T) {
	t.Parallel()

	api := New(log.Nop(), newTestService(t), nil)
	if api == nil {
		t.Fatal("New(logger, svc, nil) returned nil API")
	}
}

func TestNew_NilService_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New(nil, nil, nil) did not panic; expected panic for nil service")
		}
	}()
	New(nil, nil, nil)
}

// Routing

func TestRegisterRoutes_Triage(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"POST valid record", http.MethodPost, "/api/v1/triage", validRecord, http.StatusCreated},
		{"POST invalid JSON", http.MethodPost, "/api/v1/triage", `{bad`, http.StatusBadRequest},
		{"GET list", http.MethodGet, "/api/v1/triage", "", http.StatusOK},
		{"PUT not allowed", http.MethodPut, "/api/v1/triage", validRecord, http.StatusMethodNotAllowed},
		{"DELETE not allowed", http.MethodDelete, "/api/v1/triage", "", http.StatusMethodNotAllowed},
		{"GET unknown id", http.MethodGet, "/api/v1/triage/01NOPE", "", http.StatusNotFound},
		{"POST to id not allowed", http.MethodPost, "/api/v1/triage/01NOPE", validRecord, http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

// Triage handler

func TestHandleTriage_ReturnsDecision(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", strings.NewReader(validRecord))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var d triage.Decision
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if d.ID == "" {
		t.Error("decision has no id")
	}
	if d.Simplified != triage.Yellow {
		t.Errorf("simplified = %s, want yellow for uncomplicated chest pain", d.Simplified)
	}
	if d.Category != triage.CategoryCardiovascular {
		t.Errorf("category = %s, want cardiovascular", d.Category)
	}

	// The decision is retrievable afterwards.
	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/triage/"+d.ID, http.NoBody)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET stored decision = %d", getRec.Code)
	}
}

func TestHandleTriage_ValidationErrorIs422(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil)

	// diastolic above systolic
	body := strings.Replace(validRecord, `"systolic_bp": 135`, `"systolic_bp": 80`, 1)
	body = strings.Replace(body, `"diastolic_bp": 85`, `"diastolic_bp": 120`, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp["field"] != "diastolic_bp" {
		t.Errorf("field = %v, want diastolic_bp", resp["field"])
	}
}

func TestHandleRecent(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil)

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", strings.NewReader(validRecord))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed triage = %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/triage?limit=2", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Decisions []*triage.Decision `json:"decisions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Decisions) != 2 {
		t.Errorf("returned %d decisions, want 2", len(resp.Decisions))
	}

	// Bad limit.
	badReq := httptest.NewRequest(http.MethodGet, "/api/v1/triage?limit=abc", http.NoBody)
	badRec := httptest.NewRecorder()
	r.ServeHTTP(badRec, badReq)
	if badRec.Code != http.StatusBadRequest {
		t.Errorf("limit=abc = %d, want %d", badRec.Code, http.StatusBadRequest)
	}
}

// Feedback handler

func TestHandleFeedback(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", strings.NewReader(validRecord))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var d triage.Decision
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode decision: %v", err)
	}

	fbBody := fmt.Sprintf(`{"decision_id": %q, "corrected_level": "green", "comment": "overtriaged"}`, d.ID)
	fbReq := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(fbBody))
	fbReq.Header.Set("Content-Type", "application/json")
	fbRec := httptest.NewRecorder()
	r.ServeHTTP(fbRec, fbReq)

	if fbRec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", fbRec.Code, fbRec.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(fbRec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] == "" {
		t.Error("no feedback id returned")
	}
}

func TestHandleFeedback_Errors(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing decision id", `{"corrected_level": "green"}`, http.StatusBadRequest},
		{"unknown decision", `{"decision_id": "01NOPE", "corrected_level": "green"}`, http.StatusNotFound},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
		{"unknown level", `{"decision_id": "01NOPE", "corrected_level": "purple"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

// Extract handler

func TestHandleExtract(t *testing.T) {
	t.Parallel()

	rec := &patient.Record{
		Age:       30,
		Sex:       patient.SexFemale,
		Complaint: "headache",
		Vitals: patient.VitalSigns{
			HeartRate: 70, SystolicBP: 118, DiastolicBP: 76,
			RespiratoryRate: 14, Temperature: 36.9, OxygenSaturation: 99, PainScore: 3,
		},
	}
	r := newTestRouter(t, &fixedExtractor{rec: rec})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract",
		strings.NewReader(`{"text": "30 year old woman with a headache, HR 70"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got patient.Record
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if got.Age != 30 || got.Complaint != "headache" {
		t.Errorf("got %+v", got)
	}
}

func TestHandleExtract_NotConfigured(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(`{"text": "hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotImplemented)
	}
}

func TestHandleExtract_ValidationFailure(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fixedExtractor{
		err: &patient.ValidationError{Field: "heart_rate", Value: 400, Expected: "20..250"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(`{"text": "HR 400"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

// Fuzz

func FuzzTriageIngestion(f *testing.F) {
	api := New(nil, triage.NewService(memstore.New(), triage.NewEngine(nil, nil, triage.EngineHooks{}), nil, nil, nil), nil)
	r := chi.NewRouter()
	api.RegisterRoutes(r)

	seeds := [][]byte{
		nil,
		[]byte(""),
		[]byte("{}"),
		[]byte(validRecord),
		[]byte("{invalid json"),
		[]byte("\x00\x01\x02\xff\xfe"),
		[]byte(strings.Repeat("a", 10000)),
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, body []byte) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		// Must not panic
		r.ServeHTTP(rec, req)

		switch rec.Code {
		case http.StatusCreated, http.StatusBadRequest, http.StatusUnprocessableEntity:
		default:
			t.Errorf("POST /api/v1/triage with body len=%d = %d, want 201, 400 or 422", len(body), rec.Code)
		}
	})
}
