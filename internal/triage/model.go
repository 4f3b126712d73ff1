package triage

import "time"

// Decision is the final, consolidated triage outcome. It is created
// once per request by the Engine, never mutated afterwards, and handed
// to the caller and the history store.
type Decision struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Level      Level      `json:"severity_level"`
	Simplified Simplified `json:"simplified_level"`
	Category   Category   `json:"category"`

	Confidence    float64  `json:"confidence"`
	Justification string   `json:"justification"`
	Alerts        []string `json:"alerts,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`
	TimeToCare      string   `json:"time_to_care"`
	CareLocation    string   `json:"care_location"`

	MLAvailable bool    `json:"ml_available"`
	MLAgreement bool    `json:"ml_agreement"`
	MLScore     float64 `json:"ml_score,omitempty"`
	MLError     string  `json:"ml_error,omitempty"`

	DataQuality     Quality  `json:"data_quality"`
	MissingFeatures []string `json:"missing_features,omitempty"`

	Duration float64 `json:"duration_seconds,omitempty"`
}

// Feedback is a clinician's correction of a stored decision, kept for
// later model retraining.
type Feedback struct {
	ID             string     `json:"id"`
	DecisionID     string     `json:"decision_id"`
	CorrectedLevel Simplified `json:"corrected_level"`
	Comment        string     `json:"comment,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
