// Package patient defines the structured patient record consumed by the
// triage engine, and the construction-time validation that rejects
// physiologically impossible input before any classification runs.
package patient

import (
	"fmt"
	"strings"
)

// Sex is the patient's administrative sex.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// VitalSigns holds one set of measured vitals. Glasgow and Glucose are
// optional: nil means not measured. An absent Glasgow is treated as 15
// (fully alert) by the rule evaluator but still counts as a missing ML
// feature.
type VitalSigns struct {
	HeartRate        int      `json:"heart_rate"`        // beats/min
	SystolicBP       int      `json:"systolic_bp"`       // mmHg
	DiastolicBP      int      `json:"diastolic_bp"`      // mmHg
	RespiratoryRate  int      `json:"respiratory_rate"`  // breaths/min
	Temperature      float64  `json:"temperature"`       // °C
	OxygenSaturation int      `json:"oxygen_saturation"` // SpO2 percent
	PainScore        int      `json:"pain_score"`        // 0-10
	Glasgow          *int     `json:"glasgow,omitempty"` // GCS 3-15
	Glucose          *float64 `json:"glucose,omitempty"` // capillary, g/L
}

// Record is one triage request's view of a patient. It is created fresh
// per request and never mutated after validation; the triage components
// borrow it read-only.
type Record struct {
	Age               int        `json:"age"`
	Sex               Sex        `json:"sex"`
	Complaint         string     `json:"complaint"`
	ChronicConditions []string   `json:"chronic_conditions,omitempty"`
	Vitals            VitalSigns `json:"vitals"`
}

// ValidationError reports a field outside its physiologically plausible
// range. It is fatal for the request: the engine refuses to classify
// rather than clamp or guess.
type ValidationError struct {
	Field    string
	Value    any
	Expected string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v (expected %s)", e.Field, e.Value, e.Expected)
}

// Plausibility ranges. These are admission bounds, not clinical
// thresholds: values inside them may still be highly abnormal, that is
// the rule evaluator's job to decide.
const (
	minHeartRate, maxHeartRate     = 20, 250
	minSystolic, maxSystolic       = 50, 300
	minDiastolic, maxDiastolic     = 30, 150
	minRespRate, maxRespRate       = 5, 60
	minTemperature, maxTemperature = 32.0, 45.0
	minSpO2, maxSpO2               = 50, 100
	minPain, maxPain               = 0, 10
	minGlasgow, maxGlasgow         = 3, 15
	minGlucose, maxGlucose         = 0.2, 6.0
	minAge, maxAge                 = 0, 120
)

// Validate checks every vital sign against its plausible range. The
// first violation is returned; no value is ever silently clamped.
func (v *VitalSigns) Validate() error {
	if v.HeartRate < minHeartRate || v.HeartRate > maxHeartRate {
		return outOfRange("heart_rate", v.HeartRate, minHeartRate, maxHeartRate)
	}
	if v.SystolicBP < minSystolic || v.SystolicBP > maxSystolic {
		return outOfRange("systolic_bp", v.SystolicBP, minSystolic, maxSystolic)
	}
	if v.DiastolicBP < minDiastolic || v.DiastolicBP > maxDiastolic {
		return outOfRange("diastolic_bp", v.DiastolicBP, minDiastolic, maxDiastolic)
	}
	if v.DiastolicBP >= v.SystolicBP {
		return &ValidationError{
			Field:    "diastolic_bp",
			Value:    v.DiastolicBP,
			Expected: fmt.Sprintf("strictly below systolic (%d mmHg)", v.SystolicBP),
		}
	}
	if v.RespiratoryRate < minRespRate || v.RespiratoryRate > maxRespRate {
		return outOfRange("respiratory_rate", v.RespiratoryRate, minRespRate, maxRespRate)
	}
	if v.Temperature < minTemperature || v.Temperature > maxTemperature {
		return outOfRange("temperature", v.Temperature, minTemperature, maxTemperature)
	}
	if v.OxygenSaturation < minSpO2 || v.OxygenSaturation > maxSpO2 {
		return outOfRange("oxygen_saturation", v.OxygenSaturation, minSpO2, maxSpO2)
	}
	if v.PainScore < minPain || v.PainScore > maxPain {
		return outOfRange("pain_score", v.PainScore, minPain, maxPain)
	}
	if v.Glasgow != nil && (*v.Glasgow < minGlasgow || *v.Glasgow > maxGlasgow) {
		return outOfRange("glasgow", *v.Glasgow, minGlasgow, maxGlasgow)
	}
	if v.Glucose != nil && (*v.Glucose < minGlucose || *v.Glucose > maxGlucose) {
		return outOfRange("glucose", *v.Glucose, minGlucose, maxGlucose)
	}
	return nil
}

// Validate checks the whole record: demographics, complaint and vitals.
func (r *Record) Validate() error {
	if r.Age < minAge || r.Age > maxAge {
		return outOfRange("age", r.Age, minAge, maxAge)
	}
	switch r.Sex {
	case SexMale, SexFemale, SexOther:
	default:
		return &ValidationError{
			Field:    "sex",
			Value:    string(r.Sex),
			Expected: "one of male, female, other",
		}
	}
	if strings.TrimSpace(r.Complaint) == "" {
		return &ValidationError{
			Field:    "complaint",
			Value:    r.Complaint,
			Expected: "non-empty text",
		}
	}
	return r.Vitals.Validate()
}

// GlasgowOrDefault returns the measured GCS, or 15 when not measured.
func (v *VitalSigns) GlasgowOrDefault() int {
	if v.Glasgow == nil {
		return 15
	}
	return *v.Glasgow
}

func outOfRange[T int | float64](field string, value T, lo, hi T) *ValidationError {
	return &ValidationError{
		Field:    field,
		Value:    value,
		Expected: fmt.Sprintf("%v to %v", lo, hi),
	}
}
