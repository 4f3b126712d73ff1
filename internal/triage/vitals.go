package triage

import (
	"fmt"

	"github.com/linnemanlabs/acuity/internal/patient"
)

// ThresholdRevision identifies the threshold table in effect. Changing
// clinical thresholds is a data update to this table, not a code change.
const ThresholdRevision = "2018.03"

// vitalThresholds is the single source of truth for every vital-sign
// band the rule evaluator checks. Each signal has a critical band and a
// concerning band; the critical band is always checked first.
type vitalThresholds struct {
	// Systolic blood pressure, mmHg.
	SystolicCritical     int // below → critical
	SystolicConcern      int // at or below → emergent
	SystolicConcernShock int // at or below with tachycardia → emergent
	ShockHeartRate       int // heart rate above → tachycardia for the shock band

	// Heart rate, bpm. Adult bands.
	HeartRateCriticalHigh int // above → critical
	HeartRateCriticalLow  int // below → critical
	HeartRateConcernHigh  int // at or above → emergent
	HeartRateConcernLow   int // at or below → urgent_standard (bradycardia)

	// Heart rate, bpm. Pediatric bands (age below PediatricAgeCutoff).
	PedsHeartRateCriticalHigh int
	PedsHeartRateCriticalLow  int
	PedsHeartRateConcernHigh  int // at or above → urgent_with_comorbidity

	// Oxygen saturation, percent.
	SpO2Critical int // below → critical
	SpO2Concern  int // at or below → emergent

	// Respiratory rate, breaths/min. Adult bands.
	RespRateCritical int // above → critical
	RespRateConcern  int // at or above → emergent

	// Respiratory rate, breaths/min. Pediatric bands.
	PedsRespRateCritical int
	PedsRespRateConcern  int

	// Glasgow coma score.
	GlasgowCritical int // at or below → critical
	GlasgowConcern  int // at or below → emergent

	// Temperature, °C.
	TempCriticalHigh float64 // at or above → emergent
	TempCriticalLow  float64 // at or below → emergent
	TempHypothermia  float64 // at or below → emergent

	// Pain, 0-10 scale.
	PainConcern int // at or above → urgent_standard

	// Capillary glucose, g/L.
	GlucoseCriticalLow float64 // below → critical
	GlucoseConcernLow  float64 // below → emergent
	GlucoseConcernHigh float64 // above → emergent
}

// PediatricAgeCutoff is the age (in years) below which the pediatric
// heart-rate and respiratory-rate band tables apply.
const PediatricAgeCutoff = 2

var defaultThresholds = vitalThresholds{
	SystolicCritical:     70,
	SystolicConcern:      90,
	SystolicConcernShock: 100,
	ShockHeartRate:       100,

	HeartRateCriticalHigh: 180,
	HeartRateCriticalLow:  40,
	HeartRateConcernHigh:  130,
	HeartRateConcernLow:   50,

	PedsHeartRateCriticalHigh: 220,
	PedsHeartRateCriticalLow:  60,
	PedsHeartRateConcernHigh:  180,

	SpO2Critical: 86,
	SpO2Concern:  90,

	RespRateCritical: 40,
	RespRateConcern:  30,

	PedsRespRateCritical: 55,
	PedsRespRateConcern:  45,

	GlasgowCritical: 8,
	GlasgowConcern:  13,

	TempCriticalHigh: 40.0,
	TempCriticalLow:  32.0,
	TempHypothermia:  35.2,

	PainConcern: 8,

	GlucoseCriticalLow: 0.4,
	GlucoseConcernLow:  0.7,
	GlucoseConcernHigh: 3.0,
}

// EvaluateVitals maps a validated set of vitals plus age to the most
// severe level implied by any single signal, and the alert strings for
// every signal that hit at least its concerning band.
//
// Each signal is evaluated independently, critical band first, first
// match wins per signal. Alerts are appended in fixed signal-check
// order (blood pressure, heart rate, SpO2, respiratory rate, Glasgow,
// temperature, pain, glucose) so identical input always produces the
// identical alert list.
func EvaluateVitals(v *patient.VitalSigns, age int) (Level, []string) {
	t := &defaultThresholds
	level := LevelNonUrgent
	var alerts []string

	raise := func(l Level, format string, args ...any) {
		level = Combine(level, l)
		alerts = append(alerts, fmt.Sprintf(format, args...))
	}

	// Systolic blood pressure.
	switch {
	case v.SystolicBP < t.SystolicCritical:
		raise(LevelCritical, "Severe hypotension: systolic %d mmHg < %d", v.SystolicBP, t.SystolicCritical)
	case v.SystolicBP <= t.SystolicConcern,
		v.SystolicBP <= t.SystolicConcernShock && v.HeartRate > t.ShockHeartRate:
		raise(LevelEmergent, "Hypotension: systolic %d mmHg", v.SystolicBP)
	}

	// Heart rate. Pediatric patients use a parallel, wider band table.
	if age < PediatricAgeCutoff {
		switch {
		case v.HeartRate > t.PedsHeartRateCriticalHigh || v.HeartRate < t.PedsHeartRateCriticalLow:
			raise(LevelCritical, "Critical heart rate (pediatric): %d bpm", v.HeartRate)
		case v.HeartRate >= t.PedsHeartRateConcernHigh:
			raise(LevelUrgentWithComorbidity, "Infant tachycardia: HR %d bpm", v.HeartRate)
		}
	} else {
		switch {
		case v.HeartRate > t.HeartRateCriticalHigh || v.HeartRate < t.HeartRateCriticalLow:
			raise(LevelCritical, "Critical heart rate: %d bpm", v.HeartRate)
		case v.HeartRate >= t.HeartRateConcernHigh:
			raise(LevelEmergent, "Tachycardia: HR %d bpm", v.HeartRate)
		case v.HeartRate <= t.HeartRateConcernLow:
			raise(LevelUrgentStandard, "Bradycardia: HR %d bpm", v.HeartRate)
		}
	}

	// Oxygen saturation.
	switch {
	case v.OxygenSaturation < t.SpO2Critical:
		raise(LevelCritical, "Severe hypoxia: SpO2 %d%%", v.OxygenSaturation)
	case v.OxygenSaturation <= t.SpO2Concern:
		raise(LevelEmergent, "Hypoxia: SpO2 %d%%", v.OxygenSaturation)
	}

	// Respiratory rate, with its own pediatric table.
	if age < PediatricAgeCutoff {
		switch {
		case v.RespiratoryRate > t.PedsRespRateCritical:
			raise(LevelCritical, "Respiratory distress (pediatric): RR %d/min", v.RespiratoryRate)
		case v.RespiratoryRate >= t.PedsRespRateConcern:
			raise(LevelEmergent, "Tachypnea (pediatric): RR %d/min", v.RespiratoryRate)
		}
	} else {
		switch {
		case v.RespiratoryRate > t.RespRateCritical:
			raise(LevelCritical, "Respiratory distress: RR %d/min", v.RespiratoryRate)
		case v.RespiratoryRate >= t.RespRateConcern:
			raise(LevelEmergent, "Tachypnea: RR %d/min", v.RespiratoryRate)
		}
	}

	// Glasgow coma score, skipped when not measured.
	if v.Glasgow != nil {
		switch {
		case *v.Glasgow <= t.GlasgowCritical:
			raise(LevelCritical, "Coma: GCS %d", *v.Glasgow)
		case *v.Glasgow <= t.GlasgowConcern:
			raise(LevelEmergent, "Altered consciousness: GCS %d", *v.Glasgow)
		}
	}

	// Temperature.
	switch {
	case v.Temperature >= t.TempCriticalHigh || v.Temperature <= t.TempCriticalLow:
		raise(LevelEmergent, "Critical temperature: %.1f°C", v.Temperature)
	case v.Temperature <= t.TempHypothermia:
		raise(LevelEmergent, "Hypothermia: %.1f°C", v.Temperature)
	}

	// Pain.
	if v.PainScore >= t.PainConcern {
		raise(LevelUrgentStandard, "Severe pain: %d/10", v.PainScore)
	}

	// Capillary glucose, skipped when not measured.
	if v.Glucose != nil {
		switch {
		case *v.Glucose < t.GlucoseCriticalLow:
			raise(LevelCritical, "Severe hypoglycemia: %.2f g/L", *v.Glucose)
		case *v.Glucose < t.GlucoseConcernLow:
			raise(LevelEmergent, "Hypoglycemia: %.2f g/L", *v.Glucose)
		case *v.Glucose > t.GlucoseConcernHigh:
			raise(LevelEmergent, "Severe hyperglycemia: %.2f g/L", *v.Glucose)
		}
	}

	return level, alerts
}
