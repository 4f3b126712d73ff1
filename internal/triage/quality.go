package triage

import "github.com/linnemanlabs/acuity/internal/patient"

// Quality grades how complete the ML feature set is. It tempers the
// confidence score; it never changes the rule-based level.
type Quality string

const (
	QualityHigh         Quality = "high"
	QualityMedium       Quality = "medium"
	QualityLow          Quality = "low"
	QualityInsufficient Quality = "insufficient"
)

// Feature names. These are the contract with the ML classifier — the
// model is trained against them, so they must stay stable.
const (
	FeatureAge         = "age"
	FeatureSex         = "sex"
	FeatureHeartRate   = "heart_rate"
	FeatureSystolicBP  = "systolic_bp"
	FeatureDiastolicBP = "diastolic_bp"
	FeatureRespRate    = "respiratory_rate"
	FeatureTemperature = "temperature"
	FeatureSpO2        = "oxygen_saturation"
	FeaturePainScore   = "pain_score"
	FeatureGlasgow     = "glasgow"
	FeatureGlucose     = "glucose"
)

// requiredFeatures must all be present for a trustworthy prediction.
var requiredFeatures = []string{
	FeatureAge,
	FeatureSex,
	FeatureHeartRate,
	FeatureSystolicBP,
	FeatureDiastolicBP,
	FeatureRespRate,
	FeatureTemperature,
	FeatureSpO2,
}

// importantFeatures can be imputed by the model but lower the quality
// grade when more than one is absent.
var importantFeatures = []string{
	FeaturePainScore,
	FeatureGlasgow,
}

// Features is the named numeric feature set handed to the ML
// classifier. A missing key means the feature was not measured.
type Features map[string]float64

// sexEncoding matches the encoding the classifier was trained with.
var sexEncoding = map[patient.Sex]float64{
	patient.SexMale:   0,
	patient.SexFemale: 1,
	patient.SexOther:  2,
}

// FeaturesFromRecord extracts the ML feature set from a validated
// record. Optional vitals are included only when measured.
func FeaturesFromRecord(rec *patient.Record) Features {
	f := Features{
		FeatureAge:         float64(rec.Age),
		FeatureSex:         sexEncoding[rec.Sex],
		FeatureHeartRate:   float64(rec.Vitals.HeartRate),
		FeatureSystolicBP:  float64(rec.Vitals.SystolicBP),
		FeatureDiastolicBP: float64(rec.Vitals.DiastolicBP),
		FeatureRespRate:    float64(rec.Vitals.RespiratoryRate),
		FeatureTemperature: rec.Vitals.Temperature,
		FeatureSpO2:        float64(rec.Vitals.OxygenSaturation),
		FeaturePainScore:   float64(rec.Vitals.PainScore),
	}
	if rec.Vitals.Glasgow != nil {
		f[FeatureGlasgow] = float64(*rec.Vitals.Glasgow)
	}
	if rec.Vitals.Glucose != nil {
		f[FeatureGlucose] = *rec.Vitals.Glucose
	}
	return f
}

// AssessQuality grades the feature set against the required and
// important feature lists and returns the names of the features that
// drove the grade down, in their fixed list order.
func AssessQuality(f Features) (Quality, []string) {
	var missingRequired []string
	for _, name := range requiredFeatures {
		if _, ok := f[name]; !ok {
			missingRequired = append(missingRequired, name)
		}
	}

	var missingImportant []string
	for _, name := range importantFeatures {
		if _, ok := f[name]; !ok {
			missingImportant = append(missingImportant, name)
		}
	}

	switch {
	case len(missingRequired) > 2:
		return QualityInsufficient, missingRequired
	case len(missingRequired) > 0:
		return QualityLow, missingRequired
	case len(missingImportant) > 1:
		return QualityMedium, missingImportant
	default:
		return QualityHigh, nil
	}
}
