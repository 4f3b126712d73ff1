package triage

import "strings"

// Category is the clinical category assigned by the complaint classifier.
type Category string

const (
	CategoryCardiovascular Category = "cardiovascular"
	CategoryNeurological   Category = "neurological"
	CategoryRespiratory    Category = "respiratory"
	CategoryTrauma         Category = "trauma"
	CategoryAbdominal      Category = "abdominal"
	CategoryPsychiatric    Category = "psychiatric"
	CategoryToxicology     Category = "toxicology"
	CategoryInfectious     Category = "infectious"
	CategoryOther          Category = "other"
)

// MotifRule maps a set of complaint keywords to a severity level, a
// clinical category and the recommended first actions.
type MotifRule struct {
	Category        Category
	Keywords        []string
	Level           Level
	Recommendations []string
}

// motifRules is evaluated in order, most severe outcomes first, and the
// first matching rule wins. The order is significant: a complaint that
// mentions both a minor and a critical keyword must resolve to the
// critical rule. This must stay a slice, never a map.
//
// Matching is case-insensitive substring containment so every decision
// is auditable and reproducible; no fuzzy or learned matching here.
var motifRules = []MotifRule{
	{
		Category: CategoryCardiovascular,
		Keywords: []string{"cardiac arrest", "no pulse", "cpr in progress", "resuscitation"},
		Level:    LevelCritical,
		Recommendations: []string{
			"Immediate resuscitation",
			"Call the resuscitation team",
		},
	},
	{
		Category: CategoryTrauma,
		Keywords: []string{"amputation", "severed"},
		Level:    LevelCritical,
		Recommendations: []string{
			"Preserve the amputated part",
			"Hemostasis",
		},
	},
	{
		Category: CategoryNeurological,
		Keywords: []string{"unresponsive", "unconscious", "coma"},
		Level:    LevelEmergent,
		Recommendations: []string{
			"Airway protection",
			"Capillary glucose",
		},
	},
	{
		Category: CategoryNeurological,
		Keywords: []string{"stroke", "hemiplegia", "aphasia", "facial droop", "sudden weakness"},
		Level:    LevelEmergent,
		Recommendations: []string{
			"Thrombolysis alert",
			"Record symptom onset time",
			"Capillary glucose",
		},
	},
	{
		Category: CategoryPsychiatric,
		Keywords: []string{"suicidal", "suicide attempt", "self-harm"},
		Level:    LevelEmergent,
		Recommendations: []string{
			"Close supervision",
			"Remove dangerous objects",
		},
	},
	{
		Category: CategoryAbdominal,
		Keywords: []string{"vomiting blood", "hematemesis", "rectal bleeding", "melena"},
		Level:    LevelEmergent,
		Recommendations: []string{
			"Two large-bore IV lines",
			"Type and crossmatch",
		},
	},
	{
		Category: CategoryCardiovascular,
		Keywords: []string{"chest pain", "chest tightness", "chest pressure", "heart attack"},
		Level:    LevelUrgentStandard,
		Recommendations: []string{
			"Immediate ECG",
			"Continuous monitoring",
			"IV access",
		},
	},
	{
		Category: CategoryNeurological,
		Keywords: []string{"seizure", "convulsion", "epilepsy"},
		Level:    LevelUrgentStandard,
		Recommendations: []string{
			"Recovery position",
			"Protect from injury",
		},
	},
	{
		Category: CategoryRespiratory,
		Keywords: []string{"asthma", "wheezing", "bronchospasm"},
		Level:    LevelUrgentStandard,
		Recommendations: []string{
			"Peak flow measurement",
			"Nebulized bronchodilator",
			"SpO2 monitoring",
		},
	},
	{
		Category: CategoryRespiratory,
		Keywords: []string{"difficulty breathing", "shortness of breath", "dyspnea"},
		Level:    LevelUrgentStandard,
		Recommendations: []string{
			"SpO2 monitoring",
			"Sit the patient upright",
		},
	},
	{
		Category: CategoryAbdominal,
		Keywords: []string{"abdominal pain", "stomach pain", "belly pain"},
		Level:    LevelUrgentStandard,
		Recommendations: []string{
			"Surgical review if guarding",
		},
	},
	{
		Category: CategoryToxicology,
		Keywords: []string{"overdose", "poisoning", "intoxication"},
		Level:    LevelUrgentStandard,
		Recommendations: []string{
			"Identify the toxin",
			"Call poison control",
		},
	},
	{
		Category: CategoryTrauma,
		Keywords: []string{"fracture", "broken bone", "deformity"},
		Level:    LevelStandard,
		Recommendations: []string{
			"Immobilization",
			"Analgesia",
			"X-ray",
		},
	},
	{
		Category: CategoryTrauma,
		Keywords: []string{"laceration", "wound", "burn", "scald"},
		Level:    LevelStandard,
		Recommendations: []string{
			"Hemostasis",
			"Wound cleaning",
			"Check tetanus status",
		},
	},
	{
		Category: CategoryPsychiatric,
		Keywords: []string{"anxiety", "panic attack"},
		Level:    LevelStandard,
		Recommendations: []string{
			"Quiet environment",
			"Reassurance",
		},
	},
	{
		Category: CategoryInfectious,
		Keywords: []string{"fever", "high temperature"},
		Level:    LevelNonUrgent,
		Recommendations: []string{
			"Antipyretic if needed",
		},
	},
	{
		Category: CategoryNeurological,
		Keywords: []string{"headache", "migraine"},
		Level:    LevelNonUrgent,
		Recommendations: []string{
			"Simple analgesia",
		},
	},
	{
		Category: CategoryOther,
		Keywords: []string{"prescription", "renewal", "medical certificate", "dressing change", "suture removal"},
		Level:    LevelNonUrgent,
		Recommendations: []string{
			"Routine medical review",
		},
	},
}

// Defaults when no rule matches: a stated complaint we cannot place
// still warrants an urgent-tier assessment rather than a guess at
// non-urgency.
const defaultMotifLevel = LevelUrgentStandard

var defaultRecommendations = []string{"Standard medical assessment"}

// ClassifyMotif classifies the free-text complaint against the ordered
// rule table. Identical input always yields the identical result.
func ClassifyMotif(complaint string) (Level, Category, []string) {
	text := strings.ToLower(complaint)
	for i := range motifRules {
		r := &motifRules[i]
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Level, r.Category, r.Recommendations
			}
		}
	}
	return defaultMotifLevel, CategoryOther, defaultRecommendations
}
