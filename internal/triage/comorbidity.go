package triage

import "strings"

// heavyComorbidities are the chronic conditions that justify the single
// permitted escalation step. Matching is case-insensitive substring
// containment against each stated condition.
var heavyComorbidities = []string{
	"diabetes",
	"heart failure",
	"renal failure",
	"kidney failure",
	"cancer",
	"immunosuppression",
	"immunocompromised",
	"dialysis",
}

// AdjustForComorbidity upgrades UrgentStandard to UrgentWithComorbidity
// when a heavy comorbidity is present. That is the only transition this
// adjuster is allowed to make: every other level passes through
// unchanged regardless of the condition list.
func AdjustForComorbidity(level Level, conditions []string) Level {
	if level != LevelUrgentStandard {
		return level
	}
	for _, c := range conditions {
		lc := strings.ToLower(c)
		for _, heavy := range heavyComorbidities {
			if strings.Contains(lc, heavy) {
				return LevelUrgentWithComorbidity
			}
		}
	}
	return level
}
