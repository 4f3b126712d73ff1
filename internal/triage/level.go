package triage

import (
	"encoding/json"
	"fmt"
)

// Level is the six-tier clinical escalation scale. Declaration order is
// the severity order: a lower ordinal is more severe. Every "more severe
// wins" comparison in the engine derives from this single ordering,
// never from string comparison.
type Level int

const (
	LevelCritical Level = iota // major vital distress
	LevelEmergent
	LevelUrgentWithComorbidity
	LevelUrgentStandard
	LevelStandard
	LevelNonUrgent
)

// Levels lists all severity levels, most severe first.
var Levels = []Level{
	LevelCritical,
	LevelEmergent,
	LevelUrgentWithComorbidity,
	LevelUrgentStandard,
	LevelStandard,
	LevelNonUrgent,
}

// Simplified is the four-tier public-facing scale derived from Level.
type Simplified int

const (
	Red Simplified = iota
	Yellow
	Green
	Gray
)

// Combine returns the more severe of two levels.
func Combine(a, b Level) Level {
	if a < b {
		return a
	}
	return b
}

// MoreSevereThan reports whether l outranks other.
func (l Level) MoreSevereThan(other Level) bool { return l < other }

// Simplify collapses the six-level scale to the four-level one. The
// switch enumerates every Level; the panic arm is unreachable for
// values produced by this package.
func (l Level) Simplify() Simplified {
	switch l {
	case LevelCritical, LevelEmergent:
		return Red
	case LevelUrgentWithComorbidity, LevelUrgentStandard:
		return Yellow
	case LevelStandard:
		return Green
	case LevelNonUrgent:
		return Gray
	default:
		panic(fmt.Sprintf("triage: level %d has no simplified mapping", int(l)))
	}
}

// TimeToCare returns the target time-to-care for the level.
func (l Level) TimeToCare() string {
	switch l {
	case LevelCritical:
		return "immediate (nurse and physician)"
	case LevelEmergent:
		return "nurse < 10 min, physician < 20 min"
	case LevelUrgentWithComorbidity:
		return "physician < 60 min"
	case LevelUrgentStandard:
		return "physician < 90 min"
	case LevelStandard:
		return "physician < 120 min"
	case LevelNonUrgent:
		return "physician < 240 min"
	default:
		panic(fmt.Sprintf("triage: level %d has no time-to-care", int(l)))
	}
}

// CareLocation returns where the patient should be placed.
func (l Level) CareLocation() string {
	switch l {
	case LevelCritical:
		return "resuscitation bay"
	case LevelEmergent:
		return "resuscitation bay or exam room"
	case LevelUrgentWithComorbidity:
		return "exam room or resuscitation bay"
	case LevelUrgentStandard, LevelStandard:
		return "exam room or waiting area"
	case LevelNonUrgent:
		return "exam room, waiting area or out-of-hours clinic"
	default:
		panic(fmt.Sprintf("triage: level %d has no care location", int(l)))
	}
}

func (l Level) String() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelEmergent:
		return "emergent"
	case LevelUrgentWithComorbidity:
		return "urgent_with_comorbidity"
	case LevelUrgentStandard:
		return "urgent_standard"
	case LevelStandard:
		return "standard"
	case LevelNonUrgent:
		return "non_urgent"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts the wire/storage form back to a Level.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown severity level %q", s)
}

func (s Simplified) String() string {
	switch s {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	case Gray:
		return "gray"
	default:
		return fmt.Sprintf("simplified(%d)", int(s))
	}
}

// ParseSimplified converts the wire/storage form back to a Simplified
// level. ML labels arrive in this form.
func ParseSimplified(s string) (Simplified, error) {
	switch s {
	case "red":
		return Red, nil
	case "yellow":
		return Yellow, nil
	case "green":
		return Green, nil
	case "gray":
		return Gray, nil
	}
	return 0, fmt.Errorf("unknown simplified level %q", s)
}

// MarshalJSON encodes levels as their string form.
func (l Level) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

// UnmarshalJSON decodes the string form.
func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalJSON encodes simplified levels as their string form.
func (s Simplified) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON decodes the string form.
func (s *Simplified) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseSimplified(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
