package triage

import (
	"encoding/json"
	"testing"
)

func TestCombine_MoreSevereWins(t *testing.T) {
	t.Parallel()

	// Exhaustive over all pairs: the result is always the lower ordinal.
	for _, a := range Levels {
		for _, b := range Levels {
			got := Combine(a, b)
			want := a
			if b < a {
				want = b
			}
			if got != want {
				t.Errorf("Combine(%s, %s) = %s, want %s", a, b, got, want)
			}
			if got != Combine(b, a) {
				t.Errorf("Combine(%s, %s) not commutative", a, b)
			}
		}
	}
}

func TestCombine_Idempotent(t *testing.T) {
	t.Parallel()

	for _, l := range Levels {
		if Combine(l, l) != l {
			t.Errorf("Combine(%s, %s) != %s", l, l, l)
		}
	}
}

func TestMoreSevereThan(t *testing.T) {
	t.Parallel()

	if !LevelCritical.MoreSevereThan(LevelEmergent) {
		t.Error("critical should outrank emergent")
	}
	if LevelNonUrgent.MoreSevereThan(LevelStandard) {
		t.Error("non_urgent should not outrank standard")
	}
	if LevelEmergent.MoreSevereThan(LevelEmergent) {
		t.Error("a level should not outrank itself")
	}
}

func TestSimplify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level Level
		want  Simplified
	}{
		{LevelCritical, Red},
		{LevelEmergent, Red},
		{LevelUrgentWithComorbidity, Yellow},
		{LevelUrgentStandard, Yellow},
		{LevelStandard, Green},
		{LevelNonUrgent, Gray},
	}
	for _, tt := range tests {
		if got := tt.level.Simplify(); got != tt.want {
			t.Errorf("%s.Simplify() = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestSimplify_UnknownPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("Simplify on out-of-range level did not panic")
		}
	}()
	_ = Level(99).Simplify()
}

func TestParseLevel_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, l := range Levels {
		got, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", l.String(), err)
		}
		if got != l {
			t.Errorf("ParseLevel(%q) = %s, want %s", l.String(), got, l)
		}
	}

	if _, err := ParseLevel("tri_1"); err == nil {
		t.Error("ParseLevel accepted an unknown name")
	}
}

func TestParseSimplified_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []Simplified{Red, Yellow, Green, Gray} {
		got, err := ParseSimplified(s.String())
		if err != nil {
			t.Fatalf("ParseSimplified(%q): %v", s.String(), err)
		}
		if got != s {
			t.Errorf("ParseSimplified(%q) = %s, want %s", s.String(), got, s)
		}
	}

	if _, err := ParseSimplified("orange"); err == nil {
		t.Error("ParseSimplified accepted an unknown name")
	}
}

func TestLevelJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(LevelUrgentWithComorbidity)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"urgent_with_comorbidity"` {
		t.Fatalf("marshal = %s", b)
	}

	var l Level
	if err := json.Unmarshal([]byte(`"emergent"`), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l != LevelEmergent {
		t.Errorf("unmarshal = %s, want emergent", l)
	}

	if err := json.Unmarshal([]byte(`"purple"`), &l); err == nil {
		t.Error("unmarshal accepted an unknown level")
	}
	if err := json.Unmarshal([]byte(`3`), &l); err == nil {
		t.Error("unmarshal accepted a numeric level")
	}
}

func TestSimplifiedJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Gray)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"gray"` {
		t.Fatalf("marshal = %s", b)
	}

	var s Simplified
	if err := json.Unmarshal([]byte(`"red"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != Red {
		t.Errorf("unmarshal = %s, want red", s)
	}
}

func TestTimeToCare_Monotone(t *testing.T) {
	t.Parallel()

	// Every level has a non-empty target and placement.
	for _, l := range Levels {
		if l.TimeToCare() == "" {
			t.Errorf("%s has empty time-to-care", l)
		}
		if l.CareLocation() == "" {
			t.Errorf("%s has empty care location", l)
		}
	}
}
