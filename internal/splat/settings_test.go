package splat

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// TestDeriveNilReturnsCopy verifies a nil overlay is a plain detached copy
func TestDeriveNilReturnsCopy(t *testing.T) {
	base := DefaultSettings()
	derived := base.Derive(nil)

	if derived.Kind != base.Kind || derived.Color != base.Color {
		t.Error("Nil derive should copy the base verbatim")
	}

	// The tween map must not alias the base.
	derived.Tween[TweenLand] = TweenInfo{Duration: 99}
	if base.Tween[TweenLand].Duration == 99 {
		t.Error("Derived tween map aliases the base map")
	}
}

// TestDeriveFieldReplace verifies scalar fields replace wholesale
func TestDeriveFieldReplace(t *testing.T) {
	base := DefaultSettings()

	kind := KindDecal
	color := "#00ff00"
	limit := 7
	accel := mgl64.Vec3{0, -5, 0}
	derived := base.Derive(&Overrides{
		Kind:         &kind,
		Color:        &color,
		Limit:        &limit,
		Acceleration: &accel,
	})

	if derived.Kind != KindDecal {
		t.Errorf("Expected KindDecal, got %v", derived.Kind)
	}
	if derived.Color != "#00ff00" {
		t.Errorf("Expected overridden color, got %s", derived.Color)
	}
	if derived.Limit != 7 {
		t.Errorf("Expected limit 7, got %d", derived.Limit)
	}
	if derived.Acceleration != accel {
		t.Errorf("Expected overridden acceleration, got %v", derived.Acceleration)
	}

	// Untouched fields keep base values.
	if derived.Size != base.Size {
		t.Error("Size should keep the base value when not overridden")
	}
	if base.Kind == KindDecal {
		t.Error("Derive must not mutate the base")
	}
}

// TestDeriveTweenMergesKeywise verifies the nested timing map merges per key
func TestDeriveTweenMergesKeywise(t *testing.T) {
	base := DefaultSettings()

	derived := base.Derive(&Overrides{
		Tween: map[string]TweenInfo{
			TweenDecay: {Duration: 5, Easing: EaseLinear},
		},
	})

	if derived.Tween[TweenDecay].Duration != 5 {
		t.Errorf("Overridden tween key should win, got %f", derived.Tween[TweenDecay].Duration)
	}
	if derived.Tween[TweenLand] != base.Tween[TweenLand] {
		t.Error("Untouched tween keys should keep base timing")
	}
	if derived.Tween[TweenGrow] != base.Tween[TweenGrow] {
		t.Error("Untouched tween keys should keep base timing")
	}
	if base.Tween[TweenDecay].Duration == 5 {
		t.Error("Key-wise merge must not mutate the base map")
	}
}

// TestValidateRejectsBadConfig covers constructor-time fatal errors
func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero limit", func(s *Settings) { s.Limit = 0 }},
		{"inverted size range", func(s *Settings) { s.Size = Range{Min: 2, Max: 1} }},
		{"negative speed", func(s *Settings) { s.SpeedRange = Range{Min: -1, Max: 1} }},
		{"negative radius", func(s *Settings) { s.ExpansionRadius = -0.1 }},
		{"zero maximum size", func(s *Settings) { s.MaximumSize = 0 }},
		{"zero distance", func(s *Settings) { s.Distance = 0 }},
		{"transparency out of range", func(s *Settings) { s.Transparency = 1.5 }},
	}

	for _, tc := range cases {
		s := DefaultSettings()
		tc.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	if err := DefaultSettings().Validate(); err != nil {
		t.Errorf("Defaults should validate, got %v", err)
	}
}

// TestRangeSample verifies samples stay inside the interval
func TestRangeSample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := Range{Min: 2, Max: 5}

	for i := 0; i < 100; i++ {
		v := r.Sample(rng)
		if v < 2 || v > 5 {
			t.Fatalf("Sample %f outside [2, 5]", v)
		}
	}

	if got := (Range{Min: 3, Max: 3}).Sample(rng); got != 3 {
		t.Errorf("Degenerate range should return Min, got %f", got)
	}
}
