// Package splat implements the droplet lifecycle engine: a bounded pool of
// renderable objects that are emitted as ballistic droplets, land as pools,
// optionally merge into neighboring pools, decay, and are recycled.
//
// The engine is single-writer: all state transitions run inside Step (or the
// internal ticker that calls it), so the registry, pool partitions and object
// state never see two concurrent owners.
package splat

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind selects the visual variant of an emitted object.
type Kind int

const (
	// KindDrop is a volumetric droplet that lands as a rounded pool.
	KindDrop Kind = iota
	// KindDecal lies flush against the struck surface: no thickness,
	// no random yaw (it must not visibly rotate against the surface).
	KindDecal
)

// String returns the lowercase kind name used in snapshots and the API.
func (k Kind) String() string {
	if k == KindDecal {
		return "decal"
	}
	return "drop"
}

// Range is an inclusive [Min, Max] sampling interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Sample draws a uniform value from the range.
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Easing selects the interpolation curve for a tween.
type Easing int

const (
	EaseLinear Easing = iota
	EaseQuadIn
	EaseQuadOut
	EaseQuadInOut
)

// TweenInfo is the timing entry for one animated transition.
type TweenInfo struct {
	Duration float64 `json:"duration"` // seconds
	Easing   Easing  `json:"easing"`
}

// Tween map keys. The Tween sub-map is the only part of Settings that is
// merged key-by-key on Derive; everything else replaces wholesale.
const (
	TweenLand  = "land"  // impact -> final size/orientation/transparency
	TweenGrow  = "grow"  // neighbor expansion during a merge
	TweenDecay = "decay" // shrink-and-fade back to the pool
)

// SpeedScale converts a sampled emission speed into world units per second.
// Fixed by design; tuning happens through the Speed range instead.
const SpeedScale = 10.0

// Settings is the immutable per-emission configuration snapshot. Each
// emission owns its snapshot by value; nothing is shared after Derive.
type Settings struct {
	Kind Kind `json:"kind"`

	// Size is the sampled edge length of a landed pool. MaximumSize bounds
	// growth from merges along every axis.
	Size        Range   `json:"size"`
	MaximumSize float64 `json:"maximumSize"`

	// SpeedRange is sampled at emission and multiplied by SpeedScale.
	SpeedRange Range `json:"speedRange"`

	// DecayDelay is sampled when a pool lands; the pool starts decaying
	// after that many seconds.
	DecayDelay    Range `json:"decayDelay"`
	ShrinkOnDecay bool  `json:"shrinkOnDecay"`

	// Expansion controls the merge path: when enabled, a droplet landing
	// within ExpansionRadius of a same-kind pool feeds that pool instead
	// of becoming its own.
	Expansion       bool    `json:"expansion"`
	ExpansionRadius float64 `json:"expansionRadius"`

	// RandomOffset is the lateral spawn jitter radius (0 disables).
	// RandomYaw rotates landed pools around the surface normal; it is
	// ignored for KindDecal.
	RandomOffset float64 `json:"randomOffset"`
	RandomYaw    bool    `json:"randomYaw"`

	// Splash controls the particle burst on landing. When SpeedScaledSplash
	// is set the burst size is a function of impact speed instead of a
	// sample from SplashAmount.
	SplashAmount      Range `json:"splashAmount"`
	SpeedScaledSplash bool  `json:"speedScaledSplash"`

	Color string `json:"color"` // hex, e.g. "#8a0303"

	// Transparency is the final transparency a landed pool settles at
	// (0 opaque, 1 invisible).
	Transparency float64 `json:"transparency"`

	// Caster configuration.
	Distance     float64    `json:"distance"`     // max cast distance before a flight retires
	Acceleration mgl64.Vec3 `json:"acceleration"` // usually gravity

	// Limit caps the object pool. The pool grows lazily up to this.
	Limit int `json:"limit"`

	// Tween holds the animated-transition timing by phase key.
	Tween map[string]TweenInfo `json:"tween"`
}

// DefaultSettings returns the base configuration every engine starts from.
func DefaultSettings() Settings {
	return Settings{
		Kind:            KindDrop,
		Size:            Range{Min: 0.4, Max: 0.7},
		MaximumSize:     1.5,
		SpeedRange:      Range{Min: 0.5, Max: 1.0},
		DecayDelay:      Range{Min: 8, Max: 12},
		ShrinkOnDecay:   true,
		Expansion:       true,
		ExpansionRadius: 0.25,
		RandomOffset:    0.1,
		RandomYaw:       true,
		SplashAmount:    Range{Min: 2, Max: 5},
		Color:           "#8a0303",
		Transparency:    0.2,
		Distance:        100,
		Acceleration:    mgl64.Vec3{0, -19.6, 0},
		Limit:           200,
		Tween: map[string]TweenInfo{
			TweenLand:  {Duration: 0.15, Easing: EaseQuadOut},
			TweenGrow:  {Duration: 0.3, Easing: EaseQuadOut},
			TweenDecay: {Duration: 1.0, Easing: EaseQuadIn},
		},
	}
}

// Overrides is a partial Settings overlay. Pointer fields distinguish "not
// supplied" from a zero value; the Tween map is merged key-by-key while all
// other fields replace the base value wholesale.
type Overrides struct {
	Kind              *Kind                `json:"kind,omitempty"`
	Size              *Range               `json:"size,omitempty"`
	MaximumSize       *float64             `json:"maximumSize,omitempty"`
	SpeedRange        *Range               `json:"speedRange,omitempty"`
	DecayDelay        *Range               `json:"decayDelay,omitempty"`
	ShrinkOnDecay     *bool                `json:"shrinkOnDecay,omitempty"`
	Expansion         *bool                `json:"expansion,omitempty"`
	ExpansionRadius   *float64             `json:"expansionRadius,omitempty"`
	RandomOffset      *float64             `json:"randomOffset,omitempty"`
	RandomYaw         *bool                `json:"randomYaw,omitempty"`
	SplashAmount      *Range               `json:"splashAmount,omitempty"`
	SpeedScaledSplash *bool                `json:"speedScaledSplash,omitempty"`
	Color             *string              `json:"color,omitempty"`
	Transparency      *float64             `json:"transparency,omitempty"`
	Distance          *float64             `json:"distance,omitempty"`
	Acceleration      *mgl64.Vec3          `json:"acceleration,omitempty"`
	Limit             *int                 `json:"limit,omitempty"`
	Tween             map[string]TweenInfo `json:"tween,omitempty"`
}

// Derive overlays ov onto s and returns the derived snapshot. s is not
// modified. A nil ov returns a plain copy of the base.
func (s Settings) Derive(ov *Overrides) Settings {
	out := s

	// Copy the tween map so the derived snapshot never aliases the base.
	out.Tween = make(map[string]TweenInfo, len(s.Tween))
	for k, v := range s.Tween {
		out.Tween[k] = v
	}

	if ov == nil {
		return out
	}

	if ov.Kind != nil {
		out.Kind = *ov.Kind
	}
	if ov.Size != nil {
		out.Size = *ov.Size
	}
	if ov.MaximumSize != nil {
		out.MaximumSize = *ov.MaximumSize
	}
	if ov.SpeedRange != nil {
		out.SpeedRange = *ov.SpeedRange
	}
	if ov.DecayDelay != nil {
		out.DecayDelay = *ov.DecayDelay
	}
	if ov.ShrinkOnDecay != nil {
		out.ShrinkOnDecay = *ov.ShrinkOnDecay
	}
	if ov.Expansion != nil {
		out.Expansion = *ov.Expansion
	}
	if ov.ExpansionRadius != nil {
		out.ExpansionRadius = *ov.ExpansionRadius
	}
	if ov.RandomOffset != nil {
		out.RandomOffset = *ov.RandomOffset
	}
	if ov.RandomYaw != nil {
		out.RandomYaw = *ov.RandomYaw
	}
	if ov.SplashAmount != nil {
		out.SplashAmount = *ov.SplashAmount
	}
	if ov.SpeedScaledSplash != nil {
		out.SpeedScaledSplash = *ov.SpeedScaledSplash
	}
	if ov.Color != nil {
		out.Color = *ov.Color
	}
	if ov.Transparency != nil {
		out.Transparency = *ov.Transparency
	}
	if ov.Distance != nil {
		out.Distance = *ov.Distance
	}
	if ov.Acceleration != nil {
		out.Acceleration = *ov.Acceleration
	}
	if ov.Limit != nil {
		out.Limit = *ov.Limit
	}

	// Key-wise merge: override entries win, untouched keys keep base timing.
	for k, v := range ov.Tween {
		out.Tween[k] = v
	}

	return out
}

// Validate reports constructor-time misconfiguration. This is the only
// caller-visible error path; steady-state lifecycle transitions never fail.
func (s Settings) Validate() error {
	if s.Limit <= 0 {
		return fmt.Errorf("splat: pool limit must be positive, got %d", s.Limit)
	}
	if err := validRange("size", s.Size); err != nil {
		return err
	}
	if err := validRange("speed", s.SpeedRange); err != nil {
		return err
	}
	if err := validRange("decay delay", s.DecayDelay); err != nil {
		return err
	}
	if err := validRange("splash amount", s.SplashAmount); err != nil {
		return err
	}
	if s.MaximumSize <= 0 {
		return fmt.Errorf("splat: maximum size must be positive, got %g", s.MaximumSize)
	}
	if s.ExpansionRadius < 0 {
		return fmt.Errorf("splat: expansion radius must not be negative, got %g", s.ExpansionRadius)
	}
	if s.Transparency < 0 || s.Transparency > 1 {
		return fmt.Errorf("splat: transparency must be within [0, 1], got %g", s.Transparency)
	}
	if s.Distance <= 0 {
		return fmt.Errorf("splat: cast distance must be positive, got %g", s.Distance)
	}
	return nil
}

func validRange(name string, r Range) error {
	if r.Min < 0 {
		return fmt.Errorf("splat: %s range minimum must not be negative, got %g", name, r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("splat: %s range is inverted (%g > %g)", name, r.Min, r.Max)
	}
	return nil
}
