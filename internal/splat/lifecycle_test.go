package splat_test

import (
	"testing"

	"splat/internal/splat"

	"github.com/go-gl/mathgl/mgl64"
)

// floor is a black-box collision world: an infinite plane at y=0.
type floor struct{}

func (floor) Raycast(from, to mgl64.Vec3) (splat.Hit, bool) {
	if from[1] < 0 || to[1] >= from[1] {
		return splat.Hit{}, false
	}
	t := from[1] / (from[1] - to[1])
	if t < 0 || t > 1 {
		return splat.Hit{}, false
	}
	point := from.Add(to.Sub(from).Mul(t))
	point[1] = 0
	return splat.Hit{
		Position: point,
		Normal:   mgl64.Vec3{0, 1, 0},
		Surface:  splat.Surface{ID: "floor"},
	}, true
}

func quickSettings() splat.Settings {
	s := splat.DefaultSettings()
	s.RandomOffset = 0
	s.RandomYaw = false
	s.DecayDelay = splat.Range{Min: 100, Max: 100}
	s.Tween = map[string]splat.TweenInfo{
		splat.TweenLand:  {Duration: 0},
		splat.TweenGrow:  {Duration: 0},
		splat.TweenDecay: {Duration: 0},
	}
	return s
}

// TestPublicLifecycle drives the engine through its exported surface only:
// emit, step to impact, inspect the snapshot and event log, destroy.
func TestPublicLifecycle(t *testing.T) {
	engine, err := splat.New(quickSettings(),
		splat.WithWorld(floor{}),
		splat.WithSeed(7),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Destroy()

	engine.Emit(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -1, 0}, nil)

	for i := 0; i < 120; i++ {
		engine.Step(1.0 / 60.0)
	}

	snap := engine.Snapshot()
	if snap.Landed != 1 {
		t.Fatalf("Expected 1 landed pool, got %d", snap.Landed)
	}
	obj := snap.Objects[0]
	if obj.State != "landed" {
		t.Errorf("Expected state landed, got %s", obj.State)
	}
	if obj.Position[1] != 0 {
		t.Errorf("Expected pool on the floor, got y=%f", obj.Position[1])
	}

	var sawEmit, sawImpact, sawLand bool
	for _, ev := range engine.Events(100) {
		switch ev.Type {
		case splat.EventTypeEmit:
			sawEmit = true
		case splat.EventTypeImpact:
			sawImpact = true
		case splat.EventTypeLand:
			sawLand = true
		}
	}
	if !sawEmit || !sawImpact || !sawLand {
		t.Errorf("Missing lifecycle events: emit=%v impact=%v land=%v",
			sawEmit, sawImpact, sawLand)
	}
}

// TestPublicSettingsUpdate verifies UpdateSettings overlays through the
// exported API and rejects invalid values.
func TestPublicSettingsUpdate(t *testing.T) {
	engine, err := splat.New(quickSettings(), splat.WithWorld(floor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Destroy()

	color := "#112233"
	if err := engine.UpdateSettings(&splat.Overrides{Color: &color}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got := engine.GetSettings().Color; got != "#112233" {
		t.Errorf("Expected color #112233, got %s", got)
	}

	bad := splat.Range{Min: 5, Max: 1}
	if err := engine.UpdateSettings(&splat.Overrides{Size: &bad}); err == nil {
		t.Errorf("Expected error for inverted size range")
	}
}

// TestPublicDestroyReleasesEverything verifies Destroy empties the engine
// and further calls are harmless.
func TestPublicDestroyReleasesEverything(t *testing.T) {
	engine, err := splat.New(quickSettings(), splat.WithWorld(floor{}), splat.WithSeed(7))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	engine.Emit(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -1, 0}, nil)
	engine.Step(1.0 / 60.0)

	engine.Destroy()
	engine.Destroy() // idempotent

	snap := engine.Snapshot()
	if snap.InUse != 0 || len(snap.Flights) != 0 {
		t.Errorf("Expected empty engine after Destroy, got inUse=%d flights=%d",
			snap.InUse, len(snap.Flights))
	}

	// Emitting into a destroyed engine must not panic or revive objects.
	engine.Emit(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -1, 0}, nil)
	engine.Step(1.0 / 60.0)
	if engine.Snapshot().InUse != 0 {
		t.Errorf("Destroyed engine acquired objects")
	}
}
