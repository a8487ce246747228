package splat

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func landedAt(index uint32, pos mgl64.Vec3, kind Kind) *Object {
	o := newObject(index)
	o.State = StateLanded
	o.Kind = kind
	o.Position = pos
	return o
}

// TestNearestPicksClosest verifies the scan returns the single closest candidate
func TestNearestPicksClosest(t *testing.T) {
	far := landedAt(0, mgl64.Vec3{0.15, 0, 0}, KindDrop)
	near := landedAt(1, mgl64.Vec3{0.05, 0, 0}, KindDrop)
	container := []*Object{far, near}

	got := nearestNeighbor(container, nil, mgl64.Vec3{}, KindDrop, 0.2)
	if got != near {
		t.Errorf("Expected nearest candidate, got index %v", got)
	}
}

// TestNearestRespectsRadius verifies empty result outside the radius
func TestNearestRespectsRadius(t *testing.T) {
	o := landedAt(0, mgl64.Vec3{0.3, 0, 0}, KindDrop)

	if got := nearestNeighbor([]*Object{o}, nil, mgl64.Vec3{}, KindDrop, 0.2); got != nil {
		t.Errorf("Candidate at 0.3 should not qualify for radius 0.2, got %v", got.Index)
	}
}

// TestNearestFiltersState verifies decaying, merging and flying objects never qualify
func TestNearestFiltersState(t *testing.T) {
	for _, state := range []State{StateFlying, StateMerging, StateDecaying, StateFree} {
		o := landedAt(0, mgl64.Vec3{0.05, 0, 0}, KindDrop)
		o.State = state
		if got := nearestNeighbor([]*Object{o}, nil, mgl64.Vec3{}, KindDrop, 0.2); got != nil {
			t.Errorf("Object in state %v should not qualify", state)
		}
	}
}

// TestNearestFiltersKindAndSelf verifies kind matching and self-exclusion
func TestNearestFiltersKindAndSelf(t *testing.T) {
	decal := landedAt(0, mgl64.Vec3{0.05, 0, 0}, KindDecal)
	if got := nearestNeighbor([]*Object{decal}, nil, mgl64.Vec3{}, KindDrop, 0.2); got != nil {
		t.Error("A different kind should never qualify")
	}

	self := landedAt(1, mgl64.Vec3{}, KindDrop)
	if got := nearestNeighbor([]*Object{self}, self, mgl64.Vec3{}, KindDrop, 0.2); got != nil {
		t.Error("An object should never merge with itself")
	}
}

// TestNearestTieBreaksOnIndex verifies equidistant candidates resolve deterministically
func TestNearestTieBreaksOnIndex(t *testing.T) {
	a := landedAt(7, mgl64.Vec3{0.1, 0, 0}, KindDrop)
	b := landedAt(3, mgl64.Vec3{-0.1, 0, 0}, KindDrop)

	// Same distance either iteration order: lowest index wins.
	got1 := nearestNeighbor([]*Object{a, b}, nil, mgl64.Vec3{}, KindDrop, 0.2)
	got2 := nearestNeighbor([]*Object{b, a}, nil, mgl64.Vec3{}, KindDrop, 0.2)

	if got1 != b || got2 != b {
		t.Errorf("Tie should break to the lowest index, got %v and %v", got1.Index, got2.Index)
	}
}
