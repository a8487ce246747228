package splat

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// State is the lifecycle stage of a pool object. It replaces side-channel
// attribute flags: the nearest-neighbor scan and the decay/merge guards all
// read this one field, so flag/state desync is impossible.
type State int

const (
	// StateFree: sitting in the pool's free partition.
	StateFree State = iota
	// StateFlying: in flight between emission and impact.
	StateFlying
	// StateLanded: parented to a surface, waiting out its decay delay.
	StateLanded
	// StateMerging: a landed pool currently absorbing a droplet (the
	// "is-expanding" condition). Returns to StateLanded when the growth
	// tween completes.
	StateMerging
	// StateDecaying: shrinking and fading before release.
	StateDecaying
)

// String returns the lowercase state name used in snapshots and the API.
func (s State) String() string {
	switch s {
	case StateFlying:
		return "flying"
	case StateLanded:
		return "landed"
	case StateMerging:
		return "merging"
	case StateDecaying:
		return "decaying"
	default:
		return "free"
	}
}

// template holds the defaults an object is restored to on recycle.
type template struct {
	Size         mgl64.Vec3
	Transparency float64
	Anchored     bool
}

// Object is one renderable entity owned by the pool. The engine is the only
// writer; renderers read through snapshots.
type Object struct {
	Index uint32 // stable pool index, used as registry key
	ID    string // external identifier for snapshots and the API

	Position    mgl64.Vec3
	Normal      mgl64.Vec3 // surface normal once landed
	Yaw         float64    // rotation around the surface normal (radians)
	Tilt        float64    // fixed off-normal tilt applied at landing
	Size        mgl64.Vec3
	Transparency float64 // 0 opaque .. 1 invisible
	Color        string

	Kind     Kind
	State    State
	Anchored bool
	WeldedTo string // id of the movable surface this pool rides on, if any

	tmpl template
}

func newObject(index uint32) *Object {
	o := &Object{
		Index: index,
		ID:    uuid.NewString(),
		tmpl: template{
			Size:         mgl64.Vec3{},
			Transparency: 0,
			Anchored:     false,
		},
	}
	o.reset()
	return o
}

// IsDecaying reports whether the object has started its decay transition.
func (o *Object) IsDecaying() bool { return o.State == StateDecaying }

// IsExpanding reports whether the object is absorbing a merge right now.
func (o *Object) IsExpanding() bool { return o.State == StateMerging }

// reset restores every external-facing attribute to the template. Called by
// the pool on release; after reset the object is indistinguishable from a
// freshly created one apart from its identity.
func (o *Object) reset() {
	o.Position = mgl64.Vec3{}
	o.Normal = mgl64.Vec3{}
	o.Yaw = 0
	o.Tilt = 0
	o.Size = o.tmpl.Size
	o.Transparency = o.tmpl.Transparency
	o.Color = ""
	o.Kind = KindDrop
	o.State = StateFree
	o.Anchored = o.tmpl.Anchored
	o.WeldedTo = ""
}
