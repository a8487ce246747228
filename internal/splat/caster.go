package splat

import "github.com/go-gl/mathgl/mgl64"

// Surface identifies what a ray struck. Movable surfaces support the
// rigid-attach step when a pool lands on them.
type Surface struct {
	ID      string
	Movable bool
}

// Hit is the result of a raycast against the world.
type Hit struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Surface  Surface
}

// World is the collision provider the caster raycasts against. The engine
// treats it as an external primitive; tests supply synthetic worlds.
type World interface {
	// Raycast traces the segment from->to and reports the first hit.
	Raycast(from, to mgl64.Vec3) (Hit, bool)
}

// Behavior configures one cast: the acceleration applied each step, the
// distance after which the flight retires, and an optional surface filter
// (return false to pass through a surface).
type Behavior struct {
	Acceleration mgl64.Vec3
	MaxDistance  float64
	Filter       func(Surface) bool
}

// Flight is one projectile advancing through the world.
type Flight struct {
	Object   *Object
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	behavior Behavior
	traveled float64
}

// Caster advances flights along ballistic rays each Step and reports
// segment advances, impacts and expirations through callbacks. The advance
// integration itself is the whole of this type; everything stateful about a
// droplet lives in the engine.
type Caster struct {
	world   World
	flights []*Flight

	// Callbacks run synchronously inside Step, one flight at a time.
	OnAdvance func(f *Flight, origin, dir mgl64.Vec3, length float64)
	OnImpact  func(f *Flight, hit Hit, velocity mgl64.Vec3)
	OnExpire  func(f *Flight)
}

// NewCaster creates a caster over the given world.
func NewCaster(world World) *Caster {
	return &Caster{world: world}
}

// Fire starts a flight for obj from origin along dir at the given speed.
// dir must be non-zero; it is normalized here.
func (c *Caster) Fire(origin, dir mgl64.Vec3, speed float64, obj *Object, behavior Behavior) *Flight {
	f := &Flight{
		Object:   obj,
		Position: origin,
		Velocity: dir.Normalize().Mul(speed),
		behavior: behavior,
	}
	c.flights = append(c.flights, f)
	return f
}

// ActiveFlights returns the number of flights still in the air.
func (c *Caster) ActiveFlights() int { return len(c.flights) }

// Clear drops all flights without firing callbacks. Used by Engine.Destroy.
func (c *Caster) Clear() { c.flights = c.flights[:0] }

// Step advances every flight by dt. Flights that hit something or exceed
// their max distance are filtered out in place without reallocating.
func (c *Caster) Step(dt float64) {
	n := 0
	for _, f := range c.flights {
		if c.advance(f, dt) {
			c.flights[n] = f
			n++
		}
	}
	c.flights = c.flights[:n]
}

// advance integrates one segment and returns false when the flight ends.
func (c *Caster) advance(f *Flight, dt float64) bool {
	from := f.Position
	to := from.Add(f.Velocity.Mul(dt))
	seg := to.Sub(from)
	length := seg.Len()

	if length > 0 && c.world != nil {
		if hit, ok := c.world.Raycast(from, to); ok {
			if f.behavior.Filter == nil || f.behavior.Filter(hit.Surface) {
				if c.OnImpact != nil {
					c.OnImpact(f, hit, f.Velocity)
				}
				return false
			}
		}
	}

	f.Position = to
	f.Velocity = f.Velocity.Add(f.behavior.Acceleration.Mul(dt))
	f.traveled += length

	if f.behavior.MaxDistance > 0 && f.traveled >= f.behavior.MaxDistance {
		if c.OnExpire != nil {
			c.OnExpire(f)
		}
		return false
	}

	if length > 0 && c.OnAdvance != nil {
		c.OnAdvance(f, from, seg.Mul(1/length), length)
	}
	return true
}
