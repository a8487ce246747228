package splat

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Tuning constants for the landing and merge transitions.
const (
	// landTilt is the fixed off-normal tilt applied to every landed pool
	// so they do not read as perfectly flat stamps.
	landTilt = 0.087 // ~5 degrees

	// mergeCompression shrinks a pool along two axes per unit of impact
	// speed when it absorbs a droplet, before the growth tween runs.
	mergeCompression = 0.004

	// mergeContribution converts impact speed into added pool size.
	mergeContribution = 0.02

	// splashSpeedFactor converts impact speed into a particle count when
	// speed-scaled splashes are enabled.
	splashSpeedFactor = 0.5

	// maxSplashParticles caps any single splash burst.
	maxSplashParticles = 12
)

// SoundCue identifies a fire-and-forget sound trigger point.
type SoundCue int

const (
	CueFire SoundCue = iota
	CueImpact
	CueMerge
)

// SoundPlayer plays a random sample for a cue. Implementations must be
// non-blocking; the engine calls them from its step.
type SoundPlayer interface {
	Play(cue SoundCue)
}

// Splash describes one surface splash burst for a particle sink.
type Splash struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Count    int
	Color    string
}

// ParticleSink receives splash bursts. Fire-and-forget.
type ParticleSink interface {
	EmitParticles(s Splash)
}

// Engine is the droplet lifecycle orchestrator. One engine owns one pool,
// one caster, one flight registry and one container of landed pools; two
// engines sharing a spatial container would interfere through the neighbor
// scan, so construct one per emitter.
//
// All transitions run under mu: either through a public call or through
// Step, which drives the scheduler, the caster and the animator. Handlers
// run to completion before the next one fires, which is what makes the
// merge-radius check and the state guards atomic per impact.
type Engine struct {
	mu sync.Mutex

	id   string
	base Settings

	pool      *Pool
	caster    *Caster
	sched     *Scheduler
	anim      *Animator
	registry  map[uint32]Settings
	container []*Object
	excluded  map[string]bool

	world     World
	sounds    SoundPlayer
	particles ParticleSink

	rng       *rand.Rand
	events    *EventLog
	snapshots *SnapshotPool

	tick     uint64
	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	destroyed bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithWorld sets the collision provider the caster raycasts against.
func WithWorld(w World) Option {
	return func(e *Engine) { e.world = w }
}

// WithSoundPlayer sets the sound trigger target. Nil is allowed.
func WithSoundPlayer(p SoundPlayer) Option {
	return func(e *Engine) { e.sounds = p }
}

// WithParticleSink sets the splash particle target. Nil is allowed.
func WithParticleSink(p ParticleSink) Option {
	return func(e *Engine) { e.particles = p }
}

// WithSeed fixes the engine RNG for deterministic replays and tests.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithTickRate sets how often Start steps the engine. Default 60.
func WithTickRate(tps int) Option {
	return func(e *Engine) {
		if tps > 0 {
			e.tickRate = tps
		}
	}
}

// WithExcludedSurfaces makes the caster pass through the named surfaces.
func WithExcludedSurfaces(ids ...string) Option {
	return func(e *Engine) {
		for _, id := range ids {
			e.excluded[id] = true
		}
	}
}

// New constructs an engine from a base configuration. Configuration errors
// are the only caller-visible failures; everything past construction
// degrades silently.
func New(base Settings, opts ...Option) (*Engine, error) {
	if base.Tween == nil {
		base.Tween = DefaultSettings().Tween
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		id:       uuid.NewString(),
		base:     base,
		pool:     NewPool(base.Limit),
		sched:    NewScheduler(),
		anim:     NewAnimator(),
		registry: make(map[uint32]Settings, base.Limit),
		excluded: make(map[string]bool),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		events:   NewEventLog(),
		tickRate: 60,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.snapshots = NewSnapshotPool(base.Limit)
	e.caster = NewCaster(e.world)
	e.caster.OnAdvance = e.onAdvance
	e.caster.OnImpact = e.onImpact
	e.caster.OnExpire = e.onExpire

	return e, nil
}

// ID returns the engine's unique identifier.
func (e *Engine) ID() string { return e.id }

// Start drives the engine from an internal ticker. Tests can skip Start and
// call Step directly with synthetic time.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || e.destroyed {
		e.mu.Unlock()
		return
	}
	e.running = true
	// Ticker and stop channel are captured under the lock so a racing
	// Stop cannot strand a live ticker goroutine.
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	ticker := e.ticker
	stop := e.stopChan
	e.mu.Unlock()

	dt := 1.0 / float64(e.tickRate)

	go func() {
		for {
			select {
			case <-ticker.C:
				e.Step(dt)
			case <-stop:
				return
			}
		}
	}()

	log.Printf("💧 Splat engine %s started at %d TPS", e.id[:8], e.tickRate)
}

// Stop halts the internal ticker. The engine remains usable via Step.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	e.stopChan = make(chan struct{})
}

// Step advances the engine by dt seconds: due scheduler tasks first (decay
// firings, spaced emissions), then flight advancement, then animations.
// Every handler runs to completion before the next.
func (e *Engine) Step(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}

	start := time.Now()
	e.tick++

	e.sched.Step(dt)
	e.caster.Step(dt)
	e.anim.Step(dt)

	e.produceSnapshot()
	recordStep(time.Since(start), e.pool.InUseCount(), e.pool.FreeCount(), e.caster.ActiveFlights())
}

// Emit launches one droplet from origin along dir, with optional per-call
// overrides on the base settings. A zero dir falls straight down. On pool
// exhaustion or an unresolvable origin the request is silently dropped.
func (e *Engine) Emit(origin, dir mgl64.Vec3, ov *Overrides) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitLocked(origin, dir, ov)
}

// EmitAmount launches count droplets with delayBetween seconds between
// consecutive emissions. The first fires immediately.
func (e *Engine) EmitAmount(origin, dir mgl64.Vec3, count int, delayBetween float64, ov *Overrides) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	for i := 0; i < count; i++ {
		if i == 0 {
			e.emitLocked(origin, dir, ov)
			continue
		}
		e.sched.Schedule(float64(i)*delayBetween, func() {
			e.emitLocked(origin, dir, ov)
		})
	}
}

func (e *Engine) emitLocked(origin, dir mgl64.Vec3, ov *Overrides) {
	if e.destroyed {
		return
	}
	if !finiteVec(origin) {
		recordEmissionDrop()
		e.events.Emit(EventTypeDrop, e.tick, "", "invalid origin")
		return
	}
	if dir.Len() == 0 {
		dir = mgl64.Vec3{0, -1, 0}
	}
	dir = dir.Normalize()

	cfg := e.base.Derive(ov)
	if ov != nil {
		// Per-call overrides get the same scrutiny as UpdateSettings but
		// follow the silent-drop policy: a bad value drops the emission,
		// it never errors the caller mid-frame.
		if err := cfg.Validate(); err != nil {
			recordEmissionDrop()
			e.events.Emit(EventTypeDrop, e.tick, "", "invalid overrides")
			return
		}
	}

	obj, ok := e.pool.Acquire()
	if !ok {
		// Exhaustion is non-fatal: drop the emission, keep the frame.
		recordEmissionDrop()
		e.events.Emit(EventTypeDrop, e.tick, "", "pool exhausted")
		return
	}
	spawn := origin
	if cfg.RandomOffset > 0 {
		spawn = spawn.Add(lateralJitter(dir, cfg.RandomOffset, e.rng))
	}

	speed := cfg.SpeedRange.Sample(e.rng) * SpeedScale
	flightSize := cfg.Size.Min

	obj.State = StateFlying
	obj.Kind = cfg.Kind
	obj.Color = cfg.Color
	obj.Position = spawn
	obj.Size = mgl64.Vec3{flightSize, flightSize, flightSize}
	obj.Transparency = 0

	// At most one live registry entry per object: Acquire guarantees the
	// previous flight's entry was consumed or cleaned before reuse.
	e.registry[obj.Index] = cfg

	e.caster.Fire(spawn, dir, speed, obj, Behavior{
		Acceleration: cfg.Acceleration,
		MaxDistance:  cfg.Distance,
		Filter:       e.surfaceFilter,
	})

	if e.sounds != nil {
		e.sounds.Play(CueFire)
	}
	recordEmission()
	e.events.Emit(EventTypeEmit, e.tick, obj.ID, "")
}

func (e *Engine) surfaceFilter(s Surface) bool {
	return !e.excluded[s.ID]
}

// onAdvance repositions the droplet with its trailing edge on the ray tip:
// the center sits half the object's length behind the advancing tip so the
// forward face never overshoots the surface it is about to hit.
func (e *Engine) onAdvance(f *Flight, origin, dir mgl64.Vec3, length float64) {
	tip := origin.Add(dir.Mul(length))
	f.Object.Position = tip.Sub(dir.Mul(f.Object.Size[1] / 2))
}

// onImpact runs the landed/merge decision for one flight. The registry
// entry is consumed exactly once; a second impact for the same object (or
// an externally reset one) falls back to the base configuration.
func (e *Engine) onImpact(f *Flight, hit Hit, velocity mgl64.Vec3) {
	obj := f.Object

	cfg, ok := e.registry[obj.Index]
	if ok {
		delete(e.registry, obj.Index)
	} else {
		cfg = e.base.Derive(nil)
	}

	speed := velocity.Len()
	e.events.Emit(EventTypeImpact, e.tick, obj.ID, hit.Surface.ID)

	// Decals lie flush: no thickness, no random spin.
	size := cfg.Size.Sample(e.rng)
	sizeVec := mgl64.Vec3{size, size, size}
	yaw := 0.0
	if cfg.Kind == KindDecal {
		sizeVec[1] = 0
	} else if cfg.RandomYaw {
		yaw = e.rng.Float64() * 2 * math.Pi
	}

	if cfg.Expansion {
		if neighbor := nearestNeighbor(e.container, obj, hit.Position, cfg.Kind, cfg.ExpansionRadius); neighbor != nil {
			e.merge(neighbor, cfg, speed)
			// The droplet feeds the neighbor instead of becoming its
			// own pool; it skips Landed/Decaying entirely.
			e.anim.CancelFor(obj)
			e.pool.Release(obj)
			recordImpact("merge")
			recordRecycle()
			e.events.Emit(EventTypeMerge, e.tick, neighbor.ID, obj.ID)
			return
		}
	}

	e.land(obj, cfg, hit, sizeVec, yaw, speed)
	recordImpact("land")
}

// onExpire retires a flight that ran past its max distance: the registry
// entry is cleaned and the object goes straight back to the pool.
func (e *Engine) onExpire(f *Flight) {
	delete(e.registry, f.Object.Index)
	e.events.Emit(EventTypeExpire, e.tick, f.Object.ID, "")
	e.anim.CancelFor(f.Object)
	e.pool.Release(f.Object)
	recordRecycle()
}

func (e *Engine) land(obj *Object, cfg Settings, hit Hit, sizeVec mgl64.Vec3, yaw float64, speed float64) {
	obj.State = StateLanded
	obj.Position = hit.Position
	obj.Normal = hit.Normal
	obj.Anchored = true

	// Rigid-attach only when the struck surface is itself movable; a
	// missing surface handle just skips the weld.
	if hit.Surface.Movable && hit.Surface.ID != "" {
		obj.WeldedTo = hit.Surface.ID
	}

	finalTransparency := cfg.Transparency
	finalYaw := yaw
	finalTilt := landTilt
	e.anim.Play(obj, cfg.Tween[TweenLand], Goal{
		Size:         &sizeVec,
		Transparency: &finalTransparency,
		Yaw:          &finalYaw,
		Tilt:         &finalTilt,
	}, nil)

	if e.sounds != nil {
		e.sounds.Play(CueImpact)
	}
	e.splash(hit, cfg, speed)

	e.container = append(e.container, obj)
	e.events.Emit(EventTypeLand, e.tick, obj.ID, "")

	// Exactly one decay per flight: scheduled here and nowhere else.
	delay := cfg.DecayDelay.Sample(e.rng)
	e.sched.Schedule(delay, func() {
		e.startDecay(obj, cfg)
	})
}

// merge absorbs a droplet's contribution into an existing neighbor pool.
// The neighbor compresses immediately along two axes in proportion to the
// impact speed, then grows toward its new size, never past MaximumSize.
func (e *Engine) merge(neighbor *Object, cfg Settings, speed float64) {
	neighbor.State = StateMerging

	squash := 1 - math.Min(0.3, speed*mergeCompression)
	neighbor.Size[0] *= squash
	neighbor.Size[2] *= squash

	contribution := speed * mergeContribution
	target := neighbor.Size
	for i := 0; i < 3; i++ {
		if i == 1 && neighbor.Size[1] == 0 {
			continue // flush decals keep zero thickness
		}
		target[i] = math.Min(neighbor.Size[i]+contribution, cfg.MaximumSize)
	}

	e.anim.Play(neighbor, cfg.Tween[TweenGrow], Goal{Size: &target}, func() {
		// Clear the expanding mark unless decay claimed the pool first.
		if neighbor.State == StateMerging {
			neighbor.State = StateLanded
		}
	})

	if e.sounds != nil {
		e.sounds.Play(CueMerge)
	}
}

// startDecay begins the shrink-and-fade transition. State guards make a
// second decay for the same flight structurally unreachable: anything not
// Landed is either already decaying, mid-merge, or long since recycled.
func (e *Engine) startDecay(obj *Object, cfg Settings) {
	switch obj.State {
	case StateLanded:
	case StateMerging:
		// The pool is absorbing a droplet right now; try again once the
		// growth tween has had time to finish.
		retry := cfg.Tween[TweenGrow].Duration
		e.sched.Schedule(retry, func() { e.startDecay(obj, cfg) })
		return
	default:
		return
	}

	obj.State = StateDecaying
	e.events.Emit(EventTypeDecay, e.tick, obj.ID, "")

	goalSize := obj.Size
	if cfg.ShrinkOnDecay {
		goalSize = mgl64.Vec3{}
	}
	full := 1.0
	e.anim.Play(obj, cfg.Tween[TweenDecay], Goal{
		Size:         &goalSize,
		Transparency: &full,
	}, func() {
		e.recycle(obj)
	})
}

// recycle detaches the object from the container and returns it to the
// pool, restoring template defaults. Exactly one recycle follows each
// decay; a redundant call is a no-op because Release ignores free objects.
func (e *Engine) recycle(obj *Object) {
	// A land tween outliving the decay chain would keep writing to the
	// freed object; cancel everything targeting it before the reset.
	e.anim.CancelFor(obj)

	n := 0
	for _, o := range e.container {
		if o != obj {
			e.container[n] = o
			n++
		}
	}
	e.container = e.container[:n]

	e.pool.Release(obj)
	recordRecycle()
	e.events.Emit(EventTypeRecycle, e.tick, obj.ID, "")
}

func (e *Engine) splash(hit Hit, cfg Settings, speed float64) {
	if e.particles == nil {
		return
	}
	var count int
	if cfg.SpeedScaledSplash {
		count = int(speed * splashSpeedFactor)
	} else {
		count = int(cfg.SplashAmount.Sample(e.rng))
	}
	if count <= 0 {
		return
	}
	if count > maxSplashParticles {
		count = maxSplashParticles
	}
	e.particles.EmitParticles(Splash{
		Position: hit.Position,
		Normal:   hit.Normal,
		Count:    count,
		Color:    cfg.Color,
	})
}

// ExcludeSurfaces adds surfaces the caster should pass through. Droplets
// never impact an excluded surface.
func (e *Engine) ExcludeSurfaces(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		e.excluded[id] = true
	}
}

// GetSettings returns a copy of the engine's base configuration snapshot.
func (e *Engine) GetSettings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.base.Derive(nil)
}

// UpdateSettings overlays partial settings onto the base configuration.
// Already-emitted droplets keep the snapshot they were emitted with.
func (e *Engine) UpdateSettings(ov *Overrides) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.base.Derive(ov)
	if err := next.Validate(); err != nil {
		return err
	}
	e.base = next
	return nil
}

// Snapshot returns the latest published immutable snapshot.
func (e *Engine) Snapshot() *EngineSnapshot {
	return e.snapshots.AcquireRead()
}

// Events returns up to n recent lifecycle events, oldest first.
func (e *Engine) Events(n int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.Recent(n)
}

// Stats returns aggregate engine statistics for the API.
func (e *Engine) Stats() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return map[string]interface{}{
		"engineId":  e.id,
		"tick":      e.tick,
		"inUse":     e.pool.InUseCount(),
		"free":      e.pool.FreeCount(),
		"created":   e.pool.Created(),
		"limit":     e.pool.Limit(),
		"landed":    len(e.container),
		"flights":   e.caster.ActiveFlights(),
		"scheduled": e.sched.Pending(),
		"events":    e.events.Total(),
	}
}

// Destroy stops the ticker, cancels all scheduled work and animations,
// releases every object and detaches listeners. Idempotent: a second call
// (or a call racing an external teardown) is a no-op.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.destroyed = true

	e.stopLocked()
	e.sched.Clear()
	e.anim.tweens = e.anim.tweens[:0]

	e.caster.Clear()
	e.container = e.container[:0]
	for k := range e.registry {
		delete(e.registry, k)
	}
	e.pool.drain()

	// Publish a final empty snapshot so readers never see stale objects.
	e.produceSnapshot()

	log.Printf("🛑 Splat engine %s destroyed", e.id[:8])
}

func (e *Engine) produceSnapshot() {
	snap := e.snapshots.AcquireWrite()
	snap.Tick = e.tick

	for _, o := range e.container {
		snap.Objects = append(snap.Objects, ObjectSnapshot{
			ID:           o.ID,
			Kind:         o.Kind.String(),
			State:        o.State.String(),
			Position:     o.Position,
			Size:         o.Size,
			Yaw:          o.Yaw,
			Transparency: o.Transparency,
			Color:        o.Color,
			WeldedTo:     o.WeldedTo,
		})
	}
	for _, f := range e.caster.flights {
		snap.Flights = append(snap.Flights, FlightSnapshot{
			ObjectID: f.Object.ID,
			Position: f.Object.Position,
			Velocity: f.Velocity,
			Color:    f.Object.Color,
		})
	}

	snap.InUse = e.pool.InUseCount()
	snap.Free = e.pool.FreeCount()
	snap.Landed = len(e.container)
	snap.Created = e.pool.Created()
	snap.Limit = e.pool.Limit()

	e.snapshots.PublishWrite()
}

// lateralJitter returns a random offset within radius, perpendicular to dir.
func lateralJitter(dir mgl64.Vec3, radius float64, rng *rand.Rand) mgl64.Vec3 {
	// Any vector not parallel to dir gives a usable basis.
	up := mgl64.Vec3{0, 1, 0}
	if math.Abs(dir.Dot(up)) > 0.99 {
		up = mgl64.Vec3{1, 0, 0}
	}
	right := dir.Cross(up).Normalize()
	fwd := dir.Cross(right).Normalize()

	angle := rng.Float64() * 2 * math.Pi
	r := rng.Float64() * radius
	return right.Mul(math.Cos(angle) * r).Add(fwd.Mul(math.Sin(angle) * r))
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
