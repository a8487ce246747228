package splat

import "github.com/go-gl/mathgl/mgl64"

// Goal holds the fields a tween animates toward. Nil fields are untouched.
type Goal struct {
	Size         *mgl64.Vec3
	Transparency *float64
	Yaw          *float64
	Tilt         *float64
}

// Tween is one in-flight animated transition on a pool object.
type Tween struct {
	target  *Object
	info    TweenInfo
	goal    Goal
	elapsed float64

	startSize         mgl64.Vec3
	startTransparency float64
	startYaw          float64
	startTilt         float64

	onComplete func()
	done       bool
}

// Animator drives animated transitions from the engine's Step. Completion
// callbacks run inside Step, after the final interpolation has been applied,
// under the same single-writer discipline as every other handler.
type Animator struct {
	tweens []*Tween
}

// NewAnimator returns an empty animator.
func NewAnimator() *Animator {
	return &Animator{}
}

// Play starts animating target toward goal over info.Duration seconds.
// onComplete may be nil. A zero duration snaps to the goal on the next Step.
func (a *Animator) Play(target *Object, info TweenInfo, goal Goal, onComplete func()) *Tween {
	tw := &Tween{
		target:            target,
		info:              info,
		goal:              goal,
		startSize:         target.Size,
		startTransparency: target.Transparency,
		startYaw:          target.Yaw,
		startTilt:         target.Tilt,
		onComplete:        onComplete,
	}
	a.tweens = append(a.tweens, tw)
	return tw
}

// Step advances all tweens by dt. Finished tweens are filtered in place and
// their completion callbacks fire after their final values are applied.
func (a *Animator) Step(dt float64) {
	var finished []*Tween
	n := 0
	for _, tw := range a.tweens {
		if tw.advance(dt) {
			a.tweens[n] = tw
			n++
		} else {
			finished = append(finished, tw)
		}
	}
	a.tweens = a.tweens[:n]

	for _, tw := range finished {
		if tw.onComplete != nil {
			tw.onComplete()
		}
	}
}

// Active returns the number of running tweens.
func (a *Animator) Active() int { return len(a.tweens) }

// CancelFor drops any running tween on target without firing completion.
// Used when an object is forcibly reclaimed (engine destroy).
func (a *Animator) CancelFor(target *Object) {
	n := 0
	for _, tw := range a.tweens {
		if tw.target != target {
			a.tweens[n] = tw
			n++
		}
	}
	a.tweens = a.tweens[:n]
}

// advance applies dt and returns false once the tween has finished.
func (tw *Tween) advance(dt float64) bool {
	tw.elapsed += dt
	t := 1.0
	if tw.info.Duration > 0 {
		t = tw.elapsed / tw.info.Duration
		if t > 1 {
			t = 1
		}
	}
	f := ease(t, tw.info.Easing)

	if tw.goal.Size != nil {
		tw.target.Size = lerpVec3(tw.startSize, *tw.goal.Size, f)
	}
	if tw.goal.Transparency != nil {
		tw.target.Transparency = lerp(tw.startTransparency, *tw.goal.Transparency, f)
	}
	if tw.goal.Yaw != nil {
		tw.target.Yaw = lerp(tw.startYaw, *tw.goal.Yaw, f)
	}
	if tw.goal.Tilt != nil {
		tw.target.Tilt = lerp(tw.startTilt, *tw.goal.Tilt, f)
	}

	if t >= 1 {
		tw.done = true
		return false
	}
	return true
}

func ease(t float64, e Easing) float64 {
	switch e {
	case EaseQuadIn:
		return t * t
	case EaseQuadOut:
		return 1 - (1-t)*(1-t)
	case EaseQuadInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - 2*(1-t)*(1-t)
	default:
		return t
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{
		lerp(a[0], b[0], t),
		lerp(a[1], b[1], t),
		lerp(a[2], b[2], t),
	}
}
