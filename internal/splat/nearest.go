package splat

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// nearestNeighbor linearly scans the container for the closest landed pool
// that a new droplet at pos could merge into. Candidates must be stationary
// (StateLanded — flying, merging and decaying objects never qualify), share
// the droplet's kind, not be the droplet itself, and sit strictly inside
// radius.
//
// Object counts are bounded by the pool limit, so an O(n) scan beats
// maintaining a spatial index. Ties break deterministically on (distance,
// lowest object index) so repeated scans agree regardless of container
// iteration order.
func nearestNeighbor(container []*Object, self *Object, pos mgl64.Vec3, kind Kind, radius float64) *Object {
	var best *Object
	bestDist := math.Inf(1)

	for _, o := range container {
		if o == self || o.State != StateLanded || o.Kind != kind {
			continue
		}
		d := o.Position.Sub(pos).Len()
		if d >= radius {
			continue
		}
		if d < bestDist || (d == bestDist && best != nil && o.Index < best.Index) {
			best = o
			bestDist = d
		}
	}
	return best
}
