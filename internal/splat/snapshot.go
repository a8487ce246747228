package splat

import (
	"sync/atomic"
	"time"
)

// ObjectSnapshot is an immutable copy of one pool object for rendering and
// the API. Value types only so a published snapshot can never mutate.
type ObjectSnapshot struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	State        string     `json:"state"`
	Position     [3]float64 `json:"position"`
	Size         [3]float64 `json:"size"`
	Yaw          float64    `json:"yaw"`
	Transparency float64    `json:"transparency"`
	Color        string     `json:"color"`
	WeldedTo     string     `json:"weldedTo,omitempty"`
}

// FlightSnapshot is an immutable copy of one in-flight droplet.
type FlightSnapshot struct {
	ObjectID string     `json:"objectId"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
	Color    string     `json:"color"`
}

// EngineSnapshot is a complete immutable engine state for rendering.
// All slices are pre-allocated and capped by the pool limit.
type EngineSnapshot struct {
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Tick      uint64    `json:"tick"`

	Objects []ObjectSnapshot `json:"objects"`
	Flights []FlightSnapshot `json:"flights"`

	InUse   int `json:"inUse"`
	Free    int `json:"free"`
	Landed  int `json:"landed"`
	Created int `json:"created"`
	Limit   int `json:"limit"`
}

// SnapshotPool triple-buffers engine snapshots so readers (render loop, API,
// websocket broadcaster) never block the engine and never observe a
// half-written frame. Readers copy the slot out and verify the per-slot
// sequence afterwards; a torn read (the writer cycled back onto the slot)
// is detected and retried, so returned snapshots are immutable.
type SnapshotPool struct {
	snapshots [3]EngineSnapshot
	slotSeq   [3]uint64 // atomic - odd while the slot is being written
	writeIdx  uint32    // atomic - producer index
	readIdx   uint32    // atomic - consumer index
	sequence  uint64    // atomic - monotonic publish sequence
}

// NewSnapshotPool pre-allocates three buffers sized to the pool limit.
func NewSnapshotPool(limit int) *SnapshotPool {
	p := &SnapshotPool{}
	for i := 0; i < 3; i++ {
		p.snapshots[i] = EngineSnapshot{
			Objects: make([]ObjectSnapshot, 0, limit),
			Flights: make([]FlightSnapshot, 0, limit),
		}
	}
	return p
}

// AcquireWrite returns the next write slot with slices reset but capacity
// preserved. Producer only: the engine's Step.
func (p *SnapshotPool) AcquireWrite() *EngineSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	atomic.AddUint64(&p.slotSeq[idx], 1) // odd: slot under construction
	snap := &p.snapshots[idx]

	snap.Objects = snap.Objects[:0]
	snap.Flights = snap.Flights[:0]

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite makes the just-written buffer visible to readers.
func (p *SnapshotPool) PublishWrite() {
	idx := atomic.LoadUint32(&p.writeIdx) % 3
	atomic.AddUint64(&p.slotSeq[idx], 1) // even: slot stable
	atomic.StoreUint32(&p.readIdx, idx)
}

// AcquireRead returns a copy of the latest published snapshot. The copy is
// validated against the slot sequence: if the writer cycled back onto the
// slot mid-copy, the read retries on a fresher slot. Callers may hold the
// result indefinitely.
func (p *SnapshotPool) AcquireRead() *EngineSnapshot {
	for {
		idx := atomic.LoadUint32(&p.readIdx) % 3
		seq := atomic.LoadUint64(&p.slotSeq[idx])
		if seq%2 != 0 {
			continue
		}

		out := p.snapshots[idx]
		out.Objects = append([]ObjectSnapshot(nil), p.snapshots[idx].Objects...)
		out.Flights = append([]FlightSnapshot(nil), p.snapshots[idx].Flights...)

		if atomic.LoadUint64(&p.slotSeq[idx]) == seq {
			return &out
		}
	}
}
