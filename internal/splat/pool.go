package splat

// Pool is the bounded recycler of renderable objects. Objects are
// partitioned into a free list and an in-use set; an object is always in
// exactly one partition. The pool grows lazily, one object per failed
// acquire, up to the configured limit.
//
// The pool is not goroutine safe on its own; the engine's single-writer
// scheduling guarantees one owner at a time.
type Pool struct {
	limit   int
	created int
	free    []*Object
	inUse   map[uint32]*Object
}

// NewPool creates an empty pool that can grow up to limit objects.
func NewPool(limit int) *Pool {
	return &Pool{
		limit: limit,
		free:  make([]*Object, 0, limit),
		inUse: make(map[uint32]*Object, limit),
	}
}

// Acquire moves one object from free to in-use. When the free list is empty
// it grows the pool by one; when the limit is reached it returns ok=false.
// Exhaustion is non-fatal by design: callers drop the emission rather than
// erroring, so load spikes degrade instead of crash.
func (p *Pool) Acquire() (*Object, bool) {
	if len(p.free) == 0 {
		p.Grow()
	}
	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	o := p.free[n-1]
	p.free = p.free[:n-1]
	p.inUse[o.Index] = o
	return o, true
}

// Release resets o to its template defaults and returns it to the free
// partition. Releasing an object that is not in use is a harmless no-op;
// the engine's state guards make double release unreachable in practice,
// but a redundant return must never corrupt the partitions.
func (p *Pool) Release(o *Object) {
	if o == nil {
		return
	}
	if _, ok := p.inUse[o.Index]; !ok {
		return
	}
	delete(p.inUse, o.Index)
	o.reset()
	p.free = append(p.free, o)
}

// Grow instantiates one new object when the free list is empty. No-op once
// the limit is reached or while free objects remain.
func (p *Pool) Grow() {
	if len(p.free) > 0 || p.created >= p.limit {
		return
	}
	o := newObject(uint32(p.created))
	p.created++
	p.free = append(p.free, o)
}

// FreeCount returns the number of objects in the free partition.
func (p *Pool) FreeCount() int { return len(p.free) }

// InUseCount returns the number of objects currently in use.
func (p *Pool) InUseCount() int { return len(p.inUse) }

// Created returns the total number of objects ever instantiated.
func (p *Pool) Created() int { return p.created }

// Limit returns the hard cap on pool size.
func (p *Pool) Limit() int { return p.limit }

// drain releases every in-use object. Used by Engine.Destroy.
func (p *Pool) drain() {
	for _, o := range p.inUse {
		delete(p.inUse, o.Index)
		o.reset()
		p.free = append(p.free, o)
	}
}
