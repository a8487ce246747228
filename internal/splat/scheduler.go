package splat

import "sort"

// task is one delayed callback owned by the scheduler.
type task struct {
	due float64 // absolute scheduler time in seconds
	seq uint64  // insertion order, breaks same-deadline ties
	fn  func()
}

// Scheduler is the cooperative dispatch queue behind every delayed
// transition (decay firing, spaced EmitAmount calls). Tasks run to
// completion, in deterministic (deadline, then schedule) order, inside
// Step — never in parallel with each other or with the caller.
type Scheduler struct {
	now     float64
	nextSeq uint64
	tasks   []task
}

// NewScheduler returns an empty scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule queues fn to run once delay seconds of scheduler time have
// elapsed. A delay of zero (or less) fires on the next Step.
func (s *Scheduler) Schedule(delay float64, fn func()) {
	if delay < 0 {
		delay = 0
	}
	s.tasks = append(s.tasks, task{due: s.now + delay, seq: s.nextSeq, fn: fn})
	s.nextSeq++
}

// Step advances scheduler time by dt and runs every task that has come due.
// Tasks scheduled by a running task with zero delay fire within the same
// Step: the queue is re-examined until no due work remains, so a decay
// delay of zero lands, decays and recycles inside one scheduling tick.
func (s *Scheduler) Step(dt float64) {
	s.now += dt
	for {
		due := s.takeDue()
		if len(due) == 0 {
			return
		}
		for _, t := range due {
			t.fn()
		}
	}
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int { return len(s.tasks) }

// Clear drops all queued tasks. Used by Engine.Destroy.
func (s *Scheduler) Clear() { s.tasks = s.tasks[:0] }

// takeDue removes and returns all tasks with due <= now, sorted by
// (deadline, insertion order).
func (s *Scheduler) takeDue() []task {
	var due []task
	n := 0
	for _, t := range s.tasks {
		if t.due <= s.now {
			due = append(due, t)
		} else {
			s.tasks[n] = t
			n++
		}
	}
	s.tasks = s.tasks[:n]
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	return due
}
