package splat

// EventType classifies a lifecycle event.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeEmit              // droplet left the pool and started a flight
	EventTypeDrop              // emission dropped (pool exhausted / bad origin)
	EventTypeImpact            // flight struck a surface
	EventTypeMerge             // impact absorbed into a neighboring pool
	EventTypeLand              // impact became a standalone pool
	EventTypeDecay             // pool started decaying
	EventTypeRecycle           // object reset and returned to the pool
	EventTypeExpire            // flight retired past its max distance
)

// String returns the event name used by the API.
func (t EventType) String() string {
	switch t {
	case EventTypeEmit:
		return "emit"
	case EventTypeDrop:
		return "drop"
	case EventTypeImpact:
		return "impact"
	case EventTypeMerge:
		return "merge"
	case EventTypeLand:
		return "land"
	case EventTypeDecay:
		return "decay"
	case EventTypeRecycle:
		return "recycle"
	case EventTypeExpire:
		return "expire"
	default:
		return "unknown"
	}
}

// Event is one recorded lifecycle transition.
type Event struct {
	Type     EventType `json:"type"`
	Tick     uint64    `json:"tick"`
	ObjectID string    `json:"objectId,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

const eventBufferSize = 1024

// EventLog is a bounded in-memory ring of lifecycle events. It exists for
// the API's /events endpoint and for tests asserting ordering guarantees;
// overflow silently overwrites the oldest entries.
//
// Written only from the engine's Step, read through Recent which copies out
// under the engine lock.
type EventLog struct {
	buffer [eventBufferSize]Event
	head   uint64 // total events ever written
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Emit records one event, overwriting the oldest when the ring is full.
func (el *EventLog) Emit(t EventType, tick uint64, objectID, detail string) {
	el.buffer[el.head%eventBufferSize] = Event{
		Type:     t,
		Tick:     tick,
		ObjectID: objectID,
		Detail:   detail,
	}
	el.head++
}

// Recent returns up to n of the newest events, oldest first.
func (el *EventLog) Recent(n int) []Event {
	total := el.head
	if uint64(n) > total {
		n = int(total)
	}
	if n > eventBufferSize {
		n = eventBufferSize
	}
	out := make([]Event, 0, n)
	for i := total - uint64(n); i < total; i++ {
		out = append(out, el.buffer[i%eventBufferSize])
	}
	return out
}

// Total returns the number of events ever recorded.
func (el *EventLog) Total() uint64 { return el.head }
