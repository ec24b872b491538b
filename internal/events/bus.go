// Package events provides the outbound event bus for the AI core. Subsystems
// publish named events; the surrounding game layer subscribes to consume
// them. A misbehaving listener never blocks delivery to the others.
package events

import "log/slog"

// Event names emitted by the core.
const (
	EnemyDamaged        = "enemyDamaged"
	EnemyDied           = "enemyDied"
	EnemyAggro          = "enemyAggro"
	CoordinatedAttack   = "coordinatedAttack"
	MemoryCreated       = "memoryCreated"
	MemoryExpired       = "memoryExpired"
	RelationshipChanged = "relationshipChanged"
	CompanionDamaged    = "companionDamaged"
	CompanionDied       = "companionDied"
	ItemGathered        = "itemGathered"
	Purchase            = "purchase"
	Sale                = "sale"
	MarketRestocked     = "marketRestocked"
)

// Event is a named occurrence with a small id/value payload.
type Event struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Listener receives every emitted event.
type Listener func(Event)

// Bus is an explicit listener list with a dispatch function. It is owned by
// the orchestrator and injected into each subsystem; there is no package
// level instance.
type Bus struct {
	nextID    int
	listeners map[int]Listener
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// AddListener registers a listener and returns its handle.
func (b *Bus) AddListener(fn Listener) int {
	if fn == nil {
		slog.Warn("event bus: nil listener ignored")
		return -1
	}
	b.nextID++
	b.listeners[b.nextID] = fn
	return b.nextID
}

// RemoveListener unregisters the listener with the given handle.
func (b *Bus) RemoveListener(id int) {
	delete(b.listeners, id)
}

// Emit dispatches an event to every listener. A panic inside one listener is
// recovered and logged so the remaining listeners still receive the event.
func (b *Bus) Emit(name string, payload map[string]any) {
	ev := Event{Name: name, Payload: payload}
	for id, fn := range b.listeners {
		b.dispatch(id, fn, ev)
	}
}

func (b *Bus) dispatch(id int, fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("event listener panicked", "listener", id, "event", ev.Name, "panic", r)
		}
	}()
	fn(ev)
}
