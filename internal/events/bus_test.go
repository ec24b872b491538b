package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitReachesAllListeners(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.AddListener(func(ev Event) { got = append(got, "a:"+ev.Name) })
	bus.AddListener(func(ev Event) { got = append(got, "b:"+ev.Name) })

	bus.Emit(EnemyDied, map[string]any{"enemyId": "e1"})
	assert.Len(t, got, 2)
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	bus := NewBus()

	delivered := 0
	bus.AddListener(func(Event) { panic("boom") })
	bus.AddListener(func(Event) { delivered++ })
	bus.AddListener(func(Event) { panic("boom again") })
	bus.AddListener(func(Event) { delivered++ })

	assert.NotPanics(t, func() {
		bus.Emit(Purchase, nil)
	})
	assert.Equal(t, 2, delivered)
}

func TestRemoveListener(t *testing.T) {
	bus := NewBus()

	calls := 0
	id := bus.AddListener(func(Event) { calls++ })
	bus.Emit(Sale, nil)
	bus.RemoveListener(id)
	bus.Emit(Sale, nil)

	assert.Equal(t, 1, calls)
}

func TestNilListenerRejected(t *testing.T) {
	bus := NewBus()
	assert.Equal(t, -1, bus.AddListener(nil))
	assert.NotPanics(t, func() { bus.Emit(EnemyAggro, nil) })
}
