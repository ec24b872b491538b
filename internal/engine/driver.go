package engine

import (
	"log/slog"
	"time"

	"github.com/emberhollow/aicore/internal/sim"
)

// WorldFn supplies the current world snapshot for a tick. The game layer
// owns time-of-day, season, weather and the player; the driver only asks.
type WorldFn func() *sim.WorldState

// Driver runs the wall-clock tick loop. Speed 1.0 is real time; 0 pauses.
type Driver struct {
	Tick     uint64
	Speed    float64
	Interval time.Duration

	coordinator *Coordinator
	world       WorldFn
	stop        chan struct{}
}

// NewDriver creates a driver ticking the coordinator once per interval.
func NewDriver(c *Coordinator, world WorldFn) *Driver {
	return &Driver{
		Speed:       1.0,
		Interval:    100 * time.Millisecond,
		coordinator: c,
		world:       world,
		stop:        make(chan struct{}),
	}
}

// Run drives the loop until Stop is called. Each pass advances the
// coordinator by the tick interval scaled by speed, then sleeps off the
// remainder of the interval.
func (d *Driver) Run() {
	slog.Info("ai driver started", "interval", d.Interval, "speed", d.Speed)

	for {
		select {
		case <-d.stop:
			slog.Info("ai driver stopped", "tick", d.Tick)
			return
		default:
		}

		if d.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		d.Tick++
		dt := d.Interval.Seconds() * d.Speed
		d.coordinator.Update(dt, d.world())

		if elapsed := time.Since(start); elapsed < d.Interval {
			time.Sleep(d.Interval - elapsed)
		}
	}
}

// Stop halts the loop after the current pass.
func (d *Driver) Stop() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
}
