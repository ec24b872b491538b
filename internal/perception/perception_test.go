package perception

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/sim"
)

func newEngine() *Engine {
	return NewEngine(DefaultConfig(), events.NewBus(), 1)
}

func TestVisionRangeGating(t *testing.T) {
	e := newEngine()
	e.SetEnvironment(sim.WeatherClear, 12)

	targets := []Target{
		{ID: "near", Position: geom.Vec2{X: 5, Y: 0}},
		{ID: "far", Position: geom.Vec2{X: 50, Y: 0}},
	}
	seen := e.CheckVision("p1", geom.Vec2{}, targets, VisionOptions{BaseRange: 10})
	require.Len(t, seen, 1)
	assert.Equal(t, "near", seen[0].ID)
}

func TestVisionWeatherAndNightModifiers(t *testing.T) {
	e := newEngine()

	// Fog cuts vision to 30%; a target at 5 with base range 10 is invisible.
	e.SetEnvironment(sim.WeatherFog, 12)
	seen := e.CheckVision("p1", geom.Vec2{}, []Target{{ID: "t", Position: geom.Vec2{X: 5}}}, VisionOptions{BaseRange: 10})
	assert.Empty(t, seen)

	// Clear night halves range: 10 → 5, target at 6 invisible, at 4 visible.
	e.SetEnvironment(sim.WeatherClear, 23)
	seen = e.CheckVision("p1", geom.Vec2{}, []Target{{ID: "t", Position: geom.Vec2{X: 6}}}, VisionOptions{BaseRange: 10})
	assert.Empty(t, seen)
	seen = e.CheckVision("p1", geom.Vec2{}, []Target{{ID: "t", Position: geom.Vec2{X: 4}}}, VisionOptions{BaseRange: 10})
	assert.Len(t, seen, 1)
}

func TestVisionFOVGating(t *testing.T) {
	e := newEngine()
	e.SetEnvironment(sim.WeatherClear, 12)

	behind := []Target{{ID: "b", Position: geom.Vec2{X: -5, Y: 0}}}
	opts := VisionOptions{BaseRange: 20, FOVDegrees: 90, Facing: 0}
	assert.Empty(t, e.CheckVision("p1", geom.Vec2{}, behind, opts))

	// FOV 360 disables gating.
	opts.FOVDegrees = 360
	assert.Len(t, e.CheckVision("p1", geom.Vec2{}, behind, opts), 1)
}

func TestVisionLineOfSightPredicate(t *testing.T) {
	e := newEngine()
	e.SetEnvironment(sim.WeatherClear, 12)

	opts := VisionOptions{
		BaseRange:   20,
		LineOfSight: func(from, to geom.Vec2) bool { return false },
	}
	assert.Empty(t, e.CheckVision("p1", geom.Vec2{}, []Target{{ID: "t", Position: geom.Vec2{X: 5}}}, opts))
}

func TestHearingPrioritySortAndApproxPosition(t *testing.T) {
	e := newEngine()
	e.SetEnvironment(sim.WeatherClear, 12)

	sounds := []Sound{
		{ID: "walker", Type: "footstep", Position: geom.Vec2{X: 10, Y: 0}},
		{ID: "fight", Type: "combat", Position: geom.Vec2{X: 15, Y: 0}},
	}
	heard := e.CheckHearing("p1", geom.Vec2{}, sounds, HearingOptions{BaseRange: 60})
	require.Len(t, heard, 2)
	assert.Equal(t, "combat", heard[0].Type)

	// Approximate position stays within distance*0.2 per axis.
	for _, h := range heard {
		assert.LessOrEqual(t, math.Abs(h.ApproxPos.X-h.Position.X), h.Distance*0.2+1e-9)
		assert.LessOrEqual(t, math.Abs(h.ApproxPos.Y-h.Position.Y), h.Distance*0.2+1e-9)
	}

	// Hearing created a memory with the approximate position.
	mem, ok := e.GetMemory("p1", "fight")
	require.True(t, ok)
	assert.Equal(t, SourceHearing, mem.Source)
}

func TestHearingRangeIsMinOfBaseAndSoundType(t *testing.T) {
	e := newEngine()
	e.SetEnvironment(sim.WeatherClear, 12)

	// Footstep range is 20 even with a huge base hearing range.
	sounds := []Sound{{ID: "w", Type: "footstep", Position: geom.Vec2{X: 25}}}
	assert.Empty(t, e.CheckHearing("p1", geom.Vec2{}, sounds, HearingOptions{BaseRange: 500}))
}

func TestMemoryDecayAndExpiry(t *testing.T) {
	bus := events.NewBus()
	expired := 0
	bus.AddListener(func(ev events.Event) {
		if ev.Name == events.MemoryExpired {
			expired++
		}
	})
	e := NewEngine(Config{DecayRate: 0.1, MemoryDuration: 100}, bus, 1)
	e.SetEnvironment(sim.WeatherClear, 12)

	e.CheckVision("p1", geom.Vec2{}, []Target{{ID: "t", Position: geom.Vec2{X: 1}}}, VisionOptions{BaseRange: 10})

	mem, ok := e.GetMemory("p1", "t")
	require.True(t, ok)
	assert.Equal(t, 1.0, mem.Confidence)

	// Confidence is monotonically non-increasing between sightings.
	e.Update(2)
	mem, ok = e.GetMemory("p1", "t")
	require.True(t, ok)
	assert.InDelta(t, 0.8, mem.Confidence, 1e-9)

	// Re-sighting resets to exactly 1.0 and bumps the count.
	e.CheckVision("p1", geom.Vec2{}, []Target{{ID: "t", Position: geom.Vec2{X: 1}}}, VisionOptions{BaseRange: 10})
	mem, _ = e.GetMemory("p1", "t")
	assert.Equal(t, 1.0, mem.Confidence)
	assert.Equal(t, 2, mem.Sightings)

	// Decay to zero purges the entry and emits one expiry.
	e.Update(11)
	_, ok = e.GetMemory("p1", "t")
	assert.False(t, ok)
	assert.Equal(t, 1, expired)
}

func TestDecayComposition(t *testing.T) {
	a := NewEngine(Config{DecayRate: 0.05, MemoryDuration: 1000}, nil, 1)
	b := NewEngine(Config{DecayRate: 0.05, MemoryDuration: 1000}, nil, 1)
	tgt := []Target{{ID: "t", Position: geom.Vec2{X: 1}}}
	a.CheckVision("p", geom.Vec2{}, tgt, VisionOptions{BaseRange: 10})
	b.CheckVision("p", geom.Vec2{}, tgt, VisionOptions{BaseRange: 10})

	a.Update(3)
	a.Update(4)
	b.Update(7)

	ma, _ := a.GetMemory("p", "t")
	mb, _ := b.GetMemory("p", "t")
	require.NotNil(t, ma)
	require.NotNil(t, mb)
	assert.InDelta(t, mb.Confidence, ma.Confidence, 1e-9)
}

func TestShareThreatWithAllies(t *testing.T) {
	e := newEngine()
	e.SetEnvironment(sim.WeatherClear, 12)

	e.CheckVision("scout", geom.Vec2{}, []Target{{ID: "intruder", Type: "player", Position: geom.Vec2{X: 3}}}, VisionOptions{BaseRange: 10})

	allies := []Ally{
		{ID: "near", Position: geom.Vec2{X: 5, Y: 0}},
		{ID: "far", Position: geom.Vec2{X: 500, Y: 0}},
	}
	e.ShareThreatWithAllies("scout", allies, "intruder", 50)

	mem, ok := e.GetMemory("near", "intruder")
	require.True(t, ok)
	assert.Equal(t, SourceWarning, mem.Source)

	_, ok = e.GetMemory("far", "intruder")
	assert.False(t, ok)
}

func TestSerializeRoundTrip(t *testing.T) {
	e := newEngine()
	e.SetEnvironment(sim.WeatherClear, 12)
	e.CheckVision("p1", geom.Vec2{}, []Target{{ID: "t", Type: "enemy", Position: geom.Vec2{X: 2}}}, VisionOptions{BaseRange: 10})

	snap := e.Serialize()
	restored := newEngine()
	restored.Deserialize(snap)

	mem, ok := restored.GetMemory("p1", "t")
	require.True(t, ok)
	assert.Equal(t, "enemy", mem.TargetType)
}
