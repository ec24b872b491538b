package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{4 * math.Pi, 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormalizeAngle(c.in), 1e-9, "in=%v", c.in)
	}
}

func TestNormalizedZeroVector(t *testing.T) {
	assert.Equal(t, Vec2{}, Vec2{}.Normalized())
	n := Vec2{3, 4}.Normalized()
	assert.InDelta(t, 1.0, n.Len(), 1e-9)
}

func TestBearing(t *testing.T) {
	assert.InDelta(t, 0, Bearing(Vec2{0, 0}, Vec2{5, 0}), 1e-9)
	assert.InDelta(t, math.Pi/2, Bearing(Vec2{0, 0}, Vec2{0, 5}), 1e-9)
}
