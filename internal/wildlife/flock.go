package wildlife

import "github.com/emberhollow/aicore/internal/geom"

// FlockConfig weights the three boids forces independently.
type FlockConfig struct {
	Radius           float64 `yaml:"radius"`
	SeparationDist   float64 `yaml:"separation_dist"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
}

// DefaultFlockConfig returns the shipped flocking tuning.
func DefaultFlockConfig() FlockConfig {
	return FlockConfig{
		Radius:           12,
		SeparationDist:   2,
		SeparationWeight: 1.5,
		AlignmentWeight:  1.0,
		CohesionWeight:   1.0,
	}
}

// flockVector sums separation, alignment and cohesion over neighbors within
// the flocking radius. The result offsets the herd's shared target for this
// member. Returns zero when the animal has no neighbors in range.
func flockVector(a *Animal, neighbors []*Animal, cfg FlockConfig) geom.Vec2 {
	var separation, alignment, centroid geom.Vec2
	count := 0
	for _, other := range neighbors {
		if other.ID == a.ID || !other.Alive {
			continue
		}
		d := a.Position.Dist(other.Position)
		if d > cfg.Radius {
			continue
		}
		count++
		if d < cfg.SeparationDist && d > 0 {
			// Repulsion scaled by closeness.
			away := a.Position.Sub(other.Position).Normalized()
			separation = separation.Add(away.Scale(cfg.SeparationDist - d))
		}
		alignment = alignment.Add(geom.FromAngle(other.Facing))
		centroid = centroid.Add(other.Position)
	}
	if count == 0 {
		return geom.Vec2{}
	}

	alignment = alignment.Scale(1 / float64(count))
	cohesion := centroid.Scale(1 / float64(count)).Sub(a.Position)

	return separation.Scale(cfg.SeparationWeight).
		Add(alignment.Scale(cfg.AlignmentWeight)).
		Add(cohesion.Scale(cfg.CohesionWeight))
}
