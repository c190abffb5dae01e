package pointcloud

import (
	"math/rand"
	"time"
)

// Generator synthesizes uniformly distributed sample batches. Not safe
// for concurrent use; callers serialize access.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded from the current time.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator returns a generator with a fixed seed, for
// reproducible batches.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Batch draws n samples with each coordinate independent and uniform
// in [0, 1).
func (g *Generator) Batch(n int) []Sample {
	if n <= 0 {
		return []Sample{}
	}

	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{
			X: g.rng.Float64(),
			Y: g.rng.Float64(),
			Z: g.rng.Float64(),
		}
	}

	return samples
}
