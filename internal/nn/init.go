package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Initializer fills a freshly allocated weight matrix.
type Initializer interface {
	// Init fills m. fanIn and fanOut are the layer's input and output widths.
	Init(m *mat.Dense, fanIn, fanOut int, rng *rand.Rand)

	// Name identifies the initializer in saved topologies.
	Name() string
}

// NewRand returns the deterministic generator used for weight
// initialization. The same seed always yields the same weights.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xda942042e4dd58b5))
}

// RandomNormal draws weights from N(Mean, Std²).
//
// The zero value uses Std = 0.05, the usual default for dense layers.
type RandomNormal struct {
	Mean float64
	Std  float64
}

// Init implements Initializer.
func (r RandomNormal) Init(m *mat.Dense, _, _ int, rng *rand.Rand) {
	std := r.Std
	if std == 0 {
		std = 0.05
	}
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = r.Mean + std*rng.NormFloat64()
	}
}

// Name implements Initializer.
func (r RandomNormal) Name() string { return "random_normal" }

// GlorotUniform (Xavier) initialization.
//
// Draws from U(-limit, limit) with limit = sqrt(6 / (fan_in + fan_out)),
// which keeps activation variance roughly constant across layers.
type GlorotUniform struct{}

// Init implements Initializer.
func (GlorotUniform) Init(m *mat.Dense, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = (rng.Float64()*2.0 - 1.0) * limit
	}
}

// Name implements Initializer.
func (GlorotUniform) Name() string { return "glorot_uniform" }

// Zeros fills with zeros. Used for biases.
type Zeros struct{}

// Init implements Initializer.
func (Zeros) Init(m *mat.Dense, _, _ int, _ *rand.Rand) {
	m.Zero()
}

// Name implements Initializer.
func (Zeros) Name() string { return "zeros" }
