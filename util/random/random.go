package random

import (
	"log"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

// add new distributions here
var uniform *distuv.Uniform
var uniformCount int

// Uniform draws from [0, 1) using the package uniform source.
func Uniform() float64 {
	uniformCount++
	return uniform.Rand()
}

// IntBetween draws a uniformly random integer in [min, max); with an empty
// range it returns min.
func IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(Uniform()*float64(max-min))
}

func PrintCount() {
	log.Printf("random number generator call count (indicates determinism) -> uniform: %v", uniformCount)
}

func Initialize(seed uint64) {
	uniformCount = 0
	var uniformSource rand.Source = rand.NewSource(seed)
	uniform = &distuv.Uniform{Min: 0, Max: 1, Src: uniformSource}

	// init new distributions here
}

// NewSource returns a fresh seeded source for a consumer that owns its own
// stream, such as the simulation RNG.
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}

// GetDist builds a distribution by config name.
func GetDist(distName string, params []float64, source rand.Source) interfaces.IRNG {
	switch distName {
	case "norm":
		return &distuv.Normal{Mu: params[0], Sigma: params[1], Src: source}
	case "exp":
		return &distuv.Exponential{Rate: params[0], Src: source}
	case "uniform":
		return &distuv.Uniform{Min: params[0], Max: params[1], Src: source}
	case "lognorm":
		return &distuv.LogNormal{Mu: params[0], Sigma: params[1], Src: source}
	default:
		log.Panic("distribution " + distName + " not found")
		return nil
	}
}
