package generator

import (
	"math"
)

// Compute the zeta constant needed for the distribution, incrementally for
// a distribution that has n items now but used to have st items.
func zetaStatic(st, n uint64, theta, initialSum float64) float64 {
	sum := initialSum
	for i := st; i < n; i++ {
		sum += 1 / math.Pow(float64(i+1), theta)
	}
	return sum
}

// ZipfianGenerator produces indices in [0, items) skewed toward low values
// according to a zipfian distribution with parameter theta. theta == 0
// degenerates to uniform selection; larger theta concentrates probability
// mass on index 0, 1, and so on. Popular items are clustered at the low end
// of the range, which is exactly what a contention hot-spot workload wants.
//
// The algorithm is from "Quickly Generating Billion-Record Synthetic
// Databases", Jim Gray et al, SIGMOD 1994. Be aware that constructing an
// instance computes a zeta sum over the whole item count, which takes a
// while for very large ranges.
//
// Each instance draws from its own Rand; instances are not safe for
// concurrent use and are meant to be owned by one worker.
type ZipfianGenerator struct {
	// Number of items.
	items uint64
	// The zipfian constant to use.
	theta float64
	// Computed parameters for generating the distribution.
	alpha, zetan, eta, zeta2theta float64
	rand                          *Rand
}

// NewZipfianGenerator creates a zipfian generator for items in [0, items)
// with the given constant theta, drawing from rand.
func NewZipfianGenerator(items uint64, theta float64, rand *Rand) *ZipfianGenerator {
	zeta2theta := zetaStatic(0, 2, theta, 0)
	zetan := zetaStatic(0, items, theta, 0)
	object := &ZipfianGenerator{
		items:      items,
		theta:      theta,
		alpha:      1.0 / (1.0 - theta),
		zetan:      zetan,
		eta:        (1 - math.Pow(2.0/float64(items), 1-theta)) / (1 - zeta2theta/zetan),
		zeta2theta: zeta2theta,
		rand:       rand,
	}
	object.Next()
	return object
}

// Next generates the next item, skewed toward lower values; 0 is the most
// popular, 1 the next most popular, and so on.
func (self *ZipfianGenerator) Next() uint64 {
	if self.theta == 0 {
		// Uniform; skip the power computations entirely.
		return uint64(self.rand.NextFloat64() * float64(self.items))
	}
	u := self.rand.NextFloat64()
	uz := u * self.zetan
	if uz < 1.0 {
		return 0
	}
	if uz < 1.0+math.Pow(0.5, self.theta) {
		return 1
	}
	ret := uint64(float64(self.items) * math.Pow(self.eta*u-self.eta+1.0, self.alpha))
	if ret >= self.items {
		ret = self.items - 1
	}
	return ret
}

// Items returns the size of the range this generator draws from.
func (self *ZipfianGenerator) Items() uint64 {
	return self.items
}
