package compose

import (
	"math"
	"math/rand"
)

// DemoBands generates synthetic galaxy/starfield bands so the compositor can
// be exercised without archive access: an exponential disk with sinusoidal
// structure per band, plus a sprinkle of stars with exponentially distributed
// brightness.
func DemoBands(size int, seed int64) (r, g, b [][]float64) {
	rng := rand.New(rand.NewSource(seed))

	r = newBand(size)
	g = newBand(size)
	b = newBand(size)

	half := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - half
			dy := float64(y) - half
			rad := math.Hypot(dx, dy)

			r[y][x] = math.Exp(-rad/100) * (1 + 0.5*math.Sin(0.1*dx)*math.Sin(0.1*dy))
			g[y][x] = math.Exp(-rad/120) * (1 + 0.3*math.Sin(0.08*dx)*math.Sin(0.12*dy))
			b[y][x] = math.Exp(-rad/80) * (1 + 0.4*math.Sin(0.12*dx)*math.Sin(0.09*dy))
		}
	}

	for i := 0; i < 50; i++ {
		cx := float64(rng.Intn(size))
		cy := float64(rng.Intn(size))
		brightness := rng.ExpFloat64() * 100

		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				d := math.Hypot(float64(x)-cx, float64(y)-cy)
				if d > 12 {
					continue
				}
				glow := brightness * math.Exp(-d/2)
				r[y][x] += glow
				g[y][x] += glow * 0.8
				b[y][x] += glow * 0.6
			}
		}
	}
	return r, g, b
}

func newBand(size int) [][]float64 {
	band := make([][]float64, size)
	for y := range band {
		band[y] = make([]float64, size)
	}
	return band
}
