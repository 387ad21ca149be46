package noise

import "math"

// Lattice primes from FastNoise. All arithmetic is int32 and wraps.
const (
	xPrime int32 = 1619
	yPrime int32 = 31337
	zPrime int32 = 6971
)

func hash3(seed, x, y, z int32) int32 {
	h := seed
	h ^= xPrime * x
	h ^= yPrime * y
	h ^= zPrime * z

	h = h * h * h * 60493
	return (h >> 13) ^ h
}

// valCoord3 returns a lattice value in [-1, 1].
func valCoord3(seed, x, y, z int32) float64 {
	n := seed
	n ^= xPrime * x
	n ^= yPrime * y
	n ^= zPrime * z

	return float64(n*n*n*60493) / 2147483648.0
}

// latticeVec3 returns a unit direction for a lattice cell.
func latticeVec3(seed, x, y, z int32) (float64, float64, float64) {
	h := uint32(hash3(seed, x, y, z))
	h2 := uint32(hash3(seed^0x5bd1e995, x, y, z))

	// Spherical coordinates from two hashes give an even distribution.
	cosTheta := float64(h&0xffff)/32767.5 - 1
	phi := float64(h2&0xffff) / 65536.0 * 2 * math.Pi
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	return sinTheta * math.Cos(phi), sinTheta * math.Sin(phi), cosTheta
}

func fastFloor(f float64) int32 { return int32(math.Floor(f)) }

func fastRound(f float64) int32 {
	if f >= 0 {
		return int32(f + 0.5)
	}
	return int32(f - 0.5)
}

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

func interpQuintic(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func cubicLerp(a, b, c, d, t float64) float64 {
	p := (d - c) - (a - b)
	return t*t*t*p + t*t*((a-b)-p) + t*(c-a) + b
}
