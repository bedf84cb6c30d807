package main

import (
	"math"
	"math/rand"
)

const (
	perlinSize    = 4095
	perlinOctaves = 4
	perlinFalloff = 0.5
)

// Perlin is 1D smooth value noise with the octave layout of the Processing
// noise() function. Output is in [0,1).
type Perlin struct {
	table [perlinSize + 1]float64
}

func NewPerlin(seed int64) *Perlin {
	r := rand.New(rand.NewSource(seed))
	p := &Perlin{}
	for i := range p.table {
		p.table[i] = r.Float64()
	}
	return p
}

func scaledCosine(i float64) float64 {
	return 0.5 * (1 - math.Cos(i*math.Pi))
}

func (p *Perlin) Noise(x float64) float64 {
	if x < 0 {
		x = -x
	}
	xi := int(x)
	xf := x - float64(xi)

	var r float64
	ampl := 0.5
	for o := 0; o < perlinOctaves; o++ {
		rxf := scaledCosine(xf)
		n1 := p.table[xi&perlinSize]
		n1 += rxf * (p.table[(xi+1)&perlinSize] - n1)
		r += n1 * ampl
		ampl *= perlinFalloff

		xi <<= 1
		xf *= 2
		if xf >= 1 {
			xi++
			xf--
		}
	}
	return r
}
