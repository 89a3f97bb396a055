package table

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Planck radiation constants (SI, wavenumber form).
const (
	planckH = 6.62607015e-34 // J s
	lightC  = 2.99792458e10  // cm/s
	boltzK  = 1.380649e-23   // J/K
)

// Planck returns the Planck spectral radiance [W m^-2 sr^-1 (cm^-1)^-1] at
// wavenumber nu [cm^-1] and temperature t [K].
func Planck(t, nu float64) float64 {
	if t <= 0 || nu <= 0 {
		return 0
	}
	c1 := 2 * planckH * lightC * lightC
	c2 := planckH * lightC / boltzK
	x := c2 * nu / t
	return c1 * nu * nu * nu / math.Expm1(x) * 1e4 // cm^2 -> m^2
}

// Bright is the inverse of Planck: the brightness temperature [K] of
// radiance rad [W m^-2 sr^-1 (cm^-1)^-1] at wavenumber nu [cm^-1].
func Bright(rad, nu float64) float64 {
	if rad <= 0 || nu <= 0 {
		return 0
	}
	c1 := 2 * planckH * lightC * lightC * 1e4
	c2 := planckH * lightC / boltzK
	return c2 * nu / math.Log(1+c1*nu*nu*nu/rad)
}

// SourceTable tabulates Planck(T, nu_d) for ns temperatures linearly spaced
// between TMIN and TMAX, for each channel. Lookup is then a single linear
// interpolation instead of re-evaluating Planck's exp/expm1 in the
// innermost segment x channel loop of bandrt.
type SourceTable struct {
	NS         int
	TMin, TMax float64
	T          []float64   // ns temperature nodes
	B          [][]float64 // B[id][it], length NC x NS
}

// BuildSourceTable tabulates the Planck function for nu (length NC) over ns
// temperatures in [tmin, tmax].
func BuildSourceTable(nu []float64, ns int, tmin, tmax float64) *SourceTable {
	if ns < 2 {
		ns = 2
	}
	ts := make([]float64, ns)
	floats.Span(ts, tmin, tmax)
	st := &SourceTable{NS: ns, TMin: tmin, TMax: tmax, T: ts, B: make([][]float64, len(nu))}
	for id, n := range nu {
		row := make([]float64, ns)
		for it, t := range ts {
			row[it] = Planck(t, n)
		}
		st.B[id] = row
	}
	return st
}

// Lookup returns the tabulated Planck radiance for channel id at
// temperature t via a single linear interpolation.
func (s *SourceTable) Lookup(id int, t float64) float64 {
	if s == nil || id >= len(s.B) {
		return 0
	}
	tt := t
	if tt < s.TMin {
		tt = s.TMin
	}
	if tt > s.TMax {
		tt = s.TMax
	}
	idxf := (tt - s.TMin) / (s.TMax - s.TMin) * float64(s.NS-1)
	i0 := int(idxf)
	if i0 >= s.NS-1 {
		return s.B[id][s.NS-1]
	}
	w := idxf - float64(i0)
	row := s.B[id]
	return row[i0] + w*(row[i0+1]-row[i0])
}
