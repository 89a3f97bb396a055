// Package bandrt implements the per-segment transmittance and source
// evaluation (EGA/CGA + continua + Planck source) and the Schwarzschild-
// type ray integration with surface reflection.
package bandrt

import (
	"math"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/continua"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/geokit"
	"github.com/spatialmodel/raytran/raytrace"
	"github.com/spatialmodel/raytran/rterr"
	"github.com/spatialmodel/raytran/table"
)

// nearestIndex returns the index of the grid value closest to nu, or -1 if
// grid is empty. Used to map a channel's centroid wavenumber onto the
// coarser cloud/surface grids (Ctl.CLNu[i]/SFNu[i]).
func nearestIndex(grid []float64, nu float64) int {
	best, bd := -1, math.Inf(1)
	for i, g := range grid {
		d := math.Abs(g - nu)
		if d < bd {
			bd = d
			best = i
		}
	}
	return best
}

// continuumOpticalDepth returns exp(-ds * sum of the enabled continua).
func continuumOpticalDepth(c *ctl.Ctl, nu, p, t float64, q []float64, ds float64) float64 {
	var beta float64
	if c.CtmCO2 {
		beta += continua.CO2(nu, p, t)
	}
	if c.CtmH2O {
		// The water-vapor mixing ratio is the first gas whose Ctl.Emitter
		// name is "H2O"; if no emitter is named "H2O", gasIndex returns -1
		// and the H2O continuum is evaluated with a zero mixing ratio.
		qh2o := 0.0
		if idx := gasIndex(c, "H2O"); idx >= 0 && idx < len(q) {
			qh2o = q[idx]
		}
		beta += continua.H2O(nu, p, t, qh2o)
	}
	if c.CtmN2 {
		beta += continua.N2(nu, p, t)
	}
	if c.CtmO2 {
		beta += continua.O2(nu, p, t)
	}
	return math.Exp(-ds * beta)
}

func gasIndex(c *ctl.Ctl, name string) int {
	for i, e := range c.Emitter {
		if e == name {
			return i
		}
	}
	return -1
}

// extinctionOpticalDepth returns exp(-ds*(k_window + cloud extinction)),
// adding the cloud-grid extinction only when the segment altitude lies
// within [atm.CLZ, atm.CLZ+atm.CLDZ].
func extinctionOpticalDepth(c *ctl.Ctl, atm *atmos.Atm, seg *raytrace.Segment, d int) float64 {
	k := 0.0
	if w := c.Window[d]; w >= 0 && w < len(seg.K) {
		k = seg.K[w]
	}
	if seg.Z >= atm.CLZ && seg.Z <= atm.CLZ+atm.CLDZ && len(atm.CLK) > 0 {
		if ci := nearestIndex(c.CLNu, c.Nu[d]); ci >= 0 && ci < len(atm.CLK) {
			k += atm.CLK[ci]
		}
	}
	return math.Exp(-seg.DS * k)
}

// segmentEpsSrc computes eps_seg[d] and src_seg[d] for one segment, over
// all nd channels, using the configured forward model (EGA/CGA) for the
// gas transmittance.
func segmentEpsSrc(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, seg *raytrace.Segment) (eps, src []float64, err error) {
	nc := c.NC
	eps = make([]float64, nc)
	src = make([]float64, nc)
	for d := 0; d < nc; d++ {
		var tauGas float64
		switch c.Forward {
		case ctl.EGA:
			tauGas, err = egaTransmittance(tbl, seg, d, c.NG)
		case ctl.CGA:
			tauGas, err = cgaTransmittance(tbl, seg, d, c.NG)
		default:
			return nil, nil, rterr.New(rterr.Config, "unsupported forward model %v for internal bandrt", c.Forward)
		}
		if err != nil {
			return nil, nil, err
		}
		tauCtm := continuumOpticalDepth(c, c.Nu[d], seg.P, seg.T, seg.Q, seg.DS)
		tauExt := extinctionOpticalDepth(c, atm, seg, d)
		eps[d] = 1 - tauGas*tauCtm*tauExt
		if eps[d] < 0 {
			eps[d] = 0
		}
		if eps[d] > 1 {
			eps[d] = 1
		}
		src[d] = tbl.Source.Lookup(d, seg.T)
	}
	return eps, src, nil
}

// SurfaceDownward computes the downward radiance at the surface used by the
// downward-reflection surface term: a second ray from the surface to
// zenith, integrated the same way as the primary ray.
func SurfaceDownward(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, surfaceLon, surfaceLat float64) ([]float64, error) {
	down := &atmos.Ray{
		ObsZ: 0, ObsLon: surfaceLon, ObsLat: surfaceLat,
		VPZ: atm.TopZ(), VPLon: surfaceLon, VPLat: surfaceLat,
	}
	los, err := raytrace.Trace(c, atm, down)
	if err != nil {
		return nil, err
	}
	rad, _, err := integrateLOS(c, tbl, atm, los, down)
	return rad, err
}

// RE is re-exported for callers that need the spherical-Earth radius
// without importing geokit directly.
const RE = geokit.RE
