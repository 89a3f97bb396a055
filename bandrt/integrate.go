package bandrt

import (
	"math"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/geokit"
	"github.com/spatialmodel/raytran/raytrace"
	"github.com/spatialmodel/raytran/table"
)

// Integrate performs the Schwarzschild-type emission integration along
// los, combined with the single surface-reflection term when the ray hits
// the ground, and returns the per-channel outgoing radiance and ray
// transmittance.
func Integrate(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, los *raytrace.LOS, ray *atmos.Ray) (rad, tau []float64, err error) {
	rad = make([]float64, c.NC)
	tau = make([]float64, c.NC)
	for d := range tau {
		tau[d] = 1
	}

	if los.Surface && c.SfType != ctl.SurfaceNone {
		if err := applySurfaceTerm(c, tbl, atm, ray, rad, tau); err != nil {
			return nil, nil, err
		}
	}

	return accumulateSegments(c, tbl, atm, los, rad, tau)
}

func integrateLOS(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, los *raytrace.LOS, ray *atmos.Ray) (rad, tau []float64, err error) {
	return Integrate(c, tbl, atm, los, ray)
}

// accumulateSegments runs the front-to-back (far end to observer)
// integration loop on top of the initial rad/tau (which already hold any
// surface term).
func accumulateSegments(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, los *raytrace.LOS, rad, tau []float64) ([]float64, []float64, error) {
	for ip := len(los.Segments) - 1; ip >= 0; ip-- {
		seg := &los.Segments[ip]
		eps, src, err := segmentEpsSrc(c, tbl, atm, seg)
		if err != nil {
			return nil, nil, err
		}
		for d := 0; d < c.NC; d++ {
			rad[d] += tau[d] * eps[d] * src[d]
			tau[d] *= (1 - eps[d])
		}
	}
	return rad, tau, nil
}

func applySurfaceTerm(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, ray *atmos.Ray, rad, tau []float64) error {
	var down []float64
	if c.SfType == ctl.SurfaceDownward {
		var err error
		down, err = SurfaceDownward(c, tbl, atm, ray.VPLon, ray.VPLat)
		if err != nil {
			return err
		}
	}

	sza := c.SfSZA
	if sza == geokit.AutoSZA {
		sza = geokit.SolarZenith(ray.Time, ray.VPLon, ray.VPLat) * geokit.Rad2Deg
	}
	szaR := sza * geokit.Deg2Rad

	for d := 0; d < c.NC; d++ {
		eps := surfaceEmissivity(c, atm, d)
		srcSf := tbl.Source.Lookup(d, atm.SFT)
		rad[d] += tau[d] * eps * srcSf

		var reflected float64
		switch c.SfType {
		case ctl.SurfaceDownward:
			if down != nil {
				reflected = down[d]
			}
		case ctl.SurfaceSolar:
			reflected = table.Planck(geokit.TSUN, c.Nu[d]) * math.Cos(szaR) * geokit.OmegaSun
		}
		rad[d] += tau[d] * (1 - eps) * reflected
		tau[d] *= (1 - eps)
	}
	return nil
}

func surfaceEmissivity(c *ctl.Ctl, atm *atmos.Atm, d int) float64 {
	idx := nearestIndex(c.SFNu, c.Nu[d])
	if idx >= 0 && idx < len(atm.SFEPS) {
		return atm.SFEPS[idx]
	}
	return 0
}
