// Package raytrace implements the refraction-aware geometric ray
// integration: given an observer and a view point, it walks a
// spherical-Earth Cartesian ray, interpolating the atmosphere at each
// step and accumulating segment length, per-gas column density, and
// Curtis-Godson running pressure/temperature means, producing an LOS
// (line-of-sight) segment list for bandrt to consume.
package raytrace

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/geokit"
	"github.com/spatialmodel/raytran/rterr"
)

// Avogadro's number [molec/mol] and the universal gas constant
// [J mol^-1 K^-1], used by AirDensity.
const (
	NA = 6.02214076e23
	RI = 8.314462618
)

// AirDensity returns the air number density [molec/cm^3] at pressure p
// [hPa] and temperature T [K] via the ideal gas law.
func AirDensity(p, t float64) float64 {
	return NA * p * 100 / (RI * t) * 1e-6
}

// Segment is one midpoint sample along a line of sight.
type Segment struct {
	Z, Lon, Lat float64 // midpoint geolocation
	P, T        float64 // interpolated atmosphere state at the midpoint
	Q           []float64
	K           []float64

	DS float64 // segment length [km]

	U       []float64 // per-gas column density contributed by this segment [molec/cm^2]
	UBefore []float64 // cumulative per-gas column density before this segment, from the observer end

	// CGPBefore/CGTBefore are the Curtis-Godson running u-weighted mean
	// pressure/temperature per gas, accumulated over all segments before
	// this one.
	CGPBefore []float64
	CGTBefore []float64
}

// LOS is the ordered, observer-to-far-end segment list produced by Trace.
type LOS struct {
	Segments []Segment

	TanZ, TanLon, TanLat float64 // tangent point; NaN triple if the ray has no limb tangent
	Surface              bool    // true if the ray terminates at the ground (z<=0)
}

const (
	maxSteps      = 20000
	cosAngleFloor = 1e-4 // guards ds = raydz/|cos| near-horizontal rays
	dzRefrac      = 0.05 // km, half-spacing for the central-difference refractivity gradient
)

// Trace integrates one ray through atm, producing an
// LOS with each segment's ds <= ctl.RayDS and vertical excursion
// <= ctl.RayDZ.
func Trace(c *ctl.Ctl, atm *atmos.Atm, ray *atmos.Ray) (*LOS, error) {
	obsP := geokit.ToCartesian(ray.ObsZ, ray.ObsLon, ray.ObsLat)
	vpP := geokit.ToCartesian(ray.VPZ, ray.VPLon, ray.VPLat)
	delta := r3.Sub(vpP, obsP)
	if r3.Norm(delta) == 0 {
		return nil, rterr.New(rterr.Numerical, "observer and view point coincide")
	}
	dir := r3.Unit(delta)

	xh := obsP
	los := &LOS{}
	minZ := math.Inf(1)
	minIdx := -1
	topZ := atm.TopZ()

	for step := 0; step < maxSteps; step++ {
		rhat := geokit.Radial(xh)
		cosAngle := r3.Dot(dir, rhat)
		denom := math.Abs(cosAngle)
		if denom < cosAngleFloor {
			denom = cosAngleFloor
		}
		ds := c.RayDZ / denom
		if ds > c.RayDS {
			ds = c.RayDS
		}
		if ds <= 0 {
			ds = c.RayDS
		}

		mid := r3.Add(xh, r3.Scale(ds/2, dir))
		z, lon, lat := geokit.FromCartesian(mid)

		// Ground intersection: clip the final segment to z=0.
		groundHit := false
		if z <= 0 {
			// Find the fraction of ds that reaches z=0 by linear search on
			// the radius along this short step (the step is short enough
			// that the chord-to-arc altitude error is negligible).
			endZ, _, _ := geokit.FromCartesian(r3.Add(xh, r3.Scale(ds, dir)))
			startZ, _, _ := geokit.FromCartesian(xh)
			if endZ <= 0 && startZ > 0 {
				frac := startZ / (startZ - endZ)
				ds = ds * frac
				mid = r3.Add(xh, r3.Scale(ds/2, dir))
				z, lon, lat = geokit.FromCartesian(mid)
				groundHit = true
			} else if startZ <= 0 {
				// Already on/under the ground at the start of this step:
				// stop without adding a degenerate segment.
				break
			}
		}

		lvl := atm.InterpAt(z)

		if c.Refrac {
			dir = bend(c, atm, xh, dir, z, ds)
		}

		seg := buildSegment(atm, los.Segments, lvl, z, lon, lat, ds)
		los.Segments = append(los.Segments, seg)

		if z < minZ {
			minZ = z
			minIdx = len(los.Segments) - 1
		}

		xh = r3.Add(xh, r3.Scale(ds, dir))

		if groundHit {
			los.Surface = true
			break
		}
		if z > topZ && cosAngle > 0 {
			break
		}
	}

	setTangent(los, minIdx)
	return los, nil
}

// buildSegment interpolates the atmosphere at the segment midpoint and
// accumulates the per-gas column density and Curtis-Godson running means
// from the previous segment, if any.
func buildSegment(atm *atmos.Atm, prev []Segment, lvl atmos.Level, z, lon, lat, ds float64) Segment {
	ng := len(lvl.Q)
	seg := Segment{
		Z: z, Lon: lon, Lat: lat,
		P: lvl.P, T: lvl.T,
		Q: append([]float64(nil), lvl.Q...),
		K: append([]float64(nil), lvl.K...),
		DS: ds,
		U:       make([]float64, ng),
		UBefore: make([]float64, ng),
		CGPBefore: make([]float64, ng),
		CGTBefore: make([]float64, ng),
	}
	nAir := AirDensity(lvl.P, lvl.T)
	for g := 0; g < ng; g++ {
		seg.U[g] = lvl.Q[g] * nAir * ds * 1e5 // km -> cm
	}
	if len(prev) > 0 {
		p := &prev[len(prev)-1]
		for g := 0; g < ng; g++ {
			uBefore := p.UBefore[g] + p.U[g]
			seg.UBefore[g] = uBefore
			if uBefore > 0 {
				pwBefore := p.CGPBefore[g]*p.UBefore[g] + p.P*p.U[g]
				twBefore := p.CGTBefore[g]*p.UBefore[g] + p.T*p.U[g]
				seg.CGPBefore[g] = pwBefore / uBefore
				seg.CGTBefore[g] = twBefore / uBefore
			} else {
				seg.CGPBefore[g] = p.P
				seg.CGTBefore[g] = p.T
			}
		}
	}
	return seg
}

// bend applies a Snell-like direction update from the local refractivity
// gradient, computed as a central difference of geokit.Refractivity at two
// neighboring altitudes. The bending rotates the direction
// in the plane spanned by the current direction and the local vertical,
// toward the side of increasing refractivity (lower altitude), matching
// the concave-toward-Earth curvature of an IR ray in a density-stratified
// atmosphere.
func bend(c *ctl.Ctl, atm *atmos.Atm, xh r3.Vec, dir r3.Vec, z, ds float64) r3.Vec {
	lvlLo := atm.InterpAt(z - dzRefrac)
	lvlHi := atm.InterpAt(z + dzRefrac)
	nLo := geokit.Refractivity(lvlLo.P, lvlLo.T)
	nHi := geokit.Refractivity(lvlHi.P, lvlHi.T)
	dndz := (nHi - nLo) / (2 * dzRefrac)

	rhat := geokit.Radial(xh)
	cosAngle := r3.Dot(dir, rhat)
	sinTheta := math.Sqrt(math.Max(0, 1-cosAngle*cosAngle))
	if sinTheta == 0 {
		return dir
	}
	dtheta := dndz * ds * sinTheta

	perp := r3.Sub(rhat, r3.Scale(cosAngle, dir))
	if r3.Norm(perp) == 0 {
		return dir
	}
	perp = r3.Unit(perp)
	newDir := r3.Add(dir, r3.Scale(dtheta, perp))
	return r3.Unit(newDir)
}

func setTangent(los *LOS, minIdx int) {
	n := len(los.Segments)
	if minIdx <= 0 || minIdx >= n-1 {
		// The minimum altitude is at (or degenerately near) an endpoint:
		// the path never turned around, so there is no limb tangent.
		los.TanZ, los.TanLon, los.TanLat = math.NaN(), math.NaN(), math.NaN()
		return
	}
	s := los.Segments[minIdx]
	los.TanZ, los.TanLon, los.TanLat = s.Z, s.Lon, s.Lat
}
