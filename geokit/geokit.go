// Package geokit provides the small set of geometric and physical
// primitives shared by the rest of raytran: spherical-Earth geodetic<->ECEF
// conversion, 3-D vector helpers (via gonum's r3 package), the IR
// refractivity formula, and a solar-zenith-angle helper. None of these are
// core retrieval logic on their own, but every other package depends on
// them.
package geokit

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// RE is the mean Earth radius in km used for the spherical-Earth geometry
// throughout raytran.
const RE = 6371.0

// Deg2Rad and Rad2Deg are the angle-unit conversions used pervasively when
// crossing the geodetic (deg) / Cartesian (rad internally) boundary.
const (
	Deg2Rad = math.Pi / 180.0
	Rad2Deg = 180.0 / math.Pi
)

// ToCartesian converts a geodetic point (altitude z [km], longitude and
// latitude [deg]) on a spherical Earth of radius RE to an ECEF-like
// Cartesian vector in km.
func ToCartesian(z, lon, lat float64) r3.Vec {
	r := RE + z
	lonR := lon * Deg2Rad
	latR := lat * Deg2Rad
	cosLat := math.Cos(latR)
	return r3.Vec{
		X: r * cosLat * math.Cos(lonR),
		Y: r * cosLat * math.Sin(lonR),
		Z: r * math.Sin(latR),
	}
}

// FromCartesian is the inverse of ToCartesian: given a point in the same
// spherical-Earth Cartesian frame, it recovers altitude [km], longitude and
// latitude [deg].
func FromCartesian(p r3.Vec) (z, lon, lat float64) {
	r := r3.Norm(p)
	lat = math.Asin(clamp(p.Z/r, -1, 1)) * Rad2Deg
	lon = math.Atan2(p.Y, p.X) * Rad2Deg
	z = r - RE
	return z, lon, lat
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Radial returns the local outward radial unit vector at p.
func Radial(p r3.Vec) r3.Vec { return r3.Unit(p) }

// Refractivity returns n-1 for air at pressure p [hPa] and temperature T
// [K], per the IR scale-height refractivity approximation
// n-1 = 7.753e-5 * p/T.
func Refractivity(p, t float64) float64 {
	const k = 7.753e-5
	return k * p / t
}

// TSUN is the effective solar brightness temperature [K] used for the
// solar-reflection surface term.
const TSUN = 5780.0

// OmegaSun is the solid angle subtended by the sun [sr], used for the
// solar-reflection surface term.
const OmegaSun = 6.8e-5

// SolarZenith computes the solar zenith angle [rad] at the given UTC time,
// longitude and latitude [deg], using the standard low-precision NOAA
// solar-position formulas (declination + equation of time from day-of-year,
// hour angle from local solar time). This is a primitive helper, not part
// of the core forward-model/retrieval design; bandrt's solar surface term
// only calls it when Ctl.SfSZA == AutoSZA.
func SolarZenith(t time.Time, lon, lat float64) float64 {
	utc := t.UTC()
	doy := float64(utc.YearDay())
	gamma := 2 * math.Pi / 365.0 * (doy - 1 + (float64(utc.Hour())-12)/24)

	// Equation of time [minutes] and solar declination [rad], Spencer (1971)
	// as popularized by the NOAA solar calculator.
	eqTime := 229.18 * (0.000075 + 0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
	decl := 0.006918 - 0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	timeOffset := eqTime + 4*lon
	tst := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60 + timeOffset
	haDeg := tst/4 - 180
	ha := haDeg * Deg2Rad

	latR := lat * Deg2Rad
	cosZen := math.Sin(latR)*math.Sin(decl) + math.Cos(latR)*math.Cos(decl)*math.Cos(ha)
	return math.Acos(clamp(cosZen, -1, 1))
}

// AutoSZA is the Ctl.SfSZA sentinel meaning "compute from time/lon/lat".
const AutoSZA = -999.0
