// Package continua implements the analytic CO2, H2O, N2, and O2 continuum
// absorption coefficients. Each is a pure function of (nu, p, T) — and,
// for H2O, the local mixing ratio q — returning an absorption coefficient
// beta [km^-1] added to the segment optical depth only when the
// corresponding Ctl.Ctm* flag is set (bandrt enforces the flag gating;
// this package only computes the coefficient).
//
// The functional forms below follow the structure of the MIPAS-heritage
// continuum literature (CO2 line-wing chi-factor centered on the CO2
// bands, N2/O2 temperature-dependent collision-induced continua, H2O
// self+foreign components), but the numeric coefficients are illustrative
// fits, not transcribed from a specific paper.
package continua

import "math"

// refP and refT are the standard reference conditions the pressure- and
// temperature-scaling laws below are normalized against.
const (
	refP = 1013.25 // hPa
	refT = 296.0   // K
)

// co2Bands are the approximate CO2 absorption band centers [cm^-1] the
// chi-factor line-wing correction is centered on.
var co2Bands = [...]float64{667.5, 961.0, 1064.0, 2349.0}

const co2BandWidth = 60.0 // cm^-1, half-width of the chi-factor envelope

// CO2 returns the CO2 line-wing chi-factor continuum absorption
// coefficient [km^-1] at wavenumber nu, pressure p [hPa], temperature T
// [K]. The coefficient decays with distance from the nearest CO2 band
// center and scales as p^2/T (foreign-continuum-like density scaling).
func CO2(nu, p, t float64) float64 {
	minD := math.Inf(1)
	for _, b := range co2Bands {
		d := math.Abs(nu - b)
		if d < minD {
			minD = d
		}
	}
	shape := math.Exp(-(minD * minD) / (2 * co2BandWidth * co2BandWidth))
	const k0 = 1.2e-6 // km^-1 at reference p,T, band center
	scale := (p / refP) * (p / refP) * (refT / t)
	return k0 * shape * scale
}

// h2oShape describes the broad water-vapor continuum envelope shared by
// the self and foreign components, strongest in the 1200-1700 cm^-1 and
// >2200 cm^-1 windows.
func h2oShape(nu float64) float64 {
	// Two overlapping Lorentzian-like lobes approximate the self/foreign
	// continuum's broad spectral envelope without claiming to be an exact
	// fit to any specific absorption model.
	lobe := func(center, width float64) float64 {
		d := (nu - center) / width
		return 1.0 / (1.0 + d*d)
	}
	return 0.3*lobe(500, 300) + lobe(1500, 500) + 0.6*lobe(2400, 400)
}

// H2OSelf returns the water-vapor self-broadened continuum absorption
// coefficient [km^-1]: quadratic in the partial pressure of water vapor
// (q*p) and strongly temperature dependent (e^(1800(1/T - 1/Tref))), the
// canonical self-continuum temperature dependence.
func H2OSelf(nu, p, t, q float64) float64 {
	const k0 = 4.0e-5 // km^-1 at reference conditions, q=1
	pH2O := q * p
	tempDep := math.Exp(1800.0 * (1.0/t - 1.0/refT))
	return k0 * h2oShape(nu) * (pH2O / refP) * (pH2O / refP) * tempDep
}

// H2OForeign returns the water-vapor foreign-broadened continuum
// absorption coefficient [km^-1]: linear in both the water-vapor partial
// pressure and the foreign (dry air) partial pressure, weak temperature
// dependence.
func H2OForeign(nu, p, t, q float64) float64 {
	const k0 = 6.0e-7 // km^-1 at reference conditions
	pH2O := q * p
	pDry := (1 - q) * p
	tempDep := math.Sqrt(refT / t)
	return k0 * h2oShape(nu) * (pH2O / refP) * (pDry / refP) * tempDep
}

// H2O is the sum of the self and foreign continuum components.
func H2O(nu, p, t, q float64) float64 {
	return H2OSelf(nu, p, t, q) + H2OForeign(nu, p, t, q)
}

// n2Shape / o2Shape are broad collision-induced absorption envelopes
// centered respectively on the N2 (~2350 cm^-1) and O2 (~1550 cm^-1
// fundamental) CIA bands; no O2 overtone band is modeled.
func n2Shape(nu float64) float64 {
	d := (nu - 2350.0) / 150.0
	return math.Exp(-d * d / 2)
}

func o2Shape(nu float64) float64 {
	d := (nu - 1550.0) / 200.0
	return math.Exp(-d*d/2) * 0.5
}

// N2 returns the N2 collision-induced continuum absorption coefficient
// [km^-1]: quadratic in pressure (binary collisions), decreasing with
// temperature as collision-induced dipole continua do.
func N2(nu, p, t float64) float64 {
	const k0 = 8.0e-7
	return k0 * n2Shape(nu) * (p / refP) * (p / refP) * math.Pow(refT/t, 1.5)
}

// O2 returns the O2 collision-induced continuum absorption coefficient
// [km^-1], same functional form as N2 with O2's weaker band strength.
func O2(nu, p, t float64) float64 {
	const k0 = 3.0e-7
	return k0 * o2Shape(nu) * (p / refP) * (p / refP) * math.Pow(refT/t, 1.5)
}
