package atmos

import (
	"math"
	"time"
)

// Ray is one observation geometry plus its per-channel radiance and
// transmittance.
type Ray struct {
	Time time.Time

	ObsZ, ObsLon, ObsLat float64 // observer position
	VPZ, VPLon, VPLat    float64 // view point
	TPZ, TPLon, TPLat    float64 // tangent point; NaN triple if nadir (no limb tangent)

	Rad []float64 // per-channel radiance, length NC
	Tau []float64 // per-channel ray transmittance, length NC
}

// NaNTangent reports whether the ray carries no limb tangent point.
func (r *Ray) NaNTangent() bool {
	return math.IsNaN(r.TPZ) && math.IsNaN(r.TPLon) && math.IsNaN(r.TPLat)
}

// ClearTangent sets the tangent point to the (NaN,NaN,NaN) "no limb
// tangent" sentinel.
func (r *Ray) ClearTangent() {
	r.TPZ, r.TPLon, r.TPLat = math.NaN(), math.NaN(), math.NaN()
}

// Obs is an ordered sequence of rays.
type Obs struct {
	Rays []Ray
}

// NewRays allocates n rays with Rad/Tau sized for nc channels.
func NewRays(n, nc int) []Ray {
	rays := make([]Ray, n)
	for i := range rays {
		rays[i].Rad = make([]float64, nc)
		rays[i].Tau = make([]float64, nc)
	}
	return rays
}

// Clone deep-copies obs, used by jacobian and retrieval whenever a trial
// forward-model evaluation must not disturb the caller's baseline rays.
func (o *Obs) Clone() *Obs {
	out := &Obs{Rays: make([]Ray, len(o.Rays))}
	for i, r := range o.Rays {
		out.Rays[i] = Ray{
			Time:   r.Time,
			ObsZ:   r.ObsZ, ObsLon: r.ObsLon, ObsLat: r.ObsLat,
			VPZ:    r.VPZ, VPLon: r.VPLon, VPLat: r.VPLat,
			TPZ:    r.TPZ, TPLon: r.TPLon, TPLat: r.TPLat,
			Rad: append([]float64(nil), r.Rad...),
			Tau: append([]float64(nil), r.Tau...),
		}
	}
	return out
}
