package bandrt

import (
	"github.com/spatialmodel/raytran/raytrace"
	"github.com/spatialmodel/raytran/table"
)

// epsGuardTau turns a pair of bracketing emissivities into a segment
// transmittance, guarding the epsilon0 -> 1 singularity: once eps0 reaches
// the guard value the ratio (1-eps1)/(1-eps0) is not evaluated and tau is
// 0, so the segment is treated as opaque for that gas instead of dividing
// by a vanishing 1-eps0.
func epsGuardTau(eps0, eps1 float64) float64 {
	const guard = 1 - 1e-9
	if eps0 >= guard {
		return 0
	}
	tau := (1 - eps1) / (1 - eps0)
	if tau < 0 {
		return 0
	}
	if tau > 1 {
		return 1
	}
	return tau
}

// egaTransmittance computes the Emissivity Growth Approximation
// per-channel gas transmittance of one segment as the product, over all
// ng gases, of the incremental-emissivity ratio (1-eps1)/(1-eps0) at the
// segment's own (p,T).
func egaTransmittance(tbl *table.Tbl, seg *raytrace.Segment, d, ng int) (float64, error) {
	tau := 1.0
	for g := 0; g < ng; g++ {
		u0 := seg.UBefore[g]
		u1 := u0 + seg.U[g]
		eps0, err := tbl.Eps(g, d, seg.P, seg.T, u0)
		if err != nil {
			return 0, err
		}
		eps1, err := tbl.Eps(g, d, seg.P, seg.T, u1)
		if err != nil {
			return 0, err
		}
		tau *= epsGuardTau(eps0, eps1)
	}
	return tau, nil
}
