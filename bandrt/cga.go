package bandrt

import (
	"github.com/spatialmodel/raytran/raytrace"
	"github.com/spatialmodel/raytran/table"
)

// cgaTransmittance computes the Curtis-Godson Approximation per-channel
// gas transmittance of one segment as the product, over all ng gases, of
// the ratio of full-column transmittances evaluated at the Curtis-Godson
// weighted (p-bar, T-bar, u-bar) before and after this segment.
func cgaTransmittance(tbl *table.Tbl, seg *raytrace.Segment, d, ng int) (float64, error) {
	tau := 1.0
	for g := 0; g < ng; g++ {
		u0 := seg.UBefore[g]
		p0 := seg.CGPBefore[g]
		t0 := seg.CGTBefore[g]
		if u0 == 0 {
			p0, t0 = seg.P, seg.T
		}

		u1 := u0 + seg.U[g]
		var p1, t1 float64
		if u1 > 0 {
			p1 = (p0*u0 + seg.P*seg.U[g]) / u1
			t1 = (t0*u0 + seg.T*seg.U[g]) / u1
		} else {
			p1, t1 = seg.P, seg.T
		}

		eps0, err := tbl.Eps(g, d, p0, t0, u0)
		if err != nil {
			return 0, err
		}
		eps1, err := tbl.Eps(g, d, p1, t1, u1)
		if err != nil {
			return 0, err
		}
		tau *= epsGuardTau(eps0, eps1)
	}
	return tau, nil
}
