// Package jacobian computes K = dy/dx by one-sided finite differences,
// reusing formod for both the baseline and the perturbed evaluations and
// skipping rays a perturbed profile level cannot influence.
package jacobian

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/formod"
	"github.com/spatialmodel/raytran/internal/timing"
	"github.com/spatialmodel/raytran/statemap"
	"github.com/spatialmodel/raytran/table"
)

// qFloor is the minimum absolute perturbation applied to a volume mixing
// ratio when 10% of its value would otherwise underflow to numerical noise.
const qFloor = 1e-9

// perturbation returns the fixed finite-difference step for quantity code
// on atm at profile index ip (-1 for the global scalars), per the
// per-quantity-class step rule.
func perturbation(c *ctl.Ctl, atm *atmos.Atm, code, ip int) float64 {
	kind, sub := statemap.Classify(c, code)
	switch kind {
	case "p":
		return 0.01 * atm.Levels[ip].P
	case "t":
		return 1.0
	case "q":
		v := atm.Levels[ip].Q[sub]
		d := 0.1 * v
		if d < qFloor {
			d = qFloor
		}
		return d
	case "k":
		return 1e-4
	case "clz":
		return 0.1
	case "cldz":
		return 0.05
	case "clk":
		return 1e-4
	case "sft":
		return 1.0
	case "sfeps":
		return 0.01
	}
	return 1.0
}

// perturb adds delta to the field named by (code, ip) on atm in place.
func perturb(c *ctl.Ctl, atm *atmos.Atm, code, ip int, delta float64) {
	kind, sub := statemap.Classify(c, code)
	switch kind {
	case "p":
		atm.Levels[ip].P += delta
	case "t":
		atm.Levels[ip].T += delta
	case "q":
		atm.Levels[ip].Q[sub] += delta
	case "k":
		atm.Levels[ip].K[sub] += delta
	case "clz":
		atm.CLZ += delta
	case "cldz":
		atm.CLDZ += delta
	case "clk":
		atm.CLK[sub] += delta
	case "sft":
		atm.SFT += delta
	case "sfeps":
		atm.SFEPS[sub] += delta
	}
}

// affectedRays returns the indices of obs.Rays whose tangent altitude lies
// within the influence window of profile level ip of atm ([Levels[ip-1].Z,
// Levels[ip+1].Z]), plus every ray with no limb tangent (nadir views are
// conservatively treated as sensitive to every level). ip<0 (a global
// scalar quantity) affects every ray.
func affectedRays(atm *atmos.Atm, obs *atmos.Obs, ip int) []int {
	if ip < 0 {
		idx := make([]int, len(obs.Rays))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	n := len(atm.Levels)
	lo, hi := atm.Levels[ip].Z, atm.Levels[ip].Z
	if ip > 0 {
		lo = atm.Levels[ip-1].Z
	}
	if ip < n-1 {
		hi = atm.Levels[ip+1].Z
	}

	var idx []int
	for i, r := range obs.Rays {
		if math.IsNaN(r.TPZ) || (r.TPZ >= lo && r.TPZ <= hi) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Compute evaluates the baseline y0 = F(x) via formod, then for each
// column j perturbs atm's field named by (iqa[j], ipa[j]), re-runs formod
// over only the rays that perturbation can influence, forms
// K[:,j] = (y-y0)/delta, and discards the perturbed copy. atm and obs are
// never mutated; x must already equal statemap.Atm2X(atm).
func Compute(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, obs *atmos.Obs, x []float64, iqa, ipa []int) (K *mat.Dense, y0 []float64, err error) {
	defer timing.Start("jacobian.Compute")()

	baseline := obs.Clone()
	if err := formod.Run(c, tbl, atm, baseline); err != nil {
		return nil, nil, err
	}
	y0, _, _ = statemap.Obs2Y(baseline)

	m, n := len(y0), len(x)
	K = mat.NewDense(m, n, nil)

	for j := 0; j < n; j++ {
		atmP := atm.Clone()
		delta := perturbation(c, atmP, iqa[j], ipa[j])
		if delta == 0 {
			continue
		}
		perturb(c, atmP, iqa[j], ipa[j], delta)
		atmP.Clamp()

		rays := affectedRays(atm, baseline, ipa[j])
		obsP := baseline.Clone()
		if err := formod.RunRays(c, tbl, atmP, obsP, rays); err != nil {
			return nil, nil, err
		}
		y, _, _ := statemap.Obs2Y(obsP)

		for i := 0; i < m; i++ {
			K.Set(i, j, (y[i]-y0[i])/delta)
		}
	}

	return K, y0, nil
}
