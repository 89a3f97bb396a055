package retrieval

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/statemap"
)

// quantityErr returns the prescribed a priori standard deviation and
// vertical/horizontal correlation lengths [km] for state-vector entry n,
// keyed by its quantity code.
func quantityErr(c *ctl.Ctl, code int) (sigma, lz, lh float64) {
	kind, sub := statemap.Classify(c, code)
	switch kind {
	case "p":
		return 0.2 * c.ErrP, 5, 500
	case "t":
		return c.ErrT, 5, 500
	case "q":
		if sub < len(c.ErrQ) {
			return c.ErrQ[sub], safeAt(c.ErrQCZ, sub, 5), safeAt(c.ErrQCH, sub, 500)
		}
		return 0.1, 5, 500
	case "k":
		return 1e-3, 3, 300
	case "clz":
		return 0.5, 0, 0
	case "cldz":
		return 0.2, 0, 0
	case "clk":
		return 1e-3, 0, 0
	case "sft":
		return c.ErrT, 0, 0
	case "sfeps":
		return 0.02, 0, 0
	}
	return 1, 0, 0
}

func safeAt(s []float64, i int, def float64) float64 {
	if i >= 0 && i < len(s) {
		return s[i]
	}
	return def
}

// BuildSaInv builds the inverse a priori covariance S_a^-1: block-diagonal
// per quantity, with the vertical/horizontal correlation
// corr(z1,z2) = exp(-|z1-z2|/Lz) * exp(-dgeo/Lh) between entries of the
// same quantity, inverted once via Cholesky.
func BuildSaInv(c *ctl.Ctl, atm *atmos.Atm, iqa, ipa []int) (*mat.SymDense, error) {
	n := len(iqa)
	Sa := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		si, lzi, lhi := quantityErr(c, iqa[i])
		for j := i; j < n; j++ {
			if iqa[i] != iqa[j] {
				continue // cross-quantity blocks stay zero (block-diagonal S_a)
			}
			sj, _, _ := quantityErr(c, iqa[j])
			corr := 1.0
			if ipa[i] >= 0 && ipa[j] >= 0 && ipa[i] != ipa[j] {
				zi, zj := atm.Levels[ipa[i]].Z, atm.Levels[ipa[j]].Z
				loni, lati := atm.Levels[ipa[i]].Lon, atm.Levels[ipa[i]].Lat
				lonj, latj := atm.Levels[ipa[j]].Lon, atm.Levels[ipa[j]].Lat
				dz := math.Abs(zi - zj)
				dgeo := math.Hypot(loni-lonj, lati-latj)
				lz := lzi
				if lz <= 0 {
					lz = 1e9
				}
				lh := lhi
				if lh <= 0 {
					lh = 1e9
				}
				corr = math.Exp(-dz/lz) * math.Exp(-dgeo/lh)
			}
			Sa.SetSym(i, j, si*sj*corr)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(Sa); !ok {
		return nil, errNonPosDef("S_a")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// BuildSeInv builds the diagonal inverse measurement covariance S_eps^-1:
// sigma_i^2 = sigma_noise^2 + sigma_formod^2 per channel, broadcast across
// rays per the y-layout's channel index ida.
func BuildSeInv(c *ctl.Ctl, ida []int) *mat.SymDense {
	m := len(ida)
	Se := mat.NewSymDense(m, nil)
	for i, d := range ida {
		sn, sf := 0.0, 0.0
		if d < len(c.ErrNoise) {
			sn = c.ErrNoise[d]
		}
		if d < len(c.ErrFormod) {
			sf = c.ErrFormod[d]
		}
		v := sn*sn + sf*sf
		if v <= 0 {
			v = 1
		}
		Se.SetSym(i, i, 1/v)
	}
	return Se
}
