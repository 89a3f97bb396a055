package retrieval

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/spatialmodel/raytran/ctl"
)

// Posterior holds the post-convergence error analysis: posterior
// covariance, correlation, gain, averaging kernel, and degrees of
// freedom, computed only when ctl.ErrAna is set.
type Posterior struct {
	Sx          *mat.SymDense // posterior covariance
	Correlation *mat.Dense    // normalized correlation matrix
	Gain        *mat.Dense    // G = Sx * K^T * Se^-1
	AVK         *mat.Dense    // averaging kernel A = G * K
	DOF         float64       // trace(A)
	DOFByCode   map[int]float64

	// ErrNoise/ErrFormod are the per-state-element propagated standard
	// deviations from measurement noise and forward-model error.
	ErrNoise  []float64
	ErrFormod []float64

	// MeanResolution is the mean FWHM-based vertical resolution [km] of
	// the averaging kernel's diagonal, averaged with gonum/stat over every
	// state-vector entry with a positive diagonal value (one number for the
	// whole state vector, not one per quantity).
	MeanResolution float64
}

// analyze computes the posterior error analysis from the converged
// Jacobian K and the prior/measurement inverse covariances.
func analyze(c *ctl.Ctl, SaInv, SeInv *mat.SymDense, K *mat.Dense, iqa []int) (*Posterior, error) {
	n, _ := SaInv.Dims()

	var KtSe mat.Dense
	KtSe.Mul(K.T(), SeInv)
	var G mat.Dense
	G.Mul(&KtSe, K)

	hessian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			hessian.SetSym(i, j, SaInv.At(i, j)+G.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hessian); !ok {
		return nil, errNonPosDef("S_a^-1 + K^T S_eps^-1 K")
	}
	var Sx mat.SymDense
	if err := chol.InverseTo(&Sx); err != nil {
		return nil, err
	}

	correlation := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := math.Sqrt(Sx.At(i, i) * Sx.At(j, j))
			if d == 0 {
				continue
			}
			correlation.Set(i, j, Sx.At(i, j)/d)
		}
	}

	ktse := KtSeT(K, SeInv)
	var gain mat.Dense
	gain.Mul(&Sx, &ktse)

	var avk mat.Dense
	avk.Mul(&gain, K)

	dof := 0.0
	dofByCode := make(map[int]float64)
	for i := 0; i < n; i++ {
		a := avk.At(i, i)
		dof += a
		dofByCode[iqa[i]] += a
	}

	errNoise := make([]float64, n)
	errFormod := make([]float64, n)
	rows, cols := gain.Dims()
	for i := 0; i < rows; i++ {
		var sn, sf float64
		for k := 0; k < cols; k++ {
			g := gain.At(i, k)
			sn += g * g * noiseVar(c, k)
			sf += g * g * formodVar(c, k)
		}
		errNoise[i] = math.Sqrt(sn)
		errFormod[i] = math.Sqrt(sf)
	}

	resolutions := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		a := avk.At(i, i)
		if a > 0 {
			resolutions = append(resolutions, fwhmFromPeak(a))
		}
	}
	meanRes := 0.0
	if len(resolutions) > 0 {
		meanRes = stat.Mean(resolutions, nil)
	}

	return &Posterior{
		Sx: &Sx, Correlation: correlation, Gain: &gain, AVK: &avk,
		DOF: dof, DOFByCode: dofByCode,
		ErrNoise: errNoise, ErrFormod: errFormod,
		MeanResolution: meanRes,
	}, nil
}

// KtSeT returns K^T * Se^-1, duplicated from computeB's inline form since
// posterior analysis needs the gain built from it directly (Sx*K^T*Se^-1)
// rather than folded into a right-hand side vector.
func KtSeT(K *mat.Dense, SeInv *mat.SymDense) mat.Dense {
	var out mat.Dense
	out.Mul(K.T(), SeInv)
	return out
}

// noiseVar/formodVar return sigma_noise^2/sigma_formod^2 for y-vector
// entry k. Since Obs2Y lays y out ray-major/channel-minor and every ray
// shares the same nc channels, k mod nc recovers the channel index without
// needing the ida array here.
func noiseVar(c *ctl.Ctl, k int) float64 {
	d := k % c.NC
	if d >= len(c.ErrNoise) {
		return 0
	}
	return c.ErrNoise[d] * c.ErrNoise[d]
}

func formodVar(c *ctl.Ctl, k int) float64 {
	d := k % c.NC
	if d >= len(c.ErrFormod) {
		return 0
	}
	return c.ErrFormod[d] * c.ErrFormod[d]
}

// fwhmFromPeak approximates the averaging kernel row's full width at half
// maximum from its diagonal (peak) value, assuming a Gaussian-shaped row
// with unit area: for a unit-area Gaussian, peak = 1/(sigma*sqrt(2*pi)), so
// FWHM = 2*sqrt(2*ln2)*sigma = 2*sqrt(2*ln2)/(peak*sqrt(2*pi)).
func fwhmFromPeak(peak float64) float64 {
	const twoSqrt2Ln2 = 2.3548200450309493
	sigma := 1 / (peak * math.Sqrt(2*math.Pi))
	return twoSqrt2Ln2 * sigma
}
