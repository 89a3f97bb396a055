// Package retrieval drives the Levenberg-Marquardt optimal-estimation
// loop: build the covariances, iterate the damped Gauss-Newton update
// against formod/jacobian, and optionally run the posterior
// (gain/averaging-kernel/DOF) analysis.
package retrieval

import (
	"gonum.org/v1/gonum/mat"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/formod"
	"github.com/spatialmodel/raytran/internal/rtlog"
	"github.com/spatialmodel/raytran/internal/timing"
	"github.com/spatialmodel/raytran/jacobian"
	"github.com/spatialmodel/raytran/rterr"
	"github.com/spatialmodel/raytran/statemap"
	"github.com/spatialmodel/raytran/table"
)

var log = rtlog.New("retrieval")

func errNonPosDef(name string) error {
	return rterr.New(rterr.Numerical, "%s is not positive definite", name)
}

// maxInner is the inner-loop damping-parameter try limit.
const maxInner = 20

// Result is the outcome of Run.
type Result struct {
	Atm        *atmos.Atm // retrieved atmosphere
	Iterations int
	ChiSqOverM float64
	Converged  bool
	Posterior  *Posterior        // nil unless ctl.ErrAna
	History    []IterationRecord // per outer-iteration chisq/m and gamma
}

// Run retrieves an atmosphere from measured against the a priori apriori,
// following the outer/inner Levenberg-Marquardt loop. apriori is never
// mutated; the returned Result.Atm is a fresh working copy.
func Run(c *ctl.Ctl, tbl *table.Tbl, apriori *atmos.Atm, measured *atmos.Obs) (*Result, error) {
	defer timing.Start("retrieval.Run")()

	xa, iqa, ipa := statemap.Atm2X(c, apriori)
	n := len(xa)
	x := append([]float64(nil), xa...)

	atmWork := apriori.Clone()

	SaInv, err := BuildSaInv(c, apriori, iqa, ipa)
	if err != nil {
		return nil, err
	}

	ym, ida, ira := statemap.Obs2Y(measured)
	SeInv := BuildSeInv(c, ida)

	gamma := 1e-3
	var K *mat.Dense
	var y0 []float64
	var G mat.Dense // K^T Se^-1 K

	iterations := 0
	converged := false
	history := make([]IterationRecord, 0, c.ConvItmax)

	for it := 1; it <= c.ConvItmax; it++ {
		iterations = it
		recompute := it == 1 || it%c.KernelRecomp == 0

		if recompute {
			statemap.X2Atm(c, x, iqa, ipa, atmWork)
			atmWork.Clamp()

			obsWork := measured.Clone()
			K, y0, err = jacobian.Compute(c, tbl, atmWork, obsWork, x, iqa, ipa)
			if err != nil {
				return nil, err
			}
			G = computeG(K, SeInv)
		}

		dy := subVec(ym, y0)
		dx := subVec(x, xa)
		b := computeB(K, SeInv, dy, SaInv, dx)

		chisq := chiSquare(dy, SeInv, dx, SaInv)

		var dxStep []float64
		accepted := false
		for inner := 0; inner < maxInner; inner++ {
			A := dampedHessian(SaInv, &G, gamma)
			step, err := choleskySolve(A, b)
			if err != nil {
				gamma *= 10
				continue
			}
			dxStep = step

			xTrial := addVec(x, dxStep)
			atmTrial := apriori.Clone()
			statemap.X2Atm(c, xTrial, iqa, ipa, atmTrial)
			atmTrial.Clamp()

			obsTrial := measured.Clone()
			if err := formod.Run(c, tbl, atmTrial, obsTrial); err != nil {
				return nil, err
			}
			yTrial, _, _ := statemap.Obs2Y(obsTrial)

			dyTrial := subVec(ym, yTrial)
			dxTrial := subVec(xTrial, xa)
			chisqTrial := chiSquare(dyTrial, SeInv, dxTrial, SaInv)

			if chisqTrial > chisq {
				gamma *= 10
				continue
			}
			gamma /= 10
			x = xTrial
			y0 = yTrial
			atmWork = atmTrial
			chisq = chisqTrial
			accepted = true
			break
		}
		if !accepted {
			log.Warnf("iteration %d: inner loop exhausted %d tries without reducing chi-square", it, maxInner)
		}

		m := len(ym)
		log.Infof("iteration %d: chisq/m=%.6g gamma=%.3g", it, chisq/float64(m), gamma)
		history = append(history, IterationRecord{Iteration: it, ChiSqOverM: chisq / float64(m), Gamma: gamma})

		if recompute {
			disq := dot(dxStep, b) / float64(n)
			if disq < c.ConvDmin {
				converged = true
				break
			}
		}
	}

	result := &Result{
		Atm:        atmWork,
		Iterations: iterations,
		ChiSqOverM: 0,
		Converged:  converged,
		History:    history,
	}
	if len(ym) > 0 {
		dy := subVec(ym, y0)
		dx := subVec(x, xa)
		result.ChiSqOverM = chiSquare(dy, SeInv, dx, SaInv) / float64(len(ym))
	}

	if c.ErrAna {
		post, err := analyze(c, SaInv, SeInv, K, iqa)
		if err != nil {
			return nil, err
		}
		result.Posterior = post
	}

	_ = ira
	return result, nil
}
