// Package diagnostics renders the retrieval's convergence history
// (chi-square/m and the Levenberg-Marquardt damping parameter per outer
// iteration) to PNGs, grounded on the pack's gonum/plot usage for
// per-run time-series output.
package diagnostics

import (
	"fmt"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/spatialmodel/raytran/retrieval"
)

// PlotConvergence renders chi-square/m to path and gamma to a sibling
// "_gamma" file, one PNG each, both against iteration number.
func PlotConvergence(history []retrieval.IterationRecord, path string) error {
	if len(history) == 0 {
		return fmt.Errorf("diagnostics: no iteration history to plot")
	}

	chiPts := make(plotter.XYs, len(history))
	gammaPts := make(plotter.XYs, len(history))
	for i, h := range history {
		chiPts[i] = plotter.XY{X: float64(h.Iteration), Y: h.ChiSqOverM}
		gammaPts[i] = plotter.XY{X: float64(h.Iteration), Y: h.Gamma}
	}

	pChi := plot.New()
	pChi.Title.Text = "Retrieval convergence"
	pChi.X.Label.Text = "Iteration"
	pChi.Y.Label.Text = "chi^2/m"
	chiLine, err := plotter.NewLine(chiPts)
	if err != nil {
		return err
	}
	chiLine.Width = vg.Points(1)
	pChi.Add(chiLine)
	if err := pChi.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chi-square plot: %w", err)
	}

	pGamma := plot.New()
	pGamma.Title.Text = "Levenberg-Marquardt damping"
	pGamma.X.Label.Text = "Iteration"
	pGamma.Y.Label.Text = "gamma"
	gammaLine, err := plotter.NewLine(gammaPts)
	if err != nil {
		return err
	}
	gammaLine.Width = vg.Points(1)
	pGamma.Add(gammaLine)
	gammaPath := withSuffix(path, "_gamma")
	if err := pGamma.Save(8*vg.Inch, 4*vg.Inch, gammaPath); err != nil {
		return fmt.Errorf("save gamma plot: %w", err)
	}

	return nil
}

func withSuffix(path, suffix string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i] + suffix + path[i:]
	}
	return path + suffix
}
