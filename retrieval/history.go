package retrieval

// IterationRecord summarizes one outer Levenberg-Marquardt iteration, kept
// so callers (retrieval/diagnostics, CLI reports) can inspect convergence
// behavior after Run returns.
type IterationRecord struct {
	Iteration  int
	ChiSqOverM float64
	Gamma      float64
}
