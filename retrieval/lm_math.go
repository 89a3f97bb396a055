package retrieval

import (
	"gonum.org/v1/gonum/mat"

	"github.com/spatialmodel/raytran/rterr"
)

func subVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// computeG returns G = K^T * Se^-1 * K.
func computeG(K *mat.Dense, SeInv *mat.SymDense) mat.Dense {
	var KtSe mat.Dense
	KtSe.Mul(K.T(), SeInv)
	var G mat.Dense
	G.Mul(&KtSe, K)
	return G
}

// computeB returns b = K^T * Se^-1 * dy - Sa^-1 * dx.
func computeB(K *mat.Dense, SeInv *mat.SymDense, dy []float64, SaInv *mat.SymDense, dx []float64) []float64 {
	_, ncols := K.Dims()

	dyVec := mat.NewVecDense(len(dy), dy)
	dxVec := mat.NewVecDense(len(dx), dx)

	var KtSe mat.Dense
	KtSe.Mul(K.T(), SeInv)
	var term1 mat.VecDense
	term1.MulVec(&KtSe, dyVec)

	var term2 mat.VecDense
	term2.MulVec(SaInv, dxVec)

	b := make([]float64, ncols)
	for i := 0; i < ncols; i++ {
		b[i] = term1.AtVec(i) - term2.AtVec(i)
	}
	return b
}

// chiSquare returns chi^2(dx,dy) = dy^T Se^-1 dy + dx^T Sa^-1 dx.
func chiSquare(dy []float64, SeInv *mat.SymDense, dx []float64, SaInv *mat.SymDense) float64 {
	dyVec := mat.NewVecDense(len(dy), dy)
	dxVec := mat.NewVecDense(len(dx), dx)

	var t1 mat.VecDense
	t1.MulVec(SeInv, dyVec)
	var t2 mat.VecDense
	t2.MulVec(SaInv, dxVec)

	return dyVec.Dot(&t1) + dxVec.Dot(&t2)
}

// dampedHessian returns A = (1+gamma)*Sa^-1 + G.
func dampedHessian(SaInv *mat.SymDense, G *mat.Dense, gamma float64) *mat.Dense {
	n, _ := SaInv.Dims()
	A := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			A.Set(i, j, (1+gamma)*SaInv.At(i, j)+G.At(i, j))
		}
	}
	return A
}

// choleskySolve solves A*dx = b via Cholesky factorization, returning a
// NumericalError if A is not positive definite; Run answers that error by
// raising gamma and retrying the inner step.
func choleskySolve(A *mat.Dense, b []float64) ([]float64, error) {
	n, _ := A.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, A.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errNonPosDef("(1+gamma)*S_a^-1 + G")
	}

	bVec := mat.NewVecDense(n, b)
	var xVec mat.VecDense
	if err := chol.SolveVecTo(&xVec, bVec); err != nil {
		return nil, rterr.Wrap(rterr.Numerical, err, "Cholesky solve")
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = xVec.AtVec(i)
	}
	return out, nil
}
