package table

import (
	"math"
	"sort"

	"github.com/spatialmodel/raytran/rterr"
)

// Eps looks up epsilon(p, T, u) for gas ig, channel id: bilinear in log(u)
// on the inner index, linear in T, linear in log(p) on the outer index.
func (t *Tbl) Eps(ig, id int, p, tK, u float64) (float64, error) {
	g := t.Gas[ig][id]
	if g == nil {
		return 0, rterr.New(rterr.Numerical, "no table for gas %d channel %d", ig, id)
	}
	if len(g.P) < 1 {
		return 0, rterr.New(rterr.Numerical, "empty pressure grid for gas %d channel %d", ig, id)
	}
	if len(g.P) == 1 {
		return epsAtPT(g, 0, tK, u), nil
	}
	ip, wp := logBracket(g.P, p)
	e0 := epsAtPT(g, ip, tK, u)
	e1 := epsAtPT(g, ip+1, tK, u)
	return e0 + wp*(e1-e0), nil
}

// U is the inverse lookup of Eps: given a target epsilon, recover the column
// density u. Within a row it interpolates u linearly in epsilon between the
// bracketing nodes, while Eps interpolates epsilon linearly in log(u), so
// Eps(U(e)) returns e exactly only at node values. If epsTarget exceeds the
// table's last value at every corner, u saturates to the corresponding last
// u node.
func (t *Tbl) U(ig, id int, p, tK, epsTarget float64) (float64, error) {
	g := t.Gas[ig][id]
	if g == nil {
		return 0, rterr.New(rterr.Numerical, "no table for gas %d channel %d", ig, id)
	}
	if len(g.P) < 1 {
		return 0, rterr.New(rterr.Numerical, "empty pressure grid for gas %d channel %d", ig, id)
	}
	if len(g.P) == 1 {
		return uAtPT(g, 0, tK, epsTarget), nil
	}
	ip, wp := logBracket(g.P, p)
	u0 := uAtPT(g, ip, tK, epsTarget)
	u1 := uAtPT(g, ip+1, tK, epsTarget)
	return u0 + wp*(u1-u0), nil
}

func epsAtPT(g *GasChannelTable, ip int, tK, u float64) float64 {
	row := g.Rows[ip]
	if len(row.T) == 0 {
		return 0
	}
	if len(row.T) == 1 {
		return epsAtRow(row, 0, u)
	}
	it, wt := bracket(row.T, tK)
	e0 := epsAtRow(row, it, u)
	e1 := epsAtRow(row, it+1, u)
	return e0 + wt*(e1-e0)
}

func epsAtRow(row PressureRow, it int, u float64) float64 {
	us := row.U[it]
	eps := row.Eps[it]
	if len(us) == 0 {
		return 0
	}
	if u <= us[0] {
		return eps[0]
	}
	if u >= us[len(us)-1] {
		return eps[len(eps)-1]
	}
	iu, _ := logBracket(us, u)
	w := logWeight(us[iu], us[iu+1], u)
	return eps[iu] + w*(eps[iu+1]-eps[iu])
}

func uAtPT(g *GasChannelTable, ip int, tK, epsTarget float64) float64 {
	row := g.Rows[ip]
	if len(row.T) == 0 {
		return 0
	}
	if len(row.T) == 1 {
		return uAtRow(row, 0, epsTarget)
	}
	it, wt := bracket(row.T, tK)
	u0 := uAtRow(row, it, epsTarget)
	u1 := uAtRow(row, it+1, epsTarget)
	return u0 + wt*(u1-u0)
}

func uAtRow(row PressureRow, it int, epsTarget float64) float64 {
	eps := row.Eps[it]
	us := row.U[it]
	if len(eps) == 0 {
		return 0
	}
	if epsTarget <= eps[0] {
		return us[0]
	}
	if epsTarget >= eps[len(eps)-1] {
		// Saturate to the last u node.
		return us[len(us)-1]
	}
	i := sort.SearchFloat64s(eps, epsTarget)
	if i == 0 {
		i = 0
	}
	if i >= len(eps) {
		i = len(eps) - 1
	}
	if i > 0 && eps[i] > epsTarget {
		i--
	}
	if i > len(eps)-2 {
		i = len(eps) - 2
	}
	e0, e1 := eps[i], eps[i+1]
	u0, u1 := us[i], us[i+1]
	var w float64
	if e1 != e0 {
		w = (epsTarget - e0) / (e1 - e0)
	}
	return u0 + w*(u1-u0)
}

// logBracket brackets x within strictly-increasing xs (all > 0) and
// returns the fractional position computed in log space (tables are
// interpolated linearly in log p, bilinearly in log u).
func logBracket(xs []float64, x float64) (i int, w float64) {
	i, _ = bracket(xs, x)
	w = logWeight(xs[i], xs[i+1], x)
	return i, w
}

func logWeight(x0, x1, x float64) float64 {
	if x0 <= 0 || x1 <= 0 || x <= 0 {
		if x1 == x0 {
			return 0
		}
		w := (x - x0) / (x1 - x0)
		return clamp01(w)
	}
	lx0, lx1, lx := math.Log(x0), math.Log(x1), math.Log(x)
	if lx1 == lx0 {
		return 0
	}
	return clamp01((lx - lx0) / (lx1 - lx0))
}

func clamp01(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
