// Package table implements the emissivity/Planck table store: per (gas,
// channel) jagged emissivity grids epsilon(p, T, u), bilinear/log lookup
// and its inverse u(p, T, epsilon), and the 1-D Planck source-function
// table. Grids are per-(ig,id) slices with their own np/nt/nu, never a
// dense NG x ND x TBLNP x TBLNT x TBLNU array, since real tables are
// ragged: not every gas has data on every channel, and node counts vary
// across (p,t) pairs.
package table

import (
	"sort"

	"github.com/spatialmodel/raytran/rterr"
)

// PressureRow is one pressure node's temperature grid: nt temperature
// values, and at each temperature a column-density grid with a parallel
// monotone epsilon array.
type PressureRow struct {
	T   []float64   // temperature nodes, length nt
	U   [][]float64 // per-temperature column-density nodes, U[it] strictly increasing
	Eps [][]float64 // per-temperature epsilon(u), Eps[it] monotone non-decreasing, same length as U[it]
}

// GasChannelTable is the emissivity grid for one (gas, channel) pair.
type GasChannelTable struct {
	P    []float64     // pressure nodes, strictly monotone (convention: increasing)
	Rows []PressureRow // parallel to P
}

// Tbl is the full table store: one GasChannelTable per (gas, channel),
// plus the Planck source-function table.
type Tbl struct {
	NG, NC int
	Gas    [][]*GasChannelTable // Gas[ig][id], nil if that gas has no table for that channel
	Source *SourceTable
}

// New allocates an empty, correctly shaped Tbl for ng gases and nc
// channels; Set fills in the per-(ig,id) grids.
func New(ng, nc int) *Tbl {
	t := &Tbl{NG: ng, NC: nc, Gas: make([][]*GasChannelTable, ng)}
	for ig := range t.Gas {
		t.Gas[ig] = make([]*GasChannelTable, nc)
	}
	return t
}

// Set installs the grid for gas ig, channel id. Panics-free: validates the
// table's monotonicity invariants and returns a ConfigError if they don't
// hold, since a malformed table would otherwise corrupt every downstream
// lookup silently.
func (t *Tbl) Set(ig, id int, g *GasChannelTable) error {
	if err := validate(g); err != nil {
		return rterr.Wrap(rterr.Config, err, "table for gas %d channel %d", ig, id)
	}
	t.Gas[ig][id] = g
	return nil
}

func validate(g *GasChannelTable) error {
	for k := 1; k < len(g.P); k++ {
		if g.P[k] <= g.P[k-1] {
			return rterr.New(rterr.Config, "pressure nodes must be strictly increasing")
		}
	}
	for i, row := range g.Rows {
		for it, u := range row.U {
			for k := 1; k < len(u); k++ {
				if u[k] <= u[k-1] {
					return rterr.New(rterr.Config, "u nodes not increasing at p[%d] t[%d]", i, it)
				}
			}
			eps := row.Eps[it]
			if len(eps) != len(u) {
				return rterr.New(rterr.Config, "u/eps length mismatch at p[%d] t[%d]", i, it)
			}
			for k := 1; k < len(eps); k++ {
				if eps[k] < eps[k-1] {
					return rterr.New(rterr.Config, "epsilon not monotone non-decreasing at p[%d] t[%d]", i, it)
				}
			}
		}
	}
	return nil
}

// bracket returns i such that xs[i] <= x < xs[i+1], clamped to
// [0, len(xs)-2], and the fractional weight of x between xs[i] and xs[i+1].
// xs must have length >= 2 and be strictly increasing.
func bracket(xs []float64, x float64) (i int, w float64) {
	n := len(xs)
	i = sort.SearchFloat64s(xs, x)
	if i == 0 {
		i = 0
	} else if i >= n {
		i = n - 1
	}
	if i > 0 && (i == n || xs[i] > x) {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	if i < 0 {
		i = 0
	}
	x0, x1 := xs[i], xs[i+1]
	if x1 == x0 {
		w = 0
	} else {
		w = (x - x0) / (x1 - x0)
		if w < 0 {
			w = 0
		} else if w > 1 {
			w = 1
		}
	}
	return i, w
}
