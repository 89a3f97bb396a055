// Package statemap implements the bidirectional mapping between Atm/Obs
// and the flat state/measurement vectors x/y the retrieval's Jacobian and
// L-M loop operate on. Atm2X/X2Atm and Obs2Y/Y2Obs walk the identical
// canonical order on every call, so a state vector's length and the
// meaning of each of its entries are stable across iterations.
package statemap

import (
	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
)

// Quantity codes identify which physical field a state-vector entry came
// from: p, t, q[0..ng-1], k[0..nw-1], then the global scalars.
// Gas/window/grid sub-indices are folded into the code itself so
// a single int fully identifies the field; the parallel ipa entry holds the
// profile level index, or -1 for the global quantities clz/cldz/clk/sft/sfeps
// (whose cloud/surface grid index lives in the code).
const (
	codeP = 0
	codeT = 1
)

func codeQ(ig int) int                { return 2 + ig }
func codeK(c *ctl.Ctl, iw int) int    { return 2 + c.NG + iw }
func codeCLZ(c *ctl.Ctl) int          { return 2 + c.NG + c.NW }
func codeCLDZ(c *ctl.Ctl) int         { return codeCLZ(c) + 1 }
func codeCLK(c *ctl.Ctl, i int) int   { return codeCLDZ(c) + 1 + i }
func codeSFT(c *ctl.Ctl) int          { return codeCLDZ(c) + 1 + c.NCL }
func codeSFEPS(c *ctl.Ctl, i int) int { return codeSFT(c) + 1 + i }

// Classify inverts the code* functions, recovering the field kind
// ("p","t","q","k","clz","cldz","clk","sft","sfeps") and its gas/window/
// grid sub-index (-1 if the field has none) for an iqa code. Exported for
// jacobian, which perturbs one field at a time rather than repacking x.
func Classify(c *ctl.Ctl, code int) (kind string, sub int) {
	switch {
	case code == codeP:
		return "p", -1
	case code == codeT:
		return "t", -1
	case code < 2+c.NG:
		return "q", code - 2
	case code < 2+c.NG+c.NW:
		return "k", code - 2 - c.NG
	case code == codeCLZ(c):
		return "clz", -1
	case code == codeCLDZ(c):
		return "cldz", -1
	case code < codeCLDZ(c)+1+c.NCL:
		return "clk", code - (codeCLDZ(c) + 1)
	case code == codeSFT(c):
		return "sft", -1
	default:
		return "sfeps", code - (codeSFT(c) + 1)
	}
}

// Atm2X packs atm's retrieved fields (per the Ctl retrieval windows/flags)
// into x, returning the parallel quantity-code and profile-index arrays
// iqa/ipa that record each entry's origin.
func Atm2X(c *ctl.Ctl, atm *atmos.Atm) (x []float64, iqa, ipa []int) {
	for ip, lvl := range atm.Levels {
		if c.RetP.Contains(lvl.Z) {
			x, iqa, ipa = append(x, lvl.P), append(iqa, codeP), append(ipa, ip)
		}
		if c.RetT.Contains(lvl.Z) {
			x, iqa, ipa = append(x, lvl.T), append(iqa, codeT), append(ipa, ip)
		}
		for ig := 0; ig < c.NG && ig < len(c.RetQ); ig++ {
			if c.RetQ[ig].Contains(lvl.Z) {
				x, iqa, ipa = append(x, lvl.Q[ig]), append(iqa, codeQ(ig)), append(ipa, ip)
			}
		}
		for iw := 0; iw < c.NW && iw < len(c.RetK); iw++ {
			if c.RetK[iw].Contains(lvl.Z) {
				x, iqa, ipa = append(x, lvl.K[iw]), append(iqa, codeK(c, iw)), append(ipa, ip)
			}
		}
	}
	if c.RetCLZ {
		x, iqa, ipa = append(x, atm.CLZ), append(iqa, codeCLZ(c)), append(ipa, -1)
	}
	if c.RetCLDZ {
		x, iqa, ipa = append(x, atm.CLDZ), append(iqa, codeCLDZ(c)), append(ipa, -1)
	}
	if c.RetCLK {
		for i := 0; i < c.NCL; i++ {
			x, iqa, ipa = append(x, atm.CLK[i]), append(iqa, codeCLK(c, i)), append(ipa, -1)
		}
	}
	if c.RetSFT {
		x, iqa, ipa = append(x, atm.SFT), append(iqa, codeSFT(c)), append(ipa, -1)
	}
	if c.RetSFEPS {
		for i := 0; i < c.NSF; i++ {
			x, iqa, ipa = append(x, atm.SFEPS[i]), append(iqa, codeSFEPS(c, i)), append(ipa, -1)
		}
	}
	return x, iqa, ipa
}

// X2Atm is Atm2X's inverse: it overwrites exactly the fields named by
// iqa/ipa with the values in x, leaving every other field of atm untouched.
// atm must already hold the a priori state, so non-retrieved fields are
// preserved.
func X2Atm(c *ctl.Ctl, x []float64, iqa, ipa []int, atm *atmos.Atm) {
	for n := range x {
		kind, sub := Classify(c, iqa[n])
		ip := ipa[n]
		switch kind {
		case "p":
			atm.Levels[ip].P = x[n]
		case "t":
			atm.Levels[ip].T = x[n]
		case "q":
			atm.Levels[ip].Q[sub] = x[n]
		case "k":
			atm.Levels[ip].K[sub] = x[n]
		case "clz":
			atm.CLZ = x[n]
		case "cldz":
			atm.CLDZ = x[n]
		case "clk":
			atm.CLK[sub] = x[n]
		case "sft":
			atm.SFT = x[n]
		case "sfeps":
			atm.SFEPS[sub] = x[n]
		}
	}
}
