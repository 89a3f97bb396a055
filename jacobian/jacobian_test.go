package jacobian

import (
	"math"
	"testing"
	"time"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/statemap"
	"github.com/spatialmodel/raytran/table"
)

func testTbl() *table.Tbl {
	tbl := table.New(1, 1)
	g := &table.GasChannelTable{
		P: []float64{1, 1100},
		Rows: []table.PressureRow{
			{T: []float64{150, 350}, U: [][]float64{{1e14, 1e18, 1e22}, {1e14, 1e18, 1e22}}, Eps: [][]float64{{0.01, 0.4, 0.95}, {0.01, 0.4, 0.95}}},
			{T: []float64{150, 350}, U: [][]float64{{1e14, 1e18, 1e22}, {1e14, 1e18, 1e22}}, Eps: [][]float64{{0.01, 0.4, 0.95}, {0.01, 0.4, 0.95}}},
		},
	}
	if err := tbl.Set(0, 0, g); err != nil {
		panic(err)
	}
	tbl.Source = table.BuildSourceTable([]float64{900}, 100, 150, 350)
	return tbl
}

func testAtm() *atmos.Atm {
	levels := make([]atmos.Level, 0, 11)
	for i := 0; i <= 10; i++ {
		z := float64(i) * 4
		p := 1013.25 * math.Exp(-z/7.0)
		tK := 288 - 6.5*math.Min(z, 11)
		levels = append(levels, atmos.Level{Z: z, P: p, T: tK, Q: []float64{0.01}, K: []float64{1e-4}})
	}
	return &atmos.Atm{Levels: levels, SFT: 288, SFEPS: []float64{0.9}, CLZ: 100, CLDZ: 1, CLK: []float64{0}}
}

func testCtl() *ctl.Ctl {
	c := ctl.Default(1, 1, 1, 1, 1)
	c.Nu = []float64{900}
	c.Window = []int{0}
	c.RayDS = 4
	c.RayDZ = 0.5
	c.Refrac = false
	c.SfType = ctl.SurfaceNone
	c.RetP = ctl.RetrievalWindow{ZMin: 0, ZMax: 40}
	c.RetT = ctl.RetrievalWindow{ZMin: 0, ZMax: 40}
	c.RetQ[0] = ctl.RetrievalWindow{ZMin: 0, ZMax: 40}
	c.RetSFT = true
	return c
}

func testObs(n int) *atmos.Obs {
	rays := make([]atmos.Ray, n)
	for i := range rays {
		rays[i] = atmos.Ray{Time: time.Now(), ObsZ: 800, ObsLon: 0, ObsLat: 0, VPZ: 0, VPLon: 0, VPLat: 0.001 + float64(i)*0.0005}
	}
	return &atmos.Obs{Rays: rays}
}

func TestPerturbationMatchesQuantityClassRules(t *testing.T) {
	c := testCtl()
	atm := testAtm()

	if got, want := perturbation(c, atm, codeConst(c, "p"), 0), 0.01*atm.Levels[0].P; got != want {
		t.Errorf("pressure perturbation = %g, want %g", got, want)
	}
	if got := perturbation(c, atm, codeConst(c, "t"), 0); got != 1.0 {
		t.Errorf("temperature perturbation = %g, want 1.0", got)
	}
	if got, want := perturbation(c, atm, codeConst(c, "q"), 0), 0.1*atm.Levels[0].Q[0]; math.Abs(got-want) > 1e-15 {
		t.Errorf("q perturbation = %g, want %g", got, want)
	}
}

func TestPerturbationFloorsTinyMixingRatios(t *testing.T) {
	c := testCtl()
	atm := testAtm()
	atm.Levels[0].Q[0] = 1e-15 // 10% of this underflows the floor

	got := perturbation(c, atm, codeConst(c, "q"), 0)
	if got != qFloor {
		t.Errorf("perturbation for a tiny mixing ratio = %g, want the floor %g", got, qFloor)
	}
}

func TestPerturbMutatesOnlyTheNamedField(t *testing.T) {
	c := testCtl()
	atm := testAtm()
	origT := atm.Levels[2].T
	origP := atm.Levels[2].P

	perturb(c, atm, codeConst(c, "t"), 2, 5.0)

	if atm.Levels[2].T != origT+5.0 {
		t.Errorf("T = %g, want %g", atm.Levels[2].T, origT+5.0)
	}
	if atm.Levels[2].P != origP {
		t.Error("perturbing T must not change P")
	}
}

func TestAffectedRaysGlobalScalarAffectsAll(t *testing.T) {
	atm := testAtm()
	obs := testObs(4)
	idx := affectedRays(atm, obs, -1)
	if len(idx) != len(obs.Rays) {
		t.Errorf("a global scalar (ip=-1) should affect every ray, got %d of %d", len(idx), len(obs.Rays))
	}
}

func TestAffectedRaysProfileLevelIsSubsetOrEqual(t *testing.T) {
	atm := testAtm()
	obs := testObs(4)
	idx := affectedRays(atm, obs, 5)
	if len(idx) > len(obs.Rays) {
		t.Errorf("affectedRays returned more rays (%d) than exist (%d)", len(idx), len(obs.Rays))
	}
	for _, i := range idx {
		if i < 0 || i >= len(obs.Rays) {
			t.Errorf("affectedRays returned out-of-range index %d", i)
		}
	}
}

func TestComputeProducesFiniteNonzeroJacobian(t *testing.T) {
	c := testCtl()
	tbl := testTbl()
	atm := testAtm()
	obs := testObs(2)

	x, iqa, ipa := statemap.Atm2X(c, atm)
	K, y0, err := Compute(c, tbl, atm, obs, x, iqa, ipa)
	if err != nil {
		t.Fatal(err)
	}
	if len(y0) == 0 {
		t.Fatal("expected a non-empty baseline measurement vector")
	}
	m, n := K.Dims()
	if m != len(y0) || n != len(x) {
		t.Fatalf("K dims = (%d,%d), want (%d,%d)", m, n, len(y0), len(x))
	}

	anyNonzero := false
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := K.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("K[%d,%d] = %v, want a finite value", i, j, v)
			}
			if v != 0 {
				anyNonzero = true
			}
		}
	}
	if !anyNonzero {
		t.Error("expected at least one nonzero Jacobian entry")
	}
}

func TestComputeDoesNotMutateInputAtmOrObs(t *testing.T) {
	c := testCtl()
	tbl := testTbl()
	atm := testAtm()
	obs := testObs(2)
	origT0 := atm.Levels[0].T

	x, iqa, ipa := statemap.Atm2X(c, atm)
	if _, _, err := Compute(c, tbl, atm, obs, x, iqa, ipa); err != nil {
		t.Fatal(err)
	}
	if atm.Levels[0].T != origT0 {
		t.Error("Compute must not mutate the caller's atm")
	}
	if obs.Rays[0].Rad != nil {
		t.Error("Compute must not mutate the caller's obs")
	}
}

// codeConst returns the first state-vector quantity code of the given kind,
// for use as a perturbation/perturb test input.
func codeConst(c *ctl.Ctl, kind string) int {
	atm := testAtm()
	_, iqa, _ := statemap.Atm2X(c, atm)
	for _, code := range iqa {
		k, _ := statemap.Classify(c, code)
		if k == kind {
			return code
		}
	}
	panic("no state vector entry of kind " + kind)
}
