package bandrt

import (
	"math"
	"testing"
	"time"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/raytrace"
	"github.com/spatialmodel/raytran/table"
)

func oneGasOneChannelTbl() *table.Tbl {
	tbl := table.New(1, 1)
	g := &table.GasChannelTable{
		P: []float64{1, 1100},
		Rows: []table.PressureRow{
			{
				T:   []float64{150, 350},
				U:   [][]float64{{1e14, 1e18, 1e22}, {1e14, 1e18, 1e22}},
				Eps: [][]float64{{0.01, 0.4, 0.95}, {0.01, 0.4, 0.95}},
			},
			{
				T:   []float64{150, 350},
				U:   [][]float64{{1e14, 1e18, 1e22}, {1e14, 1e18, 1e22}},
				Eps: [][]float64{{0.01, 0.4, 0.95}, {0.01, 0.4, 0.95}},
			},
		},
	}
	if err := tbl.Set(0, 0, g); err != nil {
		panic(err)
	}
	tbl.Source = table.BuildSourceTable([]float64{900}, 100, 150, 350)
	return tbl
}

func testAtmSingleGas() *atmos.Atm {
	levels := make([]atmos.Level, 0, 21)
	for i := 0; i <= 20; i++ {
		z := float64(i) * 2
		p := 1013.25 * math.Exp(-z/7.0)
		tK := 288 - 6.5*math.Min(z, 11)
		levels = append(levels, atmos.Level{
			Z: z, P: p, T: tK, Q: []float64{0.01}, K: []float64{1e-4},
		})
	}
	return &atmos.Atm{Levels: levels, SFT: 288, SFEPS: []float64{0.9}, CLZ: 100, CLDZ: 1, CLK: []float64{0}}
}

func testCtlSingleGas() *ctl.Ctl {
	c := ctl.Default(1, 1, 1, 1, 1)
	c.Nu = []float64{900}
	c.Window = []int{0}
	c.RayDS = 2
	c.RayDZ = 0.5
	c.Refrac = false
	c.SfType = ctl.SurfaceNone
	return c
}

func TestEpsGuardTauBounds(t *testing.T) {
	if got := epsGuardTau(1-1e-12, 0.5); got != 0 {
		t.Errorf("epsGuardTau near the eps0->1 singularity should return 0, got %g", got)
	}
	if got := epsGuardTau(0.1, 0.1); got != 1 {
		t.Errorf("epsGuardTau(e,e) should be 1 (no added absorption), got %g", got)
	}
	if got := epsGuardTau(0.2, 0.6); got < 0 || got > 1 {
		t.Errorf("epsGuardTau must stay within [0,1], got %g", got)
	}
}

func TestEGAandCGAgreeAtZeroBaseline(t *testing.T) {
	tbl := oneGasOneChannelTbl()
	seg := &raytrace.Segment{
		P: 800, T: 270, DS: 1,
		U: []float64{1e18}, UBefore: []float64{0},
		CGPBefore: []float64{0}, CGTBefore: []float64{0},
	}
	ega, err := egaTransmittance(tbl, seg, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	cga, err := cgaTransmittance(tbl, seg, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ega-cga) > 1e-9 {
		t.Errorf("EGA and CGA must agree when the segment starts a fresh column (UBefore=0): ega=%g cga=%g", ega, cga)
	}
}

func TestSegmentEpsSrcInBounds(t *testing.T) {
	tbl := oneGasOneChannelTbl()
	c := testCtlSingleGas()
	seg := &raytrace.Segment{
		P: 800, T: 270, DS: 1,
		U: []float64{1e18}, UBefore: []float64{0}, K: []float64{1e-4},
		CGPBefore: []float64{0}, CGTBefore: []float64{0},
	}
	atm := testAtmSingleGas()
	eps, src, err := segmentEpsSrc(c, tbl, atm, seg)
	if err != nil {
		t.Fatal(err)
	}
	if eps[0] < 0 || eps[0] > 1 {
		t.Errorf("segment emissivity must lie in [0,1], got %g", eps[0])
	}
	if src[0] <= 0 {
		t.Errorf("segment source radiance must be positive, got %g", src[0])
	}
}

func TestIntegrateOpticalDepthAndRadiancePositive(t *testing.T) {
	tbl := oneGasOneChannelTbl()
	c := testCtlSingleGas()
	atm := testAtmSingleGas()
	ray := &atmos.Ray{Time: time.Now(), ObsZ: 800, ObsLon: 0, ObsLat: 0, VPZ: 0, VPLon: 0, VPLat: 0.001}

	los, err := raytrace.Trace(c, atm, ray)
	if err != nil {
		t.Fatal(err)
	}
	rad, tau, err := Integrate(c, tbl, atm, los, ray)
	if err != nil {
		t.Fatal(err)
	}
	if rad[0] <= 0 {
		t.Errorf("integrated radiance must be positive, got %g", rad[0])
	}
	if tau[0] < 0 || tau[0] > 1 {
		t.Errorf("residual transmittance must lie in [0,1], got %g", tau[0])
	}
}

func TestSurfaceEmissionTermIncreasesNadirRadiance(t *testing.T) {
	tbl := oneGasOneChannelTbl()
	atm := testAtmSingleGas()
	ray := &atmos.Ray{Time: time.Now(), ObsZ: 800, ObsLon: 0, ObsLat: 0, VPZ: 0, VPLon: 0, VPLat: 0.001}

	cNone := testCtlSingleGas()
	cNone.SfType = ctl.SurfaceNone
	losNone, err := raytrace.Trace(cNone, atm, ray)
	if err != nil {
		t.Fatal(err)
	}
	radNone, _, err := Integrate(cNone, tbl, atm, losNone, ray)
	if err != nil {
		t.Fatal(err)
	}

	cEm := testCtlSingleGas()
	cEm.SfType = ctl.SurfaceEmission
	losEm, err := raytrace.Trace(cEm, atm, ray)
	if err != nil {
		t.Fatal(err)
	}
	radEm, _, err := Integrate(cEm, tbl, atm, losEm, ray)
	if err != nil {
		t.Fatal(err)
	}

	if radEm[0] <= radNone[0] {
		t.Errorf("adding a warm emitting surface should increase nadir radiance: none=%g emission=%g", radNone[0], radEm[0])
	}
}

func TestNearestIndexFindsClosest(t *testing.T) {
	grid := []float64{700, 900, 1100}
	if got := nearestIndex(grid, 905); got != 1 {
		t.Errorf("nearestIndex(905) = %d, want 1", got)
	}
	if got := nearestIndex(nil, 900); got != -1 {
		t.Errorf("nearestIndex on an empty grid = %d, want -1", got)
	}
}
