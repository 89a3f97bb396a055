package raytrace

import (
	"math"
	"testing"
	"time"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/ctl"
)

func testAtm() *atmos.Atm {
	levels := make([]atmos.Level, 0, 41)
	for i := 0; i <= 40; i++ {
		z := float64(i)
		p := 1013.25 * math.Exp(-z/7.0)
		tK := 290 - 6.5*math.Min(z, 11) + 0.5*math.Max(0, z-11)
		levels = append(levels, atmos.Level{
			Z: z, Lon: 0, Lat: 0, P: p, T: tK,
			Q: []float64{0.01 * math.Exp(-z/2)},
			K: []float64{1e-4 * math.Exp(-z/3)},
		})
	}
	return &atmos.Atm{Levels: levels, CLZ: 100, CLDZ: 1, CLK: []float64{0}, SFT: 290, SFEPS: []float64{0.95}}
}

func testCtl() *ctl.Ctl {
	c := ctl.Default(1, 1, 1, 1, 1)
	c.RayDS = 5
	c.RayDZ = 0.5
	c.Refrac = false
	return c
}

func TestTraceNadirHasNoTangentAndHitsSurface(t *testing.T) {
	atm := testAtm()
	c := testCtl()
	ray := &atmos.Ray{Time: time.Now(), ObsZ: 800, ObsLon: 0, ObsLat: 0, VPZ: 0, VPLon: 0, VPLat: 0.001}

	los, err := Trace(c, atm, ray)
	if err != nil {
		t.Fatal(err)
	}
	if !los.Surface {
		t.Error("a ray aimed at the ground should set Surface=true")
	}
	if !math.IsNaN(los.TanZ) {
		t.Errorf("a nadir-like ray to the surface should have no limb tangent, got TanZ=%g", los.TanZ)
	}
	if len(los.Segments) == 0 {
		t.Fatal("expected at least one segment")
	}
}

func TestTraceLimbHasTangentNearMinimumAltitude(t *testing.T) {
	atm := testAtm()
	c := testCtl()
	// A limb ray: observer and view point both in orbit at the same
	// altitude, symmetric about lon=0, so the chord dips to a tangent
	// altitude of roughly 20 km before rising back out (chord-sagitta
	// geometry: Robs*cos(halfAngle) - RE).
	ray := &atmos.Ray{ObsZ: 800, ObsLon: -27, ObsLat: 0, VPZ: 800, VPLon: 27, VPLat: 0}

	los, err := Trace(c, atm, ray)
	if err != nil {
		t.Fatal(err)
	}
	if los.Surface {
		t.Fatal("this geometry should not intersect the ground")
	}
	if math.IsNaN(los.TanZ) {
		t.Fatal("expected a limb tangent point for a grazing chord between two high altitude points")
	}

	minZ := math.Inf(1)
	for _, seg := range los.Segments {
		if seg.Z < minZ {
			minZ = seg.Z
		}
	}
	if math.Abs(los.TanZ-minZ) > 1.0 {
		t.Errorf("tangent altitude %g should be close to the minimum sampled altitude %g", los.TanZ, minZ)
	}
}

func TestSegmentColumnDensityMonotonicallyAccumulates(t *testing.T) {
	atm := testAtm()
	c := testCtl()
	ray := &atmos.Ray{ObsZ: 800, ObsLon: -27, ObsLat: 0, VPZ: 800, VPLon: 27, VPLat: 0}

	los, err := Trace(c, atm, ray)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(los.Segments); i++ {
		prev, cur := los.Segments[i-1], los.Segments[i]
		wantUBefore := prev.UBefore[0] + prev.U[0]
		if math.Abs(cur.UBefore[0]-wantUBefore) > 1e-9*math.Max(1, wantUBefore) {
			t.Errorf("segment %d UBefore = %g, want %g (cumulative)", i, cur.UBefore[0], wantUBefore)
		}
		if cur.U[0] < 0 {
			t.Errorf("segment %d has negative column density %g", i, cur.U[0])
		}
	}
}

func TestSegmentLengthsRespectMaxDS(t *testing.T) {
	atm := testAtm()
	c := testCtl()
	ray := &atmos.Ray{ObsZ: 800, ObsLon: 0, ObsLat: 0, VPZ: 20, VPLon: 1, VPLat: 0}

	los, err := Trace(c, atm, ray)
	if err != nil {
		t.Fatal(err)
	}
	for i, seg := range los.Segments {
		if seg.DS > c.RayDS+1e-9 {
			t.Errorf("segment %d has ds=%g, exceeds RayDS=%g", i, seg.DS, c.RayDS)
		}
	}
}

func TestAirDensityPositive(t *testing.T) {
	if AirDensity(1013, 288) <= 0 {
		t.Error("AirDensity must be positive at standard conditions")
	}
}
