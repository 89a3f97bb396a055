package ctl

import (
	"strings"
	"testing"
)

func TestDefaultSizesSlicesToDimensions(t *testing.T) {
	c := Default(3, 4, 2, 1, 5)
	if len(c.Emitter) != 3 || len(c.ErrQ) != 3 || len(c.ErrQCZ) != 3 || len(c.ErrQCH) != 3 || len(c.RetQ) != 3 {
		t.Error("gas-indexed slices must be sized to NG")
	}
	if len(c.Nu) != 4 || len(c.Window) != 4 || len(c.ErrNoise) != 4 || len(c.ErrFormod) != 4 {
		t.Error("channel-indexed slices must be sized to NC")
	}
	if len(c.RetK) != 2 {
		t.Error("window-indexed slices must be sized to NW")
	}
	if len(c.CLNu) != 1 {
		t.Error("cloud-indexed slices must be sized to NCL")
	}
	if len(c.SFNu) != 5 {
		t.Error("surface-indexed slices must be sized to NSF")
	}
}

func TestDefaultHasPhysicallySaneValues(t *testing.T) {
	c := Default(1, 1, 1, 1, 1)
	if c.SfType != SurfaceEmission {
		t.Errorf("default surface type = %v, want SurfaceEmission", c.SfType)
	}
	if !c.Refrac {
		t.Error("refraction should default to enabled")
	}
	if c.RayDS <= 0 || c.RayDZ <= 0 {
		t.Error("default ray step sizes must be positive")
	}
	if c.ConvItmax <= 0 || c.ConvDmin <= 0 {
		t.Error("default convergence parameters must be positive")
	}
}

func TestRetrievalWindowContainsIsInclusive(t *testing.T) {
	w := RetrievalWindow{ZMin: 5, ZMax: 10}
	for _, z := range []float64{5, 7.5, 10} {
		if !w.Contains(z) {
			t.Errorf("Contains(%g) = false, want true for a window boundary/interior point", z)
		}
	}
	for _, z := range []float64{4.999, 10.001} {
		if w.Contains(z) {
			t.Errorf("Contains(%g) = true, want false outside the window", z)
		}
	}
}

func TestRetrievalWindowEmptyWhenZMinExceedsZMax(t *testing.T) {
	w := RetrievalWindow{ZMin: 10, ZMax: 5}
	if w.Contains(7) || w.Contains(10) || w.Contains(5) {
		t.Error("an inverted window (ZMin>ZMax) must contain no altitude")
	}
}

func TestFromTOMLOverlaysFixtureOnDefaults(t *testing.T) {
	doc := `
NG = 1
NW = 1
NCL = 1
NSF = 1
Nu = [900.0]
Window = [0]
SfType = "emission"
Forward = "ega"
Refrac = true
RayDS = 25.0
RayDZ = 0.5
ConvItmax = 10
ConvDmin = 0.2
KernelRecomp = 2
ErrAna = true
`
	c, err := FromTOML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if c.NG != 1 || len(c.Nu) != 1 || c.Nu[0] != 900 {
		t.Errorf("Nu = %v, want [900]", c.Nu)
	}
	if c.SfType != SurfaceEmission {
		t.Errorf("SfType = %v, want SurfaceEmission", c.SfType)
	}
	if c.Forward != EGA {
		t.Errorf("Forward = %v, want EGA", c.Forward)
	}
	if c.RayDS != 25 || c.RayDZ != 0.5 {
		t.Errorf("RayDS/RayDZ = %g/%g, want 25/0.5", c.RayDS, c.RayDZ)
	}
	if c.ConvItmax != 10 || c.ConvDmin != 0.2 || c.KernelRecomp != 2 {
		t.Error("convergence overrides from the fixture were not applied")
	}
}

func TestFromTOMLRejectsMalformedDocument(t *testing.T) {
	if _, err := FromTOML(strings.NewReader("not = [valid toml")); err == nil {
		t.Error("expected an error decoding a malformed TOML document")
	}
}

func TestParseSurfaceTypeRoundTrip(t *testing.T) {
	cases := map[string]SurfaceType{
		"emission": SurfaceEmission,
		"downward": SurfaceDownward,
		"solar":    SurfaceSolar,
		"none":     SurfaceNone,
		"bogus":    SurfaceNone,
	}
	for in, want := range cases {
		if got := parseSurfaceType(in); got != want {
			t.Errorf("parseSurfaceType(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseForwardModelRoundTrip(t *testing.T) {
	cases := map[string]ForwardModel{
		"ega":      EGA,
		"external": External,
		"bogus":    CGA,
	}
	for in, want := range cases {
		if got := parseForwardModel(in); got != want {
			t.Errorf("parseForwardModel(%q) = %v, want %v", in, got, want)
		}
	}
}
