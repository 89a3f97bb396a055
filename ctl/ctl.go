// Package ctl holds the in-memory configuration object Ctl. Parsing the
// newline-separated "KEY value" control file format some deployments use
// on disk is an external collaborator and out of scope here; this package
// only provides a zero-value-safe default and an optional declarative
// TOML loader for tests and fixtures.
package ctl

import (
	"io"

	"github.com/BurntSushi/toml"

	"github.com/spatialmodel/raytran/rterr"
)

// SurfaceType selects the surface-reflection term of bandrt's ray
// integration.
type SurfaceType int

const (
	SurfaceNone SurfaceType = iota
	SurfaceEmission
	SurfaceDownward
	SurfaceSolar
)

// ForwardModel selects the transmittance approximation bandrt uses.
type ForwardModel int

const (
	CGA ForwardModel = iota
	EGA
	External
)

// FOVShape selects the field-of-view convolution weight function.
type FOVShape int

const (
	FOVNone FOVShape = iota
	FOVBoxcar
	FOVTriangular
	FOVGaussian
)

// RetrievalWindow is an altitude range [ZMin, ZMax] within which a
// quantity's levels are retrieved (packed into x by statemap).
type RetrievalWindow struct {
	ZMin, ZMax float64
}

// Contains reports whether altitude z lies in the window (inclusive).
func (w RetrievalWindow) Contains(z float64) bool { return z >= w.ZMin && z <= w.ZMax }

// Ctl is the forward-model and retrieval configuration.
type Ctl struct {
	NG  int      // number of gases/emitters
	NC  int      // number of channels
	NW  int      // number of spectral windows
	NCL int      // number of cloud grid points
	NSF int      // number of surface grid points

	Emitter []string  // gas names, length NG
	Nu      []float64 // channel centroid wavenumbers [cm^-1], length NC
	Window  []int     // per-channel spectral window index, length NC

	CLNu []float64 // cloud-grid centroid wavenumbers, length NCL
	SFNu []float64 // surface-grid centroid wavenumbers, length NSF

	SfType SurfaceType
	SfSZA  float64 // solar zenith angle override [deg], geokit.AutoSZA = auto

	Forward ForwardModel
	Refrac  bool

	CtmCO2, CtmH2O, CtmN2, CtmO2 bool

	RayDS float64 // max ray segment length [km]
	RayDZ float64 // max per-segment vertical excursion [km]

	FOV      FOVShape
	NFOV     int // number of synthetic FOV rays, default 5
	FOVWidth float64

	RetP RetrievalWindow
	RetT RetrievalWindow
	RetQ []RetrievalWindow // length NG
	RetK []RetrievalWindow // length NW

	RetCLZ, RetCLDZ, RetCLK, RetSFT, RetSFEPS bool

	ErrNoise  []float64 // length NC
	ErrFormod []float64 // length NC
	ErrP      float64
	ErrT      float64
	ErrQ      []float64 // length NG, fractional
	ErrQCZ    []float64 // correlation length (vertical) per gas [km]
	ErrQCH    []float64 // correlation length (horizontal) per gas [km]

	ConvItmax     int
	ConvDmin      float64
	KernelRecomp  int
	ErrAna        bool
	WriteMatrix   bool
	WriteBBT      bool

	TblBase string
	TblFmt  TableFormat
}

// TableFormat selects the on-disk table encoding; relevant only to the
// external table-loading collaborator, carried here because it is itself
// a Ctl field.
type TableFormat int

const (
	TblASCII TableFormat = iota
	TblBinary
	TblBinaryGasGrouped
)

// Default returns a Ctl with physically sane defaults and correctly sized
// slices for the given dimensions, matching the "zero-value-safe" contract
// every subsequent package (statemap, raytrace, bandrt) relies on.
func Default(ng, nc, nw, ncl, nsf int) *Ctl {
	c := &Ctl{
		NG: ng, NC: nc, NW: nw, NCL: ncl, NSF: nsf,
		Emitter: make([]string, ng),
		Nu:      make([]float64, nc),
		Window:  make([]int, nc),
		SfType:  SurfaceEmission,
		SfSZA:   geokitAutoSZA,
		Forward: EGA,
		Refrac:  true,
		RayDS:   50,
		RayDZ:   1,
		FOV:     FOVNone,
		NFOV:    5,
		CLNu:    make([]float64, ncl),
		SFNu:    make([]float64, nsf),
		RetQ:    make([]RetrievalWindow, ng),
		RetK:    make([]RetrievalWindow, nw),
		ErrNoise:  make([]float64, nc),
		ErrFormod: make([]float64, nc),
		ErrQ:      make([]float64, ng),
		ErrQCZ:    make([]float64, ng),
		ErrQCH:    make([]float64, ng),
		ConvItmax:    20,
		ConvDmin:     0.1,
		KernelRecomp: 1,
		ErrAna:       true,
	}
	return c
}

// geokitAutoSZA mirrors geokit.AutoSZA without importing geokit, so ctl has
// no dependency on the geometry package it configures.
const geokitAutoSZA = -999.0

// fixture is the subset of Ctl exposed to declarative TOML loading.
type fixture struct {
	NG, NW, NCL, NSF int
	Emitter          []string
	Nu               []float64
	Window           []int
	SfType           string
	SfSZA            float64
	Forward          string
	Refrac           bool
	RayDS, RayDZ     float64
	ConvItmax        int
	ConvDmin         float64
	KernelRecomp     int
	ErrAna           bool
}

// FromTOML loads the declarative subset of Ctl from r, building a full
// Default()-initialized Ctl and overlaying the fixture fields on top. It
// does not implement the "KEY value" control-file grammar some
// deployments use on disk — that parser is an external collaborator —
// this is the declarative-config convenience for tests and programs that
// want a fixture instead of building a Ctl literal by hand.
func FromTOML(r io.Reader) (*Ctl, error) {
	var fx fixture
	if _, err := toml.NewDecoder(r).Decode(&fx); err != nil {
		return nil, rterr.Wrap(rterr.Config, err, "decoding TOML control fixture")
	}
	c := Default(fx.NG, len(fx.Nu), fx.NW, fx.NCL, fx.NSF)
	if fx.Emitter != nil {
		c.Emitter = fx.Emitter
	}
	c.Nu = fx.Nu
	if fx.Window != nil {
		c.Window = fx.Window
	}
	c.SfType = parseSurfaceType(fx.SfType)
	if fx.SfSZA != 0 {
		c.SfSZA = fx.SfSZA
	}
	c.Forward = parseForwardModel(fx.Forward)
	c.Refrac = fx.Refrac
	if fx.RayDS > 0 {
		c.RayDS = fx.RayDS
	}
	if fx.RayDZ > 0 {
		c.RayDZ = fx.RayDZ
	}
	if fx.ConvItmax > 0 {
		c.ConvItmax = fx.ConvItmax
	}
	if fx.ConvDmin > 0 {
		c.ConvDmin = fx.ConvDmin
	}
	if fx.KernelRecomp > 0 {
		c.KernelRecomp = fx.KernelRecomp
	}
	c.ErrAna = fx.ErrAna
	return c, nil
}

func parseSurfaceType(s string) SurfaceType {
	switch s {
	case "emission":
		return SurfaceEmission
	case "downward":
		return SurfaceDownward
	case "solar":
		return SurfaceSolar
	default:
		return SurfaceNone
	}
}

func parseForwardModel(s string) ForwardModel {
	switch s {
	case "ega":
		return EGA
	case "external":
		return External
	default:
		return CGA
	}
}
