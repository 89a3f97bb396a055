// Package formod composes the raytracer and bandrt into the per-ray
// forward model: ray integration, optional FOV convolution, optional
// brightness-temperature output, fanned out across a bounded pool of
// worker goroutines that each claim a disjoint stripe of the ray index.
package formod

import (
	"math"
	"runtime"
	"sync"

	"github.com/spatialmodel/raytran/atmos"
	"github.com/spatialmodel/raytran/bandrt"
	"github.com/spatialmodel/raytran/ctl"
	"github.com/spatialmodel/raytran/internal/rtlog"
	"github.com/spatialmodel/raytran/internal/timing"
	"github.com/spatialmodel/raytran/raytrace"
	"github.com/spatialmodel/raytran/table"
)

var log = rtlog.New("formod")

// Run computes obs.Rays[i].Rad/Tau (and TPZ/TPLon/TPLat) for every ray in
// obs against atm, striping the ray index across runtime.GOMAXPROCS(0)
// worker goroutines: each ray's LOS buffer is private, and results land in
// disjoint obs.Rays[i] slots, so no synchronization beyond the final
// WaitGroup join is required.
func Run(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, obs *atmos.Obs) error {
	idx := make([]int, len(obs.Rays))
	for i := range idx {
		idx[i] = i
	}
	return RunRays(c, tbl, atm, obs, idx)
}

// RunRays is Run restricted to the given ray indices, striped across
// runtime.GOMAXPROCS(0) worker goroutines the same way. The jacobian
// package uses this to re-evaluate only the rays a perturbed profile level
// can influence, instead of the full Formod pass, when building one
// Jacobian column.
func RunRays(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, obs *atmos.Obs, rayIdx []int) error {
	defer timing.Start("formod.Run")()

	n := len(rayIdx)
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	if nprocs < 1 {
		nprocs = 1
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for j := pp; j < n; j += nprocs {
				ir := rayIdx[j]
				errs[j] = runOneRay(c, tbl, atm, &obs.Rays[ir])
			}
		}(pp)
	}
	wg.Wait()

	for j, err := range errs {
		if err != nil {
			log.Errorf("ray %d: %v", rayIdx[j], err)
			return err
		}
	}

	if c.WriteBBT {
		for _, ir := range rayIdx {
			ray := &obs.Rays[ir]
			for d, r := range ray.Rad {
				ray.Rad[d] = table.Bright(r, c.Nu[d])
			}
		}
	}
	return nil
}

// runOneRay computes one ray's radiance/transmittance in place, either as a
// single pencil-beam integration or, when c.FOV is configured, as the
// weighted convolution of NFOV synthetic pencil-beam rays offset in view
// altitude.
func runOneRay(c *ctl.Ctl, tbl *table.Tbl, atm *atmos.Atm, ray *atmos.Ray) error {
	offsets, weights := fovOffsets(c.FOV, c.NFOV, c.FOVWidth)

	rad := make([]float64, c.NC)
	tau := make([]float64, c.NC)
	var tpZ, tpLon, tpLat float64
	var haveTangent bool

	for i, off := range offsets {
		synth := *ray
		synth.VPZ = ray.VPZ + off

		los, err := raytrace.Trace(c, atm, &synth)
		if err != nil {
			return err
		}
		r, t, err := bandrt.Integrate(c, tbl, atm, los, &synth)
		if err != nil {
			return err
		}
		w := weights[i]
		for d := range rad {
			rad[d] += w * r[d]
			tau[d] += w * t[d]
		}
		if i == 0 || off == 0 {
			if !math.IsNaN(los.TanZ) {
				tpZ, tpLon, tpLat = los.TanZ, los.TanLon, los.TanLat
				haveTangent = true
			}
		}
	}

	ray.Rad = rad
	ray.Tau = tau
	if haveTangent {
		ray.TPZ, ray.TPLon, ray.TPLat = tpZ, tpLon, tpLat
	} else {
		ray.ClearTangent()
	}
	return nil
}
