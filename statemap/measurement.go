package statemap

import "github.com/spatialmodel/raytran/atmos"

// Obs2Y packs obs's per-ray per-channel radiances into the measurement
// vector y, in ray-major, channel-minor order, with parallel arrays ida
// (channel index) and ira (ray index) recording each entry's origin.
func Obs2Y(obs *atmos.Obs) (y []float64, ida, ira []int) {
	for ir, ray := range obs.Rays {
		for id, rad := range ray.Rad {
			y = append(y, rad)
			ida = append(ida, id)
			ira = append(ira, ir)
		}
	}
	return y, ida, ira
}

// Y2Obs is Obs2Y's inverse: it overwrites obs.Rays[ira[n]].Rad[ida[n]] with
// y[n]. obs must already hold the measurement's transmittances (and any
// radiance not addressed by y), which Y2Obs leaves untouched, mirroring
// X2Atm's a-priori-preservation contract.
func Y2Obs(y []float64, ida, ira []int, obs *atmos.Obs) {
	for n := range y {
		obs.Rays[ira[n]].Rad[ida[n]] = y[n]
	}
}
