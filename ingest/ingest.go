/*
Copyright © 2024 the fmask-go authors.
This file is part of fmask-go.

fmask-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fmask-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fmask-go.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package ingest defines the sensor-detection capability set (spec
// §6, §9): "platform" adapters are {IsPlatform(path), GetData(path)},
// implemented as a registry of candidates tried in order. Decoding
// Landsat-8 MTL / Sentinel-2 MTD metadata, opening band rasters,
// resampling to the scene grid and converting to TOA reflectance/BT
// is out of scope (spec.md §1) — this package only carries the
// contract and the unit-conversion formulas callers must apply.
package ingest

import (
	"fmt"
	"math"

	"github.com/ubarsc/fmask/scene"
)

// Detector is the capability set a platform adapter implements.
type Detector interface {
	// IsPlatform reports whether path names metadata this detector
	// understands (by filename pattern, e.g. "*_MTL.txt"/"*_MTL.xml"
	// for Landsat-8, "MTD_*" for Sentinel-2).
	IsPlatform(path string) bool
	// GetData decodes path and returns a populated Scene.
	GetData(path string) (*scene.Scene, error)
}

// Registry holds an ordered list of detectors tried in turn, so
// callers can register additional detectors (spec §6: "callers MAY
// register additional detectors").
type Registry struct {
	detectors []Detector
}

// NewRegistry returns a Registry pre-seeded with detectors, in the
// order they should be tried.
func NewRegistry(detectors ...Detector) *Registry {
	return &Registry{detectors: detectors}
}

// Register appends a detector to the end of the try-order.
func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

// Open finds the first detector that claims path and decodes it.
func (r *Registry) Open(path string) (*scene.Scene, error) {
	for _, d := range r.detectors {
		if d.IsPlatform(path) {
			return d.GetData(path)
		}
	}
	return nil, fmt.Errorf("ingest: no registered detector recognises %q", path)
}

// ReflectanceScale converts a digital number to the scene's scaled
// reflectance units (10000 ≈ reflectance 1.0), per spec §6:
// 10000*(gain*DN+offset)/sin(elevation). DN==0 must be mapped to the
// nodata sentinel by the caller, not by this function.
func ReflectanceScale(dn float64, gain, offset, sunElevationDeg float64) float64 {
	sinElev := math.Sin(sunElevationDeg * math.Pi / 180)
	return 10000 * (gain*dn + offset) / sinElev
}

// BrightnessTemperatureCelsiusHundredths converts a thermal DN to
// brightness temperature in hundredths of a degree Celsius via the
// Planck K1/K2 inversion (spec §6): T[K] = K2/ln(K1/Lambda + 1),
// Lambda = gain*DN+offset; output is (T[K]-273.15)*100.
func BrightnessTemperatureCelsiusHundredths(dn, gain, offset, k1, k2 float64) float64 {
	lambda := gain*dn + offset
	tKelvin := k2 / math.Log(k1/lambda+1)
	return (tKelvin - 273.15) * 100
}

// NodataSentinel is the in-band nodata value used throughout Scene
// rasters (spec §3).
const NodataSentinel = -9999
