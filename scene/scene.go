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

// Package scene holds the read-mostly scene record that every stage of
// the classification pipeline consumes: sensor variant, solar
// geometry, band rasters and the boolean masks produced by ingest.
// It is a flat record of typed rasters and scalars, deliberately with
// no inheritance — sensor differences are captured by Sensor plus a
// handful of sensor-specific constants and optional bands.
package scene

import "github.com/ubarsc/fmask/internal/raster"

// Sensor tags which platform produced a scene, dispatching the small
// set of sensor-specific constants and optional bands (spec §3).
type Sensor int

const (
	// L08OLI is Landsat-8 OLI/TIRS.
	L08OLI Sensor = iota
	// S2MSI is Sentinel-2 MSI.
	S2MSI
)

func (s Sensor) String() string {
	switch s {
	case L08OLI:
		return "L08_OLI"
	case S2MSI:
		return "S2_MSI"
	default:
		return "unknown"
	}
}

// OutResolution returns the scene grid resolution in metres/pixel
// (spec §3: 30 for L8, 20 for S2).
func (s Sensor) OutResolution() float64 {
	if s == S2MSI {
		return 20
	}
	return 30
}

// CloudThreshold is the sensor-constant dynamic-threshold offset τ
// (spec §4.4: 17.5 for L8, 20 for S2).
func (s Sensor) CloudThreshold() float64 {
	if s == S2MSI {
		return 20
	}
	return 17.5
}

// ProbabilityWeight is the thin-cirrus probability weight w (spec
// §4.4: 0.3 for L8, 0.5 for S2).
func (s Sensor) ProbabilityWeight() float64 {
	if s == S2MSI {
		return 0.5
	}
	return 0.3
}

// ErodePixels is round(90 / out_resolution) (spec §3).
func (s Sensor) ErodePixels() int {
	return int(90.0/s.OutResolution() + 0.5)
}

// AbsoluteSnowWindow is the local-stddev window size used by absolute
// snow detection (spec §4.2: 333px for L8, 501px for S2, both ~10km).
func (s Sensor) AbsoluteSnowWindow() int {
	if s == S2MSI {
		return 501
	}
	return 333
}

// Band names the band rasters a Scene carries.
type Band int

const (
	BLUE Band = iota
	GREEN
	RED
	NIR
	SWIR1
	SWIR2
	CIRRUS // optional
	BT     // optional, hundredths of °C
	RED3   // S2 only, optional
	NIR2   // S2 only, optional
)

// SolarGeometry is the scene-wide sun position used by the shadow
// matcher (spec §4.7.2).
type SolarGeometry struct {
	SunElevationDeg float64
	SunAzimuthDeg   float64
}

// GeoTransform is the affine mapping from pixel (col,row) to
// projected coordinates, in the standard GDAL 6-element form.
type GeoTransform [6]float64

// Scene is the read-mostly record produced by ingest and consumed by
// every pipeline stage. It is mutated only at the two points spec §3
// documents: CIRRUS is replaced by its DEM-normalised version after
// PCP, and BT is replaced by its DEM-normalised version after
// potential-cloud probabilities. Both replacements are idempotent.
type Scene struct {
	Sensor Sensor
	Solar  SolarGeometry

	Rows, Cols int
	Transform  GeoTransform
	Projection string

	Bands map[Band]*raster.Grid

	NodataMask    *raster.Bool
	VisSaturation *raster.Bool
}

// Band looks up a band raster, returning (nil, false) if the scene
// does not carry it — every stage that consumes an optional band
// handles both cases explicitly (spec §9).
func (s *Scene) Band(b Band) (*raster.Grid, bool) {
	g, ok := s.Bands[b]
	return g, ok
}

// HasBT reports whether the scene carries a brightness-temperature
// band.
func (s *Scene) HasBT() bool {
	_, ok := s.Bands[BT]
	return ok
}

// HasCirrus reports whether the scene carries a cirrus band.
func (s *Scene) HasCirrus() bool {
	_, ok := s.Bands[CIRRUS]
	return ok
}

// SetBand replaces (or adds) a band raster. Used by the two
// documented in-place mutation points: CIRRUS and BT normalisation.
func (s *Scene) SetBand(b Band, g *raster.Grid) {
	if s.Bands == nil {
		s.Bands = make(map[Band]*raster.Grid)
	}
	s.Bands[b] = g
}
