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

package shadow

import (
	"math"

	"github.com/ubarsc/fmask/internal/raster"
)

// Defaults for the cloud-base height search range, metres (spec §4.7.2).
const (
	defaultHeightMin = 200.0
	defaultHeightMax = 12000.0
)

// dryAdiabaticLapseRate is Γd, degC per km (spec §4.7.2).
const dryAdiabaticLapseRate = 9.8

// extremeRadiusPixels is the component-radius threshold above which
// the BT-based cloud-base-temperature percentile formula switches from
// "use the minimum" to a percentile weighted by how much the object
// exceeds this radius (spec §4.7.2).
const extremeRadiusPixels = 8.0

// neighbourTolerancePixels rejects a match whose best displacement sits
// this close to the cloud itself (spec §4.7.2).
const neighbourTolerancePixels = 4.25

// similarityMatchedThreshold accepts every sample within this fraction
// of the running-max similarity as part of the final matched set (spec
// §4.7.2).
const similarityMatchedThreshold = 0.95

// minRunningMaxToStop is the minimum running-max similarity required
// before a descent is treated as the end of the search (spec §4.7.2).
const minRunningMaxToStop = 0.3

// MatchInputs bundles the scene-wide rasters the geometric matcher
// consults for every cloud component.
type MatchInputs struct {
	Cloud           *raster.Bool
	PotentialShadow *raster.Bool
	Water           *raster.Bool
	DEM             *raster.Grid // optional
	DEMNodataSentinel float64
	BT              *raster.Grid // optional
	SunElevationDeg float64
	SunAzimuthDeg   float64
	OutResolution   float64
	TempTestLow     float64
	TempTestHigh    float64
}

// Match implements spec §4.7.2: for every 8-connected cloud component,
// estimate a cloud-base height range, convert it to a pair of pixel
// displacements along the solar ray, sample similarity of the shifted
// cloud footprint against the potential-shadow mask along that
// segment, and OR the accepted shifted footprints into the returned
// shadow raster.
func Match(in MatchInputs) *raster.Bool {
	rows, cols := in.Cloud.Rows, in.Cloud.Cols
	out := raster.NewBool(rows, cols)

	labels, components := raster.Labels(in.Cloud)
	if len(components) == 0 {
		return out
	}

	var sceneBaseElevation float64
	if in.DEM != nil {
		validDEM := raster.NewBool(rows, cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				validDEM.Set(r, c, in.DEM.At(r, c) != in.DEMNodataSentinel)
			}
		}
		if values := raster.Select(in.DEM, validDEM); len(values) > 0 {
			if v, err := raster.Percentile(values, 0.001); err == nil {
				sceneBaseElevation = v
			}
		}
	}

	for _, comp := range components {
		footprint := componentPixels(labels, comp.Label, cols)
		hMin, hMax := heightRange(comp, footprint, in, sceneBaseElevation)

		h1px := hMin / in.OutResolution
		h2px := hMax / in.OutResolution
		dx1, dy1 := shadowDisplacement(h1px, in.SunElevationDeg, in.SunAzimuthDeg)
		dx2, dy2 := shadowDisplacement(h2px, in.SunElevationDeg, in.SunAzimuthDeg)

		n := maxInt(1, maxInt(absInt(dx2-dx1), absInt(dy2-dy1)))

		runningMax := -1.0
		argmaxDx, argmaxDy := dx1, dy1
		type sample struct {
			dx, dy     int
			similarity float64
			pixels     [][2]int
		}
		var accepted []sample

		for i := 0; i <= n; i++ {
			t := float64(i) / float64(n)
			dx := int(math.Round(float64(dx1) + t*float64(dx2-dx1)))
			dy := int(math.Round(float64(dy1) + t*float64(dy2-dy1)))

			shifted := translateAndTrim(footprint, dx, dy, rows, cols, in.Cloud)
			if len(shifted) == 0 {
				continue
			}
			if allWater(shifted, in.Water) {
				continue
			}
			similarity := similarityScore(shifted, in.PotentialShadow)

			if similarity > runningMax {
				runningMax = similarity
				argmaxDx, argmaxDy = dx, dy
			}
			accepted = append(accepted, sample{dx: dx, dy: dy, similarity: similarity, pixels: shifted})

			if runningMax > minRunningMaxToStop && similarity < similarityMatchedThreshold*runningMax {
				break
			}
		}

		if runningMax <= 0 {
			continue
		}
		if math.Hypot(float64(argmaxDx), float64(argmaxDy)) <= neighbourTolerancePixels {
			continue // rejected: best match too close to the cloud itself
		}

		threshold := similarityMatchedThreshold * runningMax
		for _, s := range accepted {
			if s.similarity >= threshold {
				for _, p := range s.pixels {
					out.Set(p[0], p[1], true)
				}
			}
		}
	}

	return out
}

// heightRange computes [H_min, H_max] for one cloud component, applying
// the optional DEM base-elevation adjustment and BT-based tightening
// (spec §4.7.2).
func heightRange(comp raster.Component, footprint [][2]int, in MatchInputs, sceneBaseElevation float64) (hMin, hMax float64) {
	hMin, hMax = defaultHeightMin, defaultHeightMax

	if in.DEM != nil {
		var demValues []float64
		for _, p := range footprint {
			v := in.DEM.At(p[0], p[1])
			if v != in.DEMNodataSentinel {
				demValues = append(demValues, v)
			}
		}
		if len(demValues) > 0 {
			if demHigh, err := raster.Percentile(demValues, 82.5); err == nil {
				adjustment := demHigh - sceneBaseElevation
				hMin += adjustment
				hMax += adjustment
			}
		}
	}

	if in.BT != nil {
		var btValues []float64
		for _, p := range footprint {
			btValues = append(btValues, in.BT.At(p[0], p[1]))
		}
		area := float64(comp.Area)
		r := math.Sqrt(area / (2 * math.Pi))

		var cloudBaseT float64
		if r >= extremeRadiusPixels {
			pct := 100 * (r - extremeRadiusPixels) * (r - extremeRadiusPixels) / (r * r)
			if v, err := raster.Percentile(append([]float64(nil), btValues...), pct); err == nil {
				cloudBaseT = v
			}
		} else {
			cloudBaseT = btValues[0]
			for _, v := range btValues {
				if v < cloudBaseT {
					cloudBaseT = v
				}
			}
		}

		tightMin := 10 * (in.TempTestLow - 400 - cloudBaseT) / dryAdiabaticLapseRate
		tightMax := 10 * (in.TempTestHigh + 400 - cloudBaseT)
		if tightMin > hMin {
			hMin = tightMin
		}
		if tightMax < hMax {
			hMax = tightMax
		}
	}

	return hMin, hMax
}

// shadowDisplacement converts a height in pixels plus sun geometry into
// a rounded (dx,dy) pixel displacement (spec §4.7.2), clamping the
// tangent denominator away from zero so low sun elevations cannot
// overflow before rounding (spec §8).
func shadowDisplacement(heightPx, sunElevationDeg, sunAzimuthDeg float64) (dx, dy int) {
	elevRad := sunElevationDeg * math.Pi / 180
	azRad := sunAzimuthDeg * math.Pi / 180
	tanElev := math.Tan(elevRad)
	const minTan = 1e-6
	if tanElev >= 0 && tanElev < minTan {
		tanElev = minTan
	} else if tanElev < 0 && tanElev > -minTan {
		tanElev = -minTan
	}
	l := heightPx / tanElev
	fx := -l * math.Sin(azRad)
	fy := l * math.Cos(azRad)
	const maxDisplacement = 1 << 20
	fx = clampFloat(fx, -maxDisplacement, maxDisplacement)
	fy = clampFloat(fy, -maxDisplacement, maxDisplacement)
	return int(math.Round(fx)), int(math.Round(fy))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// componentPixels lists the (row,col) pixels belonging to label.
func componentPixels(labels []int, label, cols int) [][2]int {
	var out [][2]int
	for i, l := range labels {
		if l == label {
			out = append(out, [2]int{i / cols, i % cols})
		}
	}
	return out
}

// translateAndTrim shifts footprint by (dx,dy), drops out-of-bounds
// pixels, and drops any pixel that overlaps the original cloud mask
// (spec §4.7.2, "trim self-overlap with the cloud").
func translateAndTrim(footprint [][2]int, dx, dy, rows, cols int, cloud *raster.Bool) [][2]int {
	var out [][2]int
	for _, p := range footprint {
		r, c := p[0]+dy, p[1]+dx
		if r < 0 || r >= rows || c < 0 || c >= cols {
			continue
		}
		if cloud.At(r, c) {
			continue
		}
		out = append(out, [2]int{r, c})
	}
	return out
}

func allWater(pixels [][2]int, water *raster.Bool) bool {
	for _, p := range pixels {
		if !water.At(p[0], p[1]) {
			return false
		}
	}
	return true
}

func similarityScore(shifted [][2]int, potentialShadow *raster.Bool) float64 {
	if len(shifted) == 0 {
		return 0
	}
	hits := 0
	for _, p := range shifted {
		if potentialShadow.At(p[0], p[1]) {
			hits++
		}
	}
	return float64(hits) / float64(len(shifted))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
