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

// Package pcp computes the potential-cloud-pixel (PCP) test: the union
// of basic spectral/whiteness/HOT/ratio tests with an optional cirrus
// test, the entry gate to the probability stage (spec §4.3).
package pcp

import (
	"math"

	"github.com/ubarsc/fmask/internal/raster"
)

// Inputs bundles the band/index rasters the PCP test reads. BT and
// Cirrus are optional (nil when absent), per spec §9 sum-type handling.
type Inputs struct {
	NDSI, NDVI           *raster.Grid
	Blue, Green, Red     *raster.Grid
	NIR, SWIR1, SWIR2    *raster.Grid
	BT                   *raster.Grid // optional
	Cirrus               *raster.Grid // optional
	DEM                  *raster.Grid // optional, for cirrus stratification
	DEMNodataSentinel    float64
	Nodata, VisSaturated *raster.Bool
}

// Result holds PCP and the intermediate rasters later stages need.
type Result struct {
	PCP              *raster.Bool
	Whiteness        *raster.Grid
	HOT              *raster.Grid
	NormalizedCirrus *raster.Grid // nil if Cirrus absent
}

// cirrusLowPercentile is the percentile subtracted during cirrus
// normalisation (spec §4.3).
const cirrusLowPercentile = 2.0

// demBinWidth is the elevation bin width for stratified cirrus
// normalisation (spec §4.3).
const demBinWidth = 100.0

// minDEMPixelsForStratification is the minimum valid-DEM population
// required before stratified cirrus normalisation is attempted; below
// this, normalisation falls back to a single global percentile.
const minDEMPixelsForStratification = 100

// Compute runs the full PCP test (spec §4.3): a basic spectral/
// whiteness/HOT/ratio test, normalises CIRRUS (if present) over the
// pixels that fail the basic test, and unions normalized_cirrus > 100
// into the final PCP.
func Compute(in Inputs) (Result, error) {
	rows, cols := in.NDSI.Rows, in.NDSI.Cols

	whiteness := computeWhiteness(in.Blue, in.Green, in.Red, in.VisSaturated)
	hot := raster.Apply2(in.Blue, in.Red, func(b, r float64) float64 { return b - 0.5*r - 800 })

	base := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ok := in.NDSI.At(r, c) < 0.8 &&
				in.NDVI.At(r, c) < 0.8 &&
				in.SWIR2.At(r, c) > 300
			if ok && in.BT != nil {
				ok = in.BT.At(r, c) < 2700
			}
			ok = ok && whiteness.At(r, c) < 0.7
			ok = ok && (hot.At(r, c) > 0 || in.VisSaturated.At(r, c))
			ok = ok && safeRatio(in.NIR.At(r, c), in.SWIR1.At(r, c)) > 0.75
			base.Set(r, c, ok)
		}
	}

	result := Result{PCP: base, Whiteness: whiteness, HOT: hot}
	if in.Cirrus == nil {
		return result, nil
	}

	clearSky := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			clearSky.Set(r, c, !base.At(r, c) && !in.Nodata.At(r, c))
		}
	}

	normCirrus, err := normalizeCirrus(in.Cirrus, clearSky, in.DEM, in.DEMNodataSentinel)
	if err != nil {
		return Result{}, err
	}
	result.NormalizedCirrus = normCirrus

	final := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			final.Set(r, c, base.At(r, c) || normCirrus.At(r, c) > 100)
		}
	}
	result.PCP = final
	return result, nil
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// computeWhiteness implements spec §4.3: whiteness = (|B-m|+|G-m|+|R-m|)/m,
// zeroed wherever any RGB band is visually saturated.
func computeWhiteness(blue, green, red *raster.Grid, visSaturated *raster.Bool) *raster.Grid {
	rows, cols := blue.Rows, blue.Cols
	out := raster.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if visSaturated.At(r, c) {
				out.Set(r, c, 0)
				continue
			}
			b, g, rd := blue.At(r, c), green.At(r, c), red.At(r, c)
			m := (b + g + rd) / 3
			var w float64
			if m != 0 {
				w = (math.Abs(b-m) + math.Abs(g-m) + math.Abs(rd-m)) / m
			}
			out.Set(r, c, w)
		}
	}
	return out
}

// normalizeCirrus subtracts a low percentile of CIRRUS taken over
// clearSky pixels, optionally stratified by elevation into 100m bins
// when dem carries enough valid pixels, clipping negatives to 0.
func normalizeCirrus(cirrus *raster.Grid, clearSky *raster.Bool, dem *raster.Grid, demNodata float64) (*raster.Grid, error) {
	rows, cols := cirrus.Rows, cirrus.Cols

	if dem == nil {
		return globalCirrusNormalization(cirrus, clearSky)
	}

	validDEM := raster.NewBool(rows, cols)
	validCount := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if clearSky.At(r, c) && dem.At(r, c) != demNodata {
				validDEM.Set(r, c, true)
				validCount++
			}
		}
	}
	if validCount < minDEMPixelsForStratification {
		return globalCirrusNormalization(cirrus, clearSky)
	}

	demValues := raster.Select(dem, validDEM)
	demLow, err := raster.Percentile(append([]float64(nil), demValues...), 0.001)
	if err != nil {
		return nil, err
	}
	demHigh, err := raster.Percentile(append([]float64(nil), demValues...), 99.999)
	if err != nil {
		return nil, err
	}

	numBins := int(math.Ceil((demHigh-demLow)/demBinWidth)) + 1
	if numBins < 1 {
		numBins = 1
	}
	binOffsets := make([]float64, numBins)
	binCounts := make([]int, numBins)
	binSamples := make([][]float64, numBins)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !validDEM.At(r, c) {
				continue
			}
			bi := int((dem.At(r, c) - demLow) / demBinWidth)
			if bi < 0 {
				bi = 0
			}
			if bi >= numBins {
				bi = numBins - 1
			}
			binSamples[bi] = append(binSamples[bi], cirrus.At(r, c))
			binCounts[bi]++
		}
	}
	globalLow, err := globalLowPercentile(cirrus, clearSky)
	if err != nil {
		return nil, err
	}
	for i, samples := range binSamples {
		if len(samples) == 0 {
			binOffsets[i] = globalLow
			continue
		}
		p, err := raster.Percentile(samples, cirrusLowPercentile)
		if err != nil {
			return nil, err
		}
		binOffsets[i] = p
	}

	out := raster.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			offset := globalLow
			if validDEM.At(r, c) {
				bi := int((dem.At(r, c) - demLow) / demBinWidth)
				bi = clampInt(bi, 0, numBins-1)
				offset = binOffsets[bi]
			}
			v := cirrus.At(r, c) - offset
			if v < 0 {
				v = 0
			}
			out.Set(r, c, v)
		}
	}
	return out, nil
}

func globalCirrusNormalization(cirrus *raster.Grid, clearSky *raster.Bool) (*raster.Grid, error) {
	offset, err := globalLowPercentile(cirrus, clearSky)
	if err != nil {
		return nil, err
	}
	rows, cols := cirrus.Rows, cirrus.Cols
	out := raster.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := cirrus.At(r, c) - offset
			if v < 0 {
				v = 0
			}
			out.Set(r, c, v)
		}
	}
	return out, nil
}

func globalLowPercentile(cirrus *raster.Grid, clearSky *raster.Bool) (float64, error) {
	values := raster.Select(cirrus, clearSky)
	if len(values) == 0 {
		return 0, raster.ErrEmptySelection
	}
	return raster.Percentile(values, cirrusLowPercentile)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
