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

// Package morph implements the cloud-mask cleanup stage: NDBI line
// enhancement, false-positive (urban/bright-rock/snow-on-slope)
// candidate detection, and erode-then-dilate commission removal (spec
// §4.5, §4.6).
package morph

import "github.com/ubarsc/fmask/internal/raster"

// lineKernels are the four 3x3 line-detection templates (horizontal,
// vertical, and both diagonals), each normalised by 6 (spec §4.6).
var lineKernels = [4][3][3]float64{
	{ // horizontal
		{-1.0 / 6, -1.0 / 6, -1.0 / 6},
		{2.0 / 6, 2.0 / 6, 2.0 / 6},
		{-1.0 / 6, -1.0 / 6, -1.0 / 6},
	},
	{ // vertical
		{-1.0 / 6, 2.0 / 6, -1.0 / 6},
		{-1.0 / 6, 2.0 / 6, -1.0 / 6},
		{-1.0 / 6, 2.0 / 6, -1.0 / 6},
	},
	{ // diagonal, top-right to bottom-left
		{-1.0 / 6, -1.0 / 6, 2.0 / 6},
		{-1.0 / 6, 2.0 / 6, -1.0 / 6},
		{2.0 / 6, -1.0 / 6, -1.0 / 6},
	},
	{ // diagonal, top-left to bottom-right
		{2.0 / 6, -1.0 / 6, -1.0 / 6},
		{-1.0 / 6, 2.0 / 6, -1.0 / 6},
		{-1.0 / 6, -1.0 / 6, 2.0 / 6},
	},
}

// EnhanceLine convolves ndbi with the four line-detection templates and
// takes the per-pixel maximum response, run once before false-positive
// detection (spec §9 open question: "enhance once").
func EnhanceLine(ndbi *raster.Grid) *raster.Grid {
	responses := make([]*raster.Grid, len(lineKernels))
	for i, k := range lineKernels {
		responses[i] = raster.Convolve3x3(ndbi, k)
	}
	return raster.Max(responses...)
}

// snowSlopeDegrees is the slope threshold above which snow is also
// treated as a false-positive candidate (spec §4.6).
const snowSlopeDegrees = 20.0

// FalsePositiveInputs bundles the optional rasters the false-positive
// candidate test consults.
type FalsePositiveInputs struct {
	EnhancedNDBI, NDVI *raster.Grid
	Nodata, Water      *raster.Bool
	Cloud              *raster.Bool // current cloud mask, unioned into the Otsu population
	BT                 *raster.Grid // optional
	CDI                *raster.Grid // optional (S2)
	Slope              *raster.Grid // optional, degrees
	Snow               *raster.Bool
	OutResolution      float64
}

// FalsePositiveCandidates implements spec §4.6: urban/bright-rock
// baseline, optional BT-Otsu gating, optional CDI veto, optional
// snow-on-slope addition, a square buffer dilation, and a final OR
// with snow / AND with not-nodata.
func FalsePositiveCandidates(in FalsePositiveInputs) (*raster.Bool, error) {
	rows, cols := in.EnhancedNDBI.Rows, in.EnhancedNDBI.Cols

	baseline := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ndbi := in.EnhancedNDBI.At(r, c)
			v := ndbi > 0 && ndbi > in.NDVI.At(r, c) && !in.Nodata.At(r, c) && !in.Water.At(r, c)
			baseline.Set(r, c, v)
		}
	}

	candidates := baseline
	if in.BT != nil {
		otsuPopulation := raster.Or(baseline, in.Cloud)
		threshold, err := Otsu(in.BT, otsuPopulation)
		if err != nil {
			return nil, err
		}
		aboveOtsu := raster.NewBool(rows, cols)
		minAboveOtsu := threshold
		found := false
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if otsuPopulation.At(r, c) && in.BT.At(r, c) >= threshold {
					aboveOtsu.Set(r, c, true)
					if !found || in.BT.At(r, c) < minAboveOtsu {
						minAboveOtsu = in.BT.At(r, c)
						found = true
					}
				}
			}
		}
		gated := raster.NewBool(rows, cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				gated.Set(r, c, baseline.At(r, c) && (!found || in.BT.At(r, c) >= minAboveOtsu))
			}
		}
		candidates = gated
	}

	if in.CDI != nil {
		vetoed := candidates.Clone()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if in.CDI.At(r, c) < -0.8 {
					vetoed.Set(r, c, false)
				}
			}
		}
		candidates = vetoed
	}

	if in.Slope != nil {
		withSlope := candidates.Clone()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if in.Snow.At(r, c) && in.Slope.At(r, c) > snowSlopeDegrees {
					withSlope.Set(r, c, true)
				}
			}
		}
		candidates = withSlope
	}

	halfWidth := int(250.0 / in.OutResolution)
	buffered := raster.DilateSquareRadius(candidates, halfWidth)

	final := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := (buffered.At(r, c) || in.Snow.At(r, c)) && !in.Nodata.At(r, c)
			final.Set(r, c, v)
		}
	}
	return final, nil
}
