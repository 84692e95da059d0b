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

// Package shadow implements the flood-filled potential-shadow raster
// and the cloud-object to cloud-shadow geometric matcher (spec §4.7).
package shadow

import "github.com/ubarsc/fmask/internal/raster"

// probabilityThreshold is the shadow-probability cutoff used to form
// the boolean potential-shadow mask. The source's original threshold
// of 200 was raised to 500 deliberately, trading recall for fewer
// false shadow commissions (spec §9); kept as the default here.
const probabilityThreshold = 500.0

// minComponentArea removes connected components of the potential
// shadow mask below this size (spec §4.7.1).
const minComponentArea = 3

// NodataSentinel is painted into the potential-shadow probability
// raster inside nodata, and treated as non-shadow by every downstream
// consumer (spec §4.7.1).
const NodataSentinel = 255.0

// clearLandFillPercentile is the percentile of clear-land pixels used
// to fill nodata before flood-filling NIR/SWIR1 (spec §4.7.1).
const clearLandFillPercentile = 17.5

// Potential computes the potential-shadow probability and boolean
// mask: nodata in NIR/SWIR1 is filled with the 17.5th percentile of
// clear-land pixels, each band is flood-filled (imfill) via grey-scale
// reconstruction by erosion, the per-band fill-minus-original
// difference is taken, and probability = min(diffNIR, diffSWIR1).
func Potential(nir, swir1 *raster.Grid, clearLand *raster.Bool, nodata *raster.Bool) (probability *raster.Grid, mask *raster.Bool, err error) {
	filledNIR, err := fillNodata(nir, clearLand, nodata)
	if err != nil {
		return nil, nil, err
	}
	filledSWIR1, err := fillNodata(swir1, clearLand, nodata)
	if err != nil {
		return nil, nil, err
	}

	diffNIR := imfillDifference(filledNIR)
	diffSWIR1 := imfillDifference(filledSWIR1)

	rows, cols := nir.Rows, nir.Cols
	probability = raster.Apply2(diffNIR, diffSWIR1, func(a, b float64) float64 {
		if a < b {
			return a
		}
		return b
	})

	raw := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			raw.Set(r, c, probability.At(r, c) > probabilityThreshold)
		}
	}
	mask = raster.RemoveSmall(raw, minComponentArea)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if nodata.At(r, c) {
				probability.Set(r, c, NodataSentinel)
				mask.Set(r, c, false)
			}
		}
	}

	return probability, mask, nil
}

// fillNodata replaces nodata pixels of g with the clearLandFillPercentile
// of g over clearLand pixels.
func fillNodata(g *raster.Grid, clearLand *raster.Bool, nodata *raster.Bool) (*raster.Grid, error) {
	values := raster.Select(g, clearLand)
	if len(values) == 0 {
		return nil, raster.ErrEmptySelection
	}
	fillValue, err := raster.Percentile(values, clearLandFillPercentile)
	if err != nil {
		return nil, err
	}
	out := g.Clone()
	for r := 0; r < out.Rows; r++ {
		for c := 0; c < out.Cols; c++ {
			if nodata.At(r, c) {
				out.Set(r, c, fillValue)
			}
		}
	}
	return out, nil
}

// imfillDifference performs morphological reconstruction by erosion
// ("imfill"), seeding the interior at the image maximum and the border
// at the original image, and returns filled-minus-original.
func imfillDifference(g *raster.Grid) *raster.Grid {
	rows, cols := g.Rows, g.Cols
	maxVal := g.Elements()[0]
	for _, v := range g.Elements() {
		if v > maxVal {
			maxVal = v
		}
	}

	seed := g.Clone()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r != 0 && r != rows-1 && c != 0 && c != cols-1 {
				seed.Set(r, c, maxVal)
			}
		}
	}

	filled := raster.Reconstruct(seed, g)
	return raster.Apply2(filled, g, func(f, orig float64) float64 { return f - orig })
}
