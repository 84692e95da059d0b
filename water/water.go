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

// Package water computes the two-tier water mask: a base spectral test,
// optionally augmented by Global Surface Water Occurrence (GSWO) when
// available (spec §4.2).
package water

import "github.com/ubarsc/fmask/internal/raster"

// Result holds the two water rasters the rest of the pipeline consumes:
// Water (excludes snow where GSWO-augmented) and AllWater (includes
// snow-covered GSWO water, used only for reporting/diagnostics by
// callers that want the unfiltered extent).
type Result struct {
	Water    *raster.Bool
	AllWater *raster.Bool
}

// gswoOccurrenceClearClamp is the ceiling applied to the occurrence
// threshold derived from clear-water GSWO pixels (spec §4.2).
const gswoOccurrenceClearClamp = 90.0

// Base computes the base water test: (NDVI<0.01 ∧ NIR<1100) ∨
// (0<NDVI<0.1 ∧ NIR<500), zeroed inside nodata.
func Base(ndvi, nir *raster.Grid, nodata *raster.Bool) *raster.Bool {
	rows, cols := ndvi.Rows, ndvi.Cols
	out := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if nodata.At(r, c) {
				continue
			}
			n := ndvi.At(r, c)
			x := nir.At(r, c)
			v := (n < 0.01 && x < 1100) || (n > 0 && n < 0.1 && x < 500)
			out.Set(r, c, v)
		}
	}
	return out
}

// Augment applies the optional GSWO augmentation (spec §4.2): if gswo
// is non-nil and any pixel is > 0, derive an occurrence threshold as
// the 17.5th percentile of GSWO over base-water pixels minus 5 (or 90
// if there are none), clamp to <= 90, and skip entirely if the result
// is negative. snowMask gates which GSWO-augmented pixels
// remain in Water (they stay in AllWater regardless).
func Augment(base *raster.Bool, gswo *raster.Grid, snowMask, nodata *raster.Bool) (Result, error) {
	if gswo == nil || !anyPositive(gswo) {
		return Result{Water: base.Clone(), AllWater: base.Clone()}, nil
	}

	baseValues := raster.Select(gswo, base)
	var occ float64
	if len(baseValues) > 0 {
		p, err := raster.Percentile(baseValues, 17.5)
		if err != nil {
			return Result{}, err
		}
		occ = p - 5
	} else {
		occ = 90
	}
	if occ > gswoOccurrenceClearClamp {
		occ = gswoOccurrenceClearClamp
	}
	if occ < 0 {
		return Result{Water: base.Clone(), AllWater: base.Clone()}, nil
	}

	rows, cols := base.Rows, base.Cols
	allWater := raster.NewBool(rows, cols)
	water := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			gswoHigh := gswo.At(r, c) > occ
			all := base.At(r, c) || gswoHigh
			allWater.Set(r, c, all)
			w := base.At(r, c) || (gswoHigh && !snowMask.At(r, c))
			water.Set(r, c, w)
		}
	}

	zeroInsideNodata(water, nodata)
	zeroInsideNodata(allWater, nodata)
	return Result{Water: water, AllWater: allWater}, nil
}

func anyPositive(g *raster.Grid) bool {
	for _, v := range g.Elements() {
		if v > 0 {
			return true
		}
	}
	return false
}

func zeroInsideNodata(mask, nodata *raster.Bool) {
	for r := 0; r < mask.Rows; r++ {
		for c := 0; c < mask.Cols; c++ {
			if nodata.At(r, c) {
				mask.Set(r, c, false)
			}
		}
	}
}
