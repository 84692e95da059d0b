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

package morph

import "github.com/ubarsc/fmask/internal/raster"

// otsuBins is the histogram resolution used by Otsu. A plain
// stdlib-math histogram is used here rather than an external image
// library (gocv), since that would require cgo and a native OpenCV
// build, wildly out of proportion for a single scalar threshold.
const otsuBins = 256

// Otsu computes the minimum intra-class-variance threshold over the
// values selected by mask, using an otsuBins-bin histogram, and returns
// the centre of the chosen bin; ties go to the lowest bin. Returns
// raster.ErrEmptySelection if the selection is empty, and the common
// value if every selected value is the same.
func Otsu(values *raster.Grid, mask *raster.Bool) (float64, error) {
	selected := raster.Select(values, mask)
	if len(selected) == 0 {
		return 0, raster.ErrEmptySelection
	}

	lo, hi := selected[0], selected[0]
	for _, v := range selected {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return lo, nil
	}

	hist := make([]int, otsuBins)
	width := (hi - lo) / float64(otsuBins)
	for _, v := range selected {
		bin := int((v - lo) / width)
		if bin >= otsuBins {
			bin = otsuBins - 1
		}
		if bin < 0 {
			bin = 0
		}
		hist[bin]++
	}

	total := len(selected)
	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i) * float64(n)
	}

	var sumB, wB float64
	var bestVar float64
	bestBin := 0
	for i, n := range hist {
		wB += float64(n)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(n)
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			bestBin = i
		}
	}

	return lo + (float64(bestBin)+0.5)*width, nil
}
