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

package raster

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptySelection is returned by Percentile when asked to summarize
// zero values. Callers in the spectral/probability stages are
// required to guard population size before calling into these
// helpers (spec §7, NumericError); this error is the signal that a
// guard was missed.
var ErrEmptySelection = errors.New("raster: percentile/statistic over an empty selection")

// Percentile returns the p-th percentile (0-100) of values using
// linear interpolation between closest ranks, matching numpy's
// default np.percentile behaviour that the reference implementation
// relies on throughout (BT-DEM normalisation, dynamic thresholds,
// cirrus normalisation). values is sorted in place.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySelection
	}
	sort.Float64s(values)
	if len(values) == 1 {
		return values[0], nil
	}
	h := (p / 100) * float64(len(values)-1)
	lo := int(math.Floor(h))
	if lo < 0 {
		return values[0], nil
	}
	if lo >= len(values)-1 {
		return values[len(values)-1], nil
	}
	return values[lo] + (h-float64(lo))*(values[lo+1]-values[lo]), nil
}
