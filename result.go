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

package fmask

import "github.com/ubarsc/fmask/internal/raster"

// Labels is the final u8 label raster, addressed row-major like the
// other rasters in this module.
type Labels struct {
	Rows, Cols int
	Values     []uint8
}

// At returns the label at (row, col).
func (l *Labels) At(row, col int) uint8 { return l.Values[row*l.Cols+col] }

// Compose paints water, snow, shadow, cloud (in that fixed order,
// later wins) and finally overwrites nodata, implementing spec §4.8's
// composition order and §8's "nodata ⇒ results=255" invariant. snow,
// cloud and shadow are expected to already be dilated by the caller.
func Compose(rows, cols int, water, snow, shadow, cloud, nodata *raster.Bool, codes LabelCodes) *Labels {
	out := &Labels{Rows: rows, Cols: cols, Values: make([]uint8, rows*cols)}
	forEachRowTile(rows, func(r0, r1 int) {
		for r := r0; r < r1; r++ {
			for c := 0; c < cols; c++ {
				v := codes.Clear
				if water.At(r, c) {
					v = codes.Water
				}
				if snow.At(r, c) {
					v = codes.Snow
				}
				if shadow.At(r, c) {
					v = codes.CloudShadow
				}
				if cloud.At(r, c) {
					v = codes.Cloud
				}
				if nodata.At(r, c) {
					v = codes.Nodata
				}
				out.Values[r*cols+c] = v
			}
		}
	})
	return out
}

// CloudProbability builds the optional cloud-probability output raster
// (spec §6): per-pixel over_water_probability where water, else
// over_land_probability, clamped to [0,100], with nodata painted 255.
func CloudProbability(overLand, overWater *raster.Grid, water, nodata *raster.Bool, nodataCode uint8) []uint8 {
	rows, cols := overLand.Rows, overLand.Cols
	out := make([]uint8, rows*cols)
	forEachRowTile(rows, func(r0, r1 int) {
		for r := r0; r < r1; r++ {
			for c := 0; c < cols; c++ {
				if nodata.At(r, c) {
					out[r*cols+c] = nodataCode
					continue
				}
				v := overLand.At(r, c)
				if water.At(r, c) {
					v = overWater.At(r, c)
				}
				if v < 0 {
					v = 0
				}
				if v > 100 {
					v = 100
				}
				out[r*cols+c] = uint8(v + 0.5)
			}
		}
	})
	return out
}
