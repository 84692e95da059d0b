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

// Package snow detects snow pixels and, from those, the subset that is
// "absolute" snow (high-confidence, based on spatial homogeneity of
// GREEN reflectance) (spec §4.2).
package snow

import (
	"github.com/ubarsc/fmask/internal/raster"
	"github.com/ubarsc/fmask/scene"
)

// Mask computes the snow boolean: NDSI > 0.15, NIR > 1100, GREEN >
// 1000, and, if bt is non-nil, BT < 1000 (<10 degC).
func Mask(ndsi, nir, green *raster.Grid, bt *raster.Grid) *raster.Bool {
	rows, cols := ndsi.Rows, ndsi.Cols
	out := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := ndsi.At(r, c) > 0.15 && nir.At(r, c) > 1100 && green.At(r, c) > 1000
			if v && bt != nil {
				v = bt.At(r, c) < 1000
			}
			out.Set(r, c, v)
		}
	}
	return out
}

// absoluteSnowThreshold is the local-stddev*(1-NDSI) cutoff below which
// a snow pixel is promoted to absolute snow (spec §4.2).
const absoluteSnowThreshold = 9.0

// Absolute computes the absolute-snow mask: a sensor-specific window
// masked local standard deviation of GREEN (masked by green != 0),
// multiplied by (1-NDSI), thresholded < 9, further gated on snow=true
// and visSaturation=false.
func Absolute(sensor scene.Sensor, green, ndsi *raster.Grid, snowMask, visSaturation *raster.Bool) *raster.Bool {
	rows, cols := green.Rows, green.Cols
	validGreen := raster.NewBool(rows, cols)
	for i := 0; i < validGreen.Len(); i++ {
		r, c := i/cols, i%cols
		validGreen.Set(r, c, green.At(r, c) != 0)
	}

	window := sensor.AbsoluteSnowWindow()
	radius := window / 2
	localStdDev := raster.MaskedLocalStdDev(green, validGreen, radius)

	out := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !snowMask.At(r, c) || visSaturation.At(r, c) {
				continue
			}
			score := localStdDev.At(r, c) * (1 - ndsi.At(r, c))
			out.Set(r, c, score < absoluteSnowThreshold)
		}
	}
	return out
}
