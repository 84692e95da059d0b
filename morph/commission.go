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

// cdiConfidentThreshold is the CDI ceiling a small retained object must
// have at least one pixel below, to survive the CDI gate (spec §4.5
// step 7).
const cdiConfidentThreshold = -0.5

// largeObjectAreaPixels is the area above which a connected component
// is exempt from the CDI small-object gate (spec §4.5 step 7).
const largeObjectAreaPixels = 10000

// finalMinComponentArea removes any surviving component smaller than
// this, regardless of the CDI gate (spec §4.5 step 7, final cleanup).
const finalMinComponentArea = 3

// EraseCommissions implements erode_commissons (spec §4.5): erode the
// cloud mask to find a confident core, strip false-positive candidates
// that erode away, dilate back, keep only the original labels that
// still touch the shrunk mask, restore water pixels unconditionally,
// and (Sentinel-2 only) require small surviving objects to carry a
// confident CDI pixel.
func EraseCommissions(cloud, falsePositives, water *raster.Bool, cdi *raster.Grid, erodePixels int) *raster.Bool {
	eroded := raster.Erode(cloud, raster.Disk(erodePixels))
	erodedAway := raster.AndNot(falsePositives, eroded)
	cloudPrime := raster.AndNot(cloud, erodedAway)
	dilated := raster.DilateDiskRadius(cloudPrime, 2*erodePixels)

	labels, components := raster.Labels(cloud)
	survivingLabel := make(map[int]bool, len(components))
	for _, comp := range components {
		survivingLabel[comp.Label] = false
	}
	for i, l := range labels {
		if l != 0 && cloudPrime.Data()[i] {
			survivingLabel[l] = true
		}
	}

	rows, cols := cloud.Rows, cloud.Cols
	remaining := raster.NewBool(rows, cols)
	for i, l := range labels {
		if l != 0 && survivingLabel[l] {
			r, c := i/cols, i%cols
			remaining.Set(r, c, true)
		}
	}

	prelim := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := (dilated.At(r, c) && remaining.At(r, c)) || (water.At(r, c) && cloud.At(r, c))
			prelim.Set(r, c, v)
		}
	}

	if cdi == nil {
		return raster.RemoveSmall(prelim, finalMinComponentArea)
	}

	gated := applyCDIGate(prelim, cdi)
	return raster.RemoveSmall(gated, finalMinComponentArea)
}

// applyCDIGate drops small connected components (<=largeObjectAreaPixels)
// that have no pixel with CDI below cdiConfidentThreshold (spec §4.5
// step 7, Sentinel-2 only).
func applyCDIGate(mask *raster.Bool, cdi *raster.Grid) *raster.Bool {
	labels, components := raster.Labels(mask)
	confident := make(map[int]bool, len(components))
	keep := make(map[int]bool, len(components))
	for _, comp := range components {
		keep[comp.Label] = comp.Area > largeObjectAreaPixels
	}
	rows, cols := mask.Rows, mask.Cols
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			l := labels[r*cols+c]
			if l == 0 {
				continue
			}
			if cdi.At(r, c) < cdiConfidentThreshold {
				confident[l] = true
			}
		}
	}
	for label, ok := range confident {
		if ok {
			keep[label] = true
		}
	}

	out := raster.NewBool(rows, cols)
	for i, l := range labels {
		if l != 0 && keep[l] {
			r, c := i/cols, i%cols
			out.Set(r, c, true)
		}
	}
	return out
}
