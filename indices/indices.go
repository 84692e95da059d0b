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

// Package indices computes the spectral indices every later stage of
// the pipeline consumes: NDVI, NDSI, NDBI and (Sentinel-2 only) CDI
// (spec §4.1).
package indices

import "github.com/ubarsc/fmask/internal/raster"

// Epsilon is the normalised-difference denominator guard (spec §3).
const Epsilon = 1e-7

// NormalizedDifference computes (a-b)/(a+b+epsilon) elementwise.
func NormalizedDifference(a, b *raster.Grid) *raster.Grid {
	return raster.Apply2(a, b, func(x, y float64) float64 {
		return (x - y) / (x + y + Epsilon)
	})
}

// NDVI = (NIR-RED)/(NIR+RED+eps).
func NDVI(nir, red *raster.Grid) *raster.Grid { return NormalizedDifference(nir, red) }

// NDSI = (GREEN-SWIR1)/(GREEN+SWIR1+eps).
func NDSI(green, swir1 *raster.Grid) *raster.Grid { return NormalizedDifference(green, swir1) }

// NDBI = (SWIR1-NIR)/(SWIR1+NIR+eps).
func NDBI(swir1, nir *raster.Grid) *raster.Grid { return NormalizedDifference(swir1, nir) }

// cdiWindowRadius is the half-width of CDI's 7x7 focal-variance window
// (spec §4.1).
const cdiWindowRadius = 3

// CDI computes the Sentinel-2 Cloud Displacement Index from the focal
// variance of nir/nir2 and red3/nir2, per spec §4.1:
// CDI = (V(red3/nir2) - V(nir/nir2)) / (V(red3/nir2) + V(nir/nir2)),
// with 0 where the denominator is 0.
func CDI(nir, nir2, red3 *raster.Grid) *raster.Grid {
	ratioNirNir2 := raster.Apply2(nir, nir2, safeDivide)
	ratioRed3Nir2 := raster.Apply2(red3, nir2, safeDivide)

	vNirNir2 := raster.FocalVariance(ratioNirNir2, cdiWindowRadius)
	vRed3Nir2 := raster.FocalVariance(ratioRed3Nir2, cdiWindowRadius)

	return raster.Apply2(vRed3Nir2, vNirNir2, func(vr, vn float64) float64 {
		denom := vr + vn
		if denom == 0 {
			return 0
		}
		return (vr - vn) / denom
	})
}

func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
