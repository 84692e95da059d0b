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

// Package cloudprob computes the dynamic, DEM/BT-normalised cloud
// probability surfaces and the final cloud mask (spec §4.4, §4.4.1).
package cloudprob

import (
	"math"

	"github.com/ubarsc/fmask/internal/raster"
)

// demBinWidthMeters is the elevation bin width for the BT-DEM
// stratified sample (spec §4.4.1).
const demBinWidthMeters = 300.0

// totalRegressionSample is the target sample size for the BT-DEM
// lapse-rate regression (spec §4.4.1).
const totalRegressionSample = 40000

// minMaskPopulation is the minimum |M| (valid DEM+BT pixels) required
// before attempting normalisation at all (spec §4.4.1).
const minMaskPopulation = 100

// lapseRateSignificance is the two-sided p-value ceiling for accepting
// the regression slope as significant (spec §4.4.1).
const lapseRateSignificance = 0.05

// NormalizeBT implements the BT-DEM lapse-rate normalisation of spec
// §4.4.1: it fits BT = a + b*DEM on a 300m-elevation-stratified sample
// of idused pixels and, if the slope is negative and significant,
// returns BT minus the fitted lapse rate applied relative to the low
// elevation percentile. It returns bt unchanged (a clone) whenever any
// guard in §4.4.1 is not met.
func NormalizeBT(bt, dem *raster.Grid, idused *raster.Bool, demNodata, btNodata, lowPercentile, highPercentile float64) (*raster.Grid, error) {
	rows, cols := bt.Rows, bt.Cols

	m := raster.NewBool(rows, cols)
	mCount := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ok := dem.At(r, c) != demNodata && bt.At(r, c) != btNodata
			m.Set(r, c, ok)
			if ok {
				mCount++
			}
		}
	}
	if mCount < minMaskPopulation {
		return bt.Clone(), nil
	}

	demInM := raster.Select(dem, m)
	demB, err := raster.Percentile(append([]float64(nil), demInM...), 0.0001)
	if err != nil {
		return nil, err
	}
	demT, err := raster.Percentile(append([]float64(nil), demInM...), 99.999)
	if err != nil {
		return nil, err
	}

	btInIdused := raster.Select(bt, idused)
	if len(btInIdused) == 0 {
		return bt.Clone(), nil
	}
	tempMin, err := raster.Percentile(append([]float64(nil), btInIdused...), lowPercentile)
	if err != nil {
		return nil, err
	}
	tempMax, err := raster.Percentile(append([]float64(nil), btInIdused...), highPercentile)
	if err != nil {
		return nil, err
	}

	var demSample, btSample []float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := bt.At(r, c)
			if v > tempMin && v < tempMax && idused.At(r, c) && m.At(r, c) {
				demSample = append(demSample, dem.At(r, c))
				btSample = append(btSample, v)
			}
		}
	}
	if len(demSample) == 0 {
		return bt.Clone(), nil
	}

	numBins := int(math.Ceil((demT-demB)/demBinWidthMeters)) + 1
	if numBins < 1 {
		numBins = 1
	}
	counts := make([]int, numBins)
	for _, v := range demSample {
		bi := int((v - demB) / demBinWidthMeters)
		if bi < 0 {
			bi = 0
		}
		if bi >= numBins {
			bi = numBins - 1
		}
		counts[bi]++
	}
	nonEmptyBins := 0
	for _, n := range counts {
		if n > 0 {
			nonEmptyBins++
		}
	}
	if nonEmptyBins == 0 || float64(totalRegressionSample)/float64(nonEmptyBins) < 1 {
		return bt.Clone(), nil
	}

	sampledPositions := raster.StratifiedSample(demSample, demB, demT, demBinWidthMeters, totalRegressionSample)
	if len(sampledPositions) == 0 {
		return bt.Clone(), nil
	}
	xs := make([]float64, len(sampledPositions))
	ys := make([]float64, len(sampledPositions))
	for i, p := range sampledPositions {
		xs[i] = demSample[p]
		ys[i] = btSample[p]
	}

	fit := raster.OLS(xs, ys)
	if !(fit.Beta < 0 && fit.PValue < lapseRateSignificance) {
		return bt.Clone(), nil
	}

	out := bt.Clone()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if m.At(r, c) {
				out.Set(r, c, bt.At(r, c)-fit.Beta*(dem.At(r, c)-demB))
			}
		}
	}
	return out, nil
}
