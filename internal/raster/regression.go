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
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSampleSeed is the fixed seed used by StratifiedSample so that
// the BT-DEM lapse-rate regression (spec §4.4.1) is bit-reproducible
// across runs, as required by spec §5. It is never the process-wide
// default source.
const DefaultSampleSeed = 20150119

// OLSResult is an ordinary-least-squares fit of y = Alpha + Beta*x.
type OLSResult struct {
	Alpha, Beta float64
	// PValue is the two-sided p-value for the null hypothesis Beta==0,
	// from a Student's-t test on the slope's standard error.
	PValue float64
}

// OLS fits y = alpha + beta*x by unweighted ordinary least squares and
// reports the two-sided significance of the slope, used by the BT-DEM
// normalisation step (spec §4.4.1: "If b < 0 and its two-sided p-value
// < 0.05").
func OLS(x, y []float64) OLSResult {
	n := len(x)
	alpha, beta := stat.LinearRegression(x, y, nil, false)

	// Residual standard error and the standard error of beta, via the
	// standard simple-linear-regression formulas.
	var ssRes, sumX, meanX float64
	for _, v := range x {
		sumX += v
	}
	meanX = sumX / float64(n)
	var sxx float64
	for _, v := range x {
		sxx += (v - meanX) * (v - meanX)
	}
	for i := range x {
		resid := y[i] - (alpha + beta*x[i])
		ssRes += resid * resid
	}
	if n <= 2 || sxx == 0 {
		return OLSResult{Alpha: alpha, Beta: beta, PValue: 1}
	}
	dof := float64(n - 2)
	mse := ssRes / dof
	seBeta := math.Sqrt(mse / sxx)
	if seBeta == 0 {
		return OLSResult{Alpha: alpha, Beta: beta, PValue: 0}
	}
	tStat := beta / seBeta
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	p := 2 * dist.CDF(-math.Abs(tStat))
	return OLSResult{Alpha: alpha, Beta: beta, PValue: p}
}

// StratifiedSample partitions the range [lo, hi] of strataBy into
// fixed-width bins, and for each non-empty bin draws up to
// ceil(totalSample / non-empty bins) indices (into the strataBy/value
// slices) uniformly without replacement, using a fixed documented seed
// (spec §5, §4.4.1). The returned indices are grouped by bin in
// ascending bin order; within a bin they are in random order.
func StratifiedSample(strataBy []float64, lo, hi, binWidth float64, totalSample int) []int {
	if len(strataBy) == 0 || binWidth <= 0 {
		return nil
	}
	numBins := int(math.Ceil((hi-lo)/binWidth)) + 1
	if numBins < 1 {
		numBins = 1
	}
	bins := make([][]int, numBins)
	for i, v := range strataBy {
		bi := int((v - lo) / binWidth)
		bi = clampInt(bi, 0, numBins-1)
		bins[bi] = append(bins[bi], i)
	}
	nonEmpty := 0
	for _, b := range bins {
		if len(b) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil
	}
	perBin := int(math.Ceil(float64(totalSample) / float64(nonEmpty)))

	rng := rand.New(rand.NewSource(DefaultSampleSeed))
	var out []int
	for _, b := range bins {
		if len(b) == 0 {
			continue
		}
		n := perBin
		if n > len(b) {
			n = len(b)
		}
		perm := rng.Perm(len(b))[:n]
		for _, p := range perm {
			out = append(out, b[p])
		}
	}
	return out
}
