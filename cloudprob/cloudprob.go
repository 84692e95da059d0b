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

package cloudprob

import "github.com/ubarsc/fmask/internal/raster"

// Default percentile bounds used throughout this stage (spec §4.4,
// §4.4.1): the "low"/"high" pair that brackets temp_test_low/high and
// feeds the dynamic land/water thresholds.
const (
	lowPercentile  = 17.5
	highPercentile = 82.5
)

// clearPixelGuard is the sum_clear_pixels floor below which the whole
// stage short-circuits to "everything clear is cloud" (spec §4.4).
const clearPixelGuard = 40000

// clearLandFraction is the minimum share of valid pixels clear_land
// must cover before it is preferred over clear as idused (spec §4.4).
const clearLandFraction = 0.001

// tempWidenHundredths widens the BT percentile bracket by 4 degC
// (in hundredths) to form temp_test_low/high (spec §4.4).
const tempWidenHundredths = 400.0

// extremelyColdOffsetHundredths is the additional margin below
// temp_test_low past which a pixel is cloud regardless of probability
// (spec §4.4, "extremely cold cloud" override).
const extremelyColdOffsetHundredths = 3500.0

// minClearWaterForBTPercentile is the population floor for using the
// BT-based water temperature probability instead of the constant
// fallback (spec §4.4).
const minClearWaterForBTPercentile = 100

// thinCirrusDivisor normalises CIRRUS into [0, ~) for the thin-cirrus
// probability term (spec §4.4).
const thinCirrusDivisor = 400.0

// Inputs bundles everything the potential-cloud probability stage
// reads. BT, Cirrus, DEM and their dependents are optional sum types
// (spec §9); nil means absent.
type Inputs struct {
	PCP       *raster.Bool
	Whiteness *raster.Grid
	HOT       *raster.Grid
	NDSI, NDVI, NDBI, SWIR1 *raster.Grid

	BT                *raster.Grid // optional
	BTNodataSentinel  float64
	Cirrus            *raster.Grid // optional, already cirrus-normalised
	DEM               *raster.Grid // optional
	DEMNodataSentinel float64

	VisSaturation *raster.Bool
	Water         *raster.Bool
	Nodata        *raster.Bool

	ThinCirrusWeight float64
	CloudThreshold   float64 // tau
}

// Result holds the final cloud mask and the two probability rasters,
// plus the normalised BT raster the caller should replace scene.BT
// with (spec §3 mutation point 2) when BT is present.
type Result struct {
	Cloud                *raster.Bool
	OverLandProbability  *raster.Grid
	OverWaterProbability *raster.Grid
	NormalizedBT         *raster.Grid // nil if BT absent
	TempTestLow          float64
	TempTestHigh         float64
}

// Compute implements spec §4.4: the clear-pixel guard, thin-cirrus
// probability, idused selection, the land and water probability
// branches, the dynamic percentile thresholds, and final cloud mask
// composition including the extremely-cold-cloud override.
func Compute(in Inputs) (Result, error) {
	rows, cols := in.PCP.Rows, in.PCP.Cols

	notPCP := raster.Not(in.PCP)
	clear := raster.AndNot(notPCP, in.Nodata)

	if clear.Count() <= clearPixelGuard {
		hundred := raster.NewGrid(rows, cols)
		hundred.Fill(100)
		return Result{
			Cloud:                clear.Clone(),
			OverLandProbability:  hundred,
			OverWaterProbability: hundred.Clone(),
		}, nil
	}

	clearLand := raster.AndNot(clear, in.Water)
	clearWater := raster.And(clear, in.Water)

	pCir := raster.NewGrid(rows, cols)
	if in.Cirrus != nil {
		pCir = in.Cirrus.Clone()
		pCir.Map(func(v float64) float64 {
			v = v / thinCirrusDivisor
			if v < 0 {
				return 0
			}
			return v
		})
	}

	validCount := rows*cols - in.Nodata.Count()
	idused := clear
	if validCount > 0 && float64(clearLand.Count())/float64(validCount) >= clearLandFraction {
		idused = clearLand
	}

	pTemp := onesGrid(rows, cols)
	pBright := onesGrid(rows, cols)
	var normalizedBT *raster.Grid
	var tempTestLow, tempTestHigh float64

	if in.BT != nil {
		if in.DEM != nil {
			nbt, err := NormalizeBT(in.BT, in.DEM, idused, in.DEMNodataSentinel, in.BTNodataSentinel, lowPercentile, highPercentile)
			if err != nil {
				return Result{}, err
			}
			normalizedBT = nbt
		} else {
			normalizedBT = in.BT.Clone()
		}

		idusedBT := raster.Select(normalizedBT, idused)
		if len(idusedBT) == 0 {
			return Result{}, raster.ErrEmptySelection
		}
		pLow, err := raster.Percentile(append([]float64(nil), idusedBT...), lowPercentile)
		if err != nil {
			return Result{}, err
		}
		pHigh, err := raster.Percentile(append([]float64(nil), idusedBT...), highPercentile)
		if err != nil {
			return Result{}, err
		}
		tempTestLow = pLow - tempWidenHundredths
		tempTestHigh = pHigh + tempWidenHundredths

		pTemp = raster.Apply2(normalizedBT, normalizedBT, func(v, _ float64) float64 {
			x := (tempTestHigh - v) / (tempTestHigh - tempTestLow)
			if x < 0 {
				return 0
			}
			return x
		})
	} else {
		hotIdused := raster.Select(in.HOT, idused)
		if len(hotIdused) == 0 {
			return Result{}, raster.ErrEmptySelection
		}
		p17, err := raster.Percentile(append([]float64(nil), hotIdused...), lowPercentile)
		if err != nil {
			return Result{}, err
		}
		p82, err := raster.Percentile(append([]float64(nil), hotIdused...), highPercentile)
		if err != nil {
			return Result{}, err
		}
		lowBound := p17 - tempWidenHundredths
		highBound := p82 + tempWidenHundredths
		span := highBound - lowBound
		pBright = in.HOT.Clone()
		pBright.Map(func(v float64) float64 {
			x := (v - lowBound) / span
			return clamp01(x)
		})
	}

	pVar := spectralVariance(in.NDSI, in.NDVI, in.NDBI, in.Whiteness, in.VisSaturation)

	overLand := raster.NewGrid(rows, cols)
	for i := 0; i < overLand.Len(); i++ {
		r, c := i/cols, i%cols
		overLand.Set(r, c, 100*(pTemp.At(r, c)*pVar.At(r, c)*pBright.At(r, c)+in.ThinCirrusWeight*pCir.At(r, c)))
	}

	pwTemp := onesGrid(rows, cols)
	if in.BT != nil && clearWater.Count() > minClearWaterForBTPercentile {
		clearWaterBT := raster.Select(in.BT, clearWater)
		phi, err := raster.Percentile(clearWaterBT, highPercentile)
		if err != nil {
			return Result{}, err
		}
		pwTemp = in.BT.Clone()
		pwTemp.Map(func(v float64) float64 {
			x := (phi - v) / tempWidenHundredths
			if x < 0 {
				return 0
			}
			return x
		})
	}
	pwBright := in.SWIR1.Clone()
	pwBright.Map(func(v float64) float64 { return clamp01(v / 1100) })

	overWater := raster.NewGrid(rows, cols)
	for i := 0; i < overWater.Len(); i++ {
		r, c := i/cols, i%cols
		overWater.Set(r, c, 100*(pwTemp.At(r, c)*pwBright.At(r, c)+in.ThinCirrusWeight*pCir.At(r, c)))
	}

	clrH := 0.0
	if clearLand.Count() > 0 {
		v, err := raster.Percentile(raster.Select(overLand, clearLand), highPercentile)
		if err != nil {
			return Result{}, err
		}
		clrH = v
	}
	wclrH := 0.0
	if clearWater.Count() > 0 {
		v, err := raster.Percentile(raster.Select(overWater, clearWater), highPercentile)
		if err != nil {
			return Result{}, err
		}
		wclrH = v
	}
	landMax := clrH + in.CloudThreshold
	waterMax := wclrH + in.CloudThreshold

	cloud := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !in.PCP.At(r, c) {
				continue
			}
			isWater := in.Water.At(r, c)
			v := (overLand.At(r, c) > landMax && !isWater) || (overWater.At(r, c) > waterMax && isWater)
			if !v && normalizedBT != nil && normalizedBT.At(r, c) < tempTestLow-extremelyColdOffsetHundredths {
				v = true
			}
			if in.Nodata.At(r, c) {
				v = false
			}
			cloud.Set(r, c, v)
		}
	}

	return Result{
		Cloud:                cloud,
		OverLandProbability:  overLand,
		OverWaterProbability: overWater,
		NormalizedBT:         normalizedBT,
		TempTestLow:          tempTestLow,
		TempTestHigh:         tempTestHigh,
	}, nil
}

func spectralVariance(ndsi, ndvi, ndbi, whiteness *raster.Grid, visSaturation *raster.Bool) *raster.Grid {
	rows, cols := ndsi.Rows, ndsi.Cols
	out := raster.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			n := ndsi.At(r, c)
			if visSaturation.At(r, c) && n < 0 {
				n = 0
			}
			v := ndvi.At(r, c)
			if visSaturation.At(r, c) && v > 0 {
				v = 0
			}
			maxAbs := absMax(n, v, ndbi.At(r, c), whiteness.At(r, c))
			out.Set(r, c, 1-maxAbs)
		}
	}
	return out
}

func absMax(values ...float64) float64 {
	max := 0.0
	for _, v := range values {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func onesGrid(rows, cols int) *raster.Grid {
	g := raster.NewGrid(rows, cols)
	g.Fill(1)
	return g
}
