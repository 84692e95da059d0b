package cloudprob

import (
	"math"
	"testing"

	"github.com/ubarsc/fmask/internal/raster"
)

func fillGrid(rows, cols int, v float64) *raster.Grid {
	g := raster.NewGrid(rows, cols)
	g.Fill(v)
	return g
}

func TestClearPixelGuardShortCircuits(t *testing.T) {
	rows, cols := 100, 100 // 10000 pixels, all clear -> below the 40000 guard
	pcp := raster.NewBool(rows, cols)
	nodata := raster.NewBool(rows, cols)
	water := raster.NewBool(rows, cols)
	visSat := raster.NewBool(rows, cols)

	in := Inputs{
		PCP: pcp, Whiteness: fillGrid(rows, cols, 0), HOT: fillGrid(rows, cols, 0),
		NDSI: fillGrid(rows, cols, 0), NDVI: fillGrid(rows, cols, 0), NDBI: fillGrid(rows, cols, 0),
		SWIR1: fillGrid(rows, cols, 0), VisSaturation: visSat, Water: water, Nodata: nodata,
		ThinCirrusWeight: 0.3, CloudThreshold: 17.5,
	}
	result, err := Compute(in)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !result.Cloud.At(r, c) {
				t.Fatalf("under the clear-pixel guard every clear pixel should be cloud=true")
			}
			if result.OverLandProbability.At(r, c) != 100 || result.OverWaterProbability.At(r, c) != 100 {
				t.Fatalf("under the guard both probability rasters must be 100 everywhere")
			}
		}
	}
}

func TestBTNormalizationInsignificantSlopeLeavesValuesUnchanged(t *testing.T) {
	// spec §8 scenario 5: BT uncorrelated with DEM => BT_n byte-identical.
	rows, cols := 40, 40
	bt := raster.NewGrid(rows, cols)
	dem := raster.NewGrid(rows, cols)
	idused := raster.NewBool(rows, cols)
	seed := 12345
	for i := 0; i < rows*cols; i++ {
		r, c := i/cols, i%cols
		// deterministic pseudo-noise, no dependence on r/c position for dem vs bt trend
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		bt.Set(r, c, 2000+float64(seed%1000))
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		dem.Set(r, c, 500+float64(seed%1000))
		idused.Set(r, c, true)
	}

	out, err := NormalizeBT(bt, dem, idused, -9999, -9999, 17.5, 82.5)
	if err != nil {
		t.Fatalf("NormalizeBT returned error: %v", err)
	}
	for i := 0; i < rows*cols; i++ {
		r, c := i/cols, i%cols
		if math.Abs(out.At(r, c)-bt.At(r, c)) > 1e-9 {
			t.Fatalf("uncorrelated BT/DEM should leave BT unchanged at %d,%d: got %v want %v", r, c, out.At(r, c), bt.At(r, c))
		}
	}
}

func TestBTNormalizationUnchangedBelowMinMaskPopulation(t *testing.T) {
	rows, cols := 5, 5 // 25 pixels, well under minMaskPopulation=100
	bt := fillGrid(rows, cols, 2000)
	dem := fillGrid(rows, cols, 500)
	idused := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			idused.Set(r, c, true)
		}
	}
	out, err := NormalizeBT(bt, dem, idused, -9999, -9999, 17.5, 82.5)
	if err != nil {
		t.Fatalf("NormalizeBT returned error: %v", err)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if out.At(r, c) != bt.At(r, c) {
				t.Fatalf("small population should leave BT unchanged")
			}
		}
	}
}

func TestCloudRequiresPCP(t *testing.T) {
	rows, cols := 205, 205 // > 40000 clear pixels to skip the guard
	pcp := raster.NewBool(rows, cols)
	nodata := raster.NewBool(rows, cols)
	water := raster.NewBool(rows, cols)
	visSat := raster.NewBool(rows, cols)

	in := Inputs{
		PCP: pcp, Whiteness: fillGrid(rows, cols, 0), HOT: fillGrid(rows, cols, -100),
		NDSI: fillGrid(rows, cols, 0), NDVI: fillGrid(rows, cols, 0.5), NDBI: fillGrid(rows, cols, 0),
		SWIR1: fillGrid(rows, cols, 500), VisSaturation: visSat, Water: water, Nodata: nodata,
		ThinCirrusWeight: 0.3, CloudThreshold: 17.5,
	}
	result, err := Compute(in)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if result.Cloud.At(r, c) {
				t.Fatalf("no pixel can be cloud when PCP is false everywhere (except the extremely-cold override)")
			}
		}
	}
}
