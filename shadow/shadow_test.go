package shadow

import (
	"testing"

	"github.com/ubarsc/fmask/internal/raster"
)

func TestPotentialShadowFlagsDarkBasin(t *testing.T) {
	rows, cols := 20, 20
	nir := raster.NewGrid(rows, cols)
	swir1 := raster.NewGrid(rows, cols)
	nir.Fill(3000)
	swir1.Fill(2000)
	// A dark basin in the middle, away from the border, surrounded by
	// bright pixels on all sides so it cannot flood-drain to the edge.
	for r := 8; r < 12; r++ {
		for c := 8; c < 12; c++ {
			nir.Set(r, c, 500)
			swir1.Set(r, c, 400)
		}
	}
	clearLand := raster.NewBool(rows, cols)
	nodata := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			clearLand.Set(r, c, true)
		}
	}

	_, mask, err := Potential(nir, swir1, clearLand, nodata)
	if err != nil {
		t.Fatalf("Potential returned error: %v", err)
	}
	if !mask.At(9, 9) {
		t.Fatalf("a dark basin surrounded by bright pixels should be flagged as potential shadow")
	}
	if mask.At(0, 0) {
		t.Fatalf("uniform bright background should not be potential shadow")
	}
}

func TestPotentialShadowNodataIsSentinelAndNonShadow(t *testing.T) {
	rows, cols := 10, 10
	nir := raster.NewGrid(rows, cols)
	swir1 := raster.NewGrid(rows, cols)
	nir.Fill(3000)
	swir1.Fill(2000)
	clearLand := raster.NewBool(rows, cols)
	nodata := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			clearLand.Set(r, c, true)
		}
	}
	nodata.Set(5, 5, true)

	prob, mask, err := Potential(nir, swir1, clearLand, nodata)
	if err != nil {
		t.Fatalf("Potential returned error: %v", err)
	}
	if prob.At(5, 5) != NodataSentinel {
		t.Fatalf("nodata pixel should carry the sentinel probability, got %v", prob.At(5, 5))
	}
	if mask.At(5, 5) {
		t.Fatalf("nodata pixel must never be potential shadow")
	}
}

func TestMatchWithNoCloudsProducesEmptyShadow(t *testing.T) {
	rows, cols := 10, 10
	cloud := raster.NewBool(rows, cols)
	potentialShadow := raster.NewBool(rows, cols)
	water := raster.NewBool(rows, cols)

	out := Match(MatchInputs{
		Cloud: cloud, PotentialShadow: potentialShadow, Water: water,
		SunElevationDeg: 45, SunAzimuthDeg: 135, OutResolution: 30,
		TempTestLow: 1000, TempTestHigh: 2000,
	})
	if out.Count() != 0 {
		t.Fatalf("an empty cloud mask should produce an all-false shadow raster")
	}
}

func TestShadowDisplacementHandlesLowSunElevationWithoutOverflow(t *testing.T) {
	dx, dy := shadowDisplacement(1000, 0.0001, 90)
	if dx == 0 && dy == 0 {
		t.Fatalf("near-zero sun elevation should still produce a large but finite displacement")
	}
}

func TestMatchFindsShiftedSquareCloud(t *testing.T) {
	// Loosely mirrors spec §8 scenario 3: a compact cloud block and a
	// potential-shadow block shifted along the solar ray should match.
	rows, cols := 60, 60
	cloud := raster.NewBool(rows, cols)
	potentialShadow := raster.NewBool(rows, cols)
	water := raster.NewBool(rows, cols)

	// The cloud sits far enough from the top-left corner that its shadow,
	// displaced up and to the left by (-24,-24), stays inside the grid.
	for r := 35; r < 45; r++ {
		for c := 35; c < 45; c++ {
			cloud.Set(r, c, true)
		}
	}
	sunEl, sunAz, outRes := 45.0, 135.0, 30.0
	dx, dy := shadowDisplacement(1000/outRes, sunEl, sunAz)
	for r := 35; r < 45; r++ {
		for c := 35; c < 45; c++ {
			sr, sc := r+dy, c+dx
			if sr >= 0 && sr < rows && sc >= 0 && sc < cols {
				potentialShadow.Set(sr, sc, true)
			}
		}
	}

	out := Match(MatchInputs{
		Cloud: cloud, PotentialShadow: potentialShadow, Water: water,
		SunElevationDeg: sunEl, SunAzimuthDeg: sunAz, OutResolution: outRes,
		TempTestLow: 1000, TempTestHigh: 2000,
	})
	if out.Count() == 0 {
		t.Fatalf("matcher should paint a shifted footprint matching the synthetic potential shadow")
	}
}
