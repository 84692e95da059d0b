package morph

import (
	"testing"

	"github.com/ubarsc/fmask/internal/raster"
)

func TestOtsuSeparatesTwoClusters(t *testing.T) {
	rows, cols := 1, 20
	values := raster.NewGrid(rows, cols)
	mask := raster.NewBool(rows, cols)
	for c := 0; c < 10; c++ {
		values.Set(0, c, 100)
		mask.Set(0, c, true)
	}
	for c := 10; c < 20; c++ {
		values.Set(0, c, 900)
		mask.Set(0, c, true)
	}
	threshold, err := Otsu(values, mask)
	if err != nil {
		t.Fatalf("Otsu returned error: %v", err)
	}
	if threshold < 200 || threshold > 800 {
		t.Fatalf("threshold should separate the two clusters, got %v", threshold)
	}
}

func TestEnhanceLinePicksUpHorizontalLine(t *testing.T) {
	rows, cols := 5, 5
	ndbi := raster.NewGrid(rows, cols)
	for c := 0; c < cols; c++ {
		ndbi.Set(2, c, 1.0) // a horizontal bright line through the middle row
	}
	enhanced := EnhanceLine(ndbi)
	center := enhanced.At(2, 2)
	corner := enhanced.At(0, 0)
	if center <= corner {
		t.Fatalf("line-enhanced response on the line (%v) should exceed flat background (%v)", center, corner)
	}
}

func TestFalsePositiveCandidatesBaselineRequiresNDBIDominance(t *testing.T) {
	rows, cols := 3, 3
	ndbi := raster.NewGrid(rows, cols)
	ndbi.Fill(0.2)
	ndvi := raster.NewGrid(rows, cols)
	ndvi.Fill(0.5) // NDVI > NDBI everywhere: never a candidate
	nodata := raster.NewBool(rows, cols)
	water := raster.NewBool(rows, cols)
	cloud := raster.NewBool(rows, cols)
	snow := raster.NewBool(rows, cols)

	got, err := FalsePositiveCandidates(FalsePositiveInputs{
		EnhancedNDBI: ndbi, NDVI: ndvi, Nodata: nodata, Water: water,
		Cloud: cloud, Snow: snow, OutResolution: 30,
	})
	if err != nil {
		t.Fatalf("FalsePositiveCandidates returned error: %v", err)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if got.At(r, c) {
				t.Fatalf("no pixel should be a candidate when NDVI dominates NDBI everywhere")
			}
		}
	}
}

func TestEraseCommissionsIsIdempotent(t *testing.T) {
	rows, cols := 30, 30
	cloud := raster.NewBool(rows, cols)
	for r := 10; r < 20; r++ {
		for c := 10; c < 20; c++ {
			cloud.Set(r, c, true)
		}
	}
	falsePositives := raster.NewBool(rows, cols)
	water := raster.NewBool(rows, cols)

	once := EraseCommissions(cloud, falsePositives, water, nil, 3)
	twice := EraseCommissions(once, falsePositives, water, nil, 3)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if once.At(r, c) != twice.At(r, c) {
				t.Fatalf("erode_commissons should be idempotent on its own output, differs at %d,%d", r, c)
			}
		}
	}
}

func TestApplyCDIGateDropsUnconfidentSmallObjects(t *testing.T) {
	rows, cols := 10, 10
	mask := raster.NewBool(rows, cols)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			mask.Set(r, c, true) // 5x5 = 25px small blob
		}
	}
	cdi := raster.NewGrid(rows, cols)
	cdi.Fill(-0.2) // not confident anywhere

	out := applyCDIGate(mask, cdi)
	if out.Count() != 0 {
		t.Fatalf("small object with no confident CDI pixel should be dropped entirely")
	}

	cdi.Set(2, 2, -0.6)
	out2 := applyCDIGate(mask, cdi)
	if out2.Count() != 25 {
		t.Fatalf("small object with one confident CDI pixel should survive whole, got count %d", out2.Count())
	}
}
