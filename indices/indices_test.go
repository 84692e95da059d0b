package indices

import (
	"math"
	"testing"

	"github.com/ubarsc/fmask/internal/raster"
)

func grid2x2(vals [4]float64) *raster.Grid {
	g := raster.NewGrid(2, 2)
	for i, v := range vals {
		g.Set(i/2, i%2, v)
	}
	return g
}

func TestNDVIKnownValues(t *testing.T) {
	nir := grid2x2([4]float64{2000, 0, 5000, 1000})
	red := grid2x2([4]float64{1000, 0, 1000, 1000})
	got := NDVI(nir, red)

	want := (2000.0 - 1000.0) / (2000.0 + 1000.0 + Epsilon)
	if math.Abs(got.At(0, 0)-want) > 1e-9 {
		t.Fatalf("NDVI(0,0) = %v, want %v", got.At(0, 0), want)
	}
	if got.At(0, 1) != 0 {
		t.Fatalf("NDVI with both inputs 0 should be 0 (epsilon guard), got %v", got.At(0, 1))
	}
	if got.At(1, 1) != 0 {
		t.Fatalf("NDVI of equal bands should be 0, got %v", got.At(1, 1))
	}
}

func TestNDSIRange(t *testing.T) {
	green := grid2x2([4]float64{3000, 100, 0, 500})
	swir1 := grid2x2([4]float64{1000, 100, 0, 1500})
	got := NDSI(green, swir1)
	for i := 0; i < got.Len(); i++ {
		r, c := got.RowCol(i)
		v := got.At(r, c)
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("NDSI out of [-1,1] range at %d: %v", i, v)
		}
	}
}

func TestNDBIIsNegatedNDVIShape(t *testing.T) {
	swir1 := grid2x2([4]float64{1000, 2000, 3000, 4000})
	nir := grid2x2([4]float64{2000, 2000, 2000, 2000})
	got := NDBI(swir1, nir)
	if got.At(0, 0) >= got.At(1, 1) {
		t.Fatalf("NDBI should increase as swir1 grows relative to nir: got(0,0)=%v, got(1,1)=%v", got.At(0, 0), got.At(1, 1))
	}
}

func TestCDIZeroWhenDenominatorZero(t *testing.T) {
	flat := raster.NewGrid(7, 7)
	flat.Fill(1000)
	got := CDI(flat, flat, flat)
	for i := 0; i < got.Len(); i++ {
		r, c := got.RowCol(i)
		if got.At(r, c) != 0 {
			t.Fatalf("CDI of a flat scene should be 0 everywhere, got %v at %d,%d", got.At(r, c), r, c)
		}
	}
}
