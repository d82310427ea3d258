package elevation

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestFlat(t *testing.T) {
	var p Provider = Flat(12.5)
	if got := p.Elevation(52.5, 13.4); got != 12.5 {
		t.Errorf("expected 12.5, got %v", got)
	}
}

func TestProviderFunc(t *testing.T) {
	p := ProviderFunc(func(lat, lon float64) float64 { return lat + lon })
	if got := p.Elevation(1, 2); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
}

func TestGridBilinear(t *testing.T) {
	// 2x2 grid: SW=0, SE=10, NW=20, NE=30
	g, err := NewGrid(2, 2, 50, 10, 1, []float64{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	tests := []struct {
		name     string
		lat, lon float64
		want     float64
	}{
		{"south west corner", 50, 10, 0},
		{"south east corner", 50, 11, 10},
		{"north west corner", 51, 10, 20},
		{"north east corner", 51, 11, 30},
		{"centre", 50.5, 10.5, 15},
		{"south edge midpoint", 50, 10.5, 5},
		{"clamped outside", 49, 9, 0},
		{"clamped far north east", 60, 20, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Elevation(tt.lat, tt.lon); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Elevation(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestGridNoData(t *testing.T) {
	g, err := NewGrid(2, 1, 0, 0, 1, []float64{-9999, 8})
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	g.NoData = -9999
	g.HasNoData = true

	if got := g.Elevation(0, 0.5); got != 4 {
		t.Errorf("expected no-data cell to read as 0, got %v", got)
	}
}

func TestGridValidate(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
	}{
		{"no cells", Grid{Cols: 0, Rows: 1, CellSize: 1}},
		{"zero cell size", Grid{Cols: 1, Rows: 1, Values: []float64{1}}},
		{"short values", Grid{Cols: 2, Rows: 2, CellSize: 1, Values: []float64{1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.grid.Validate(); !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestGridConcurrentReads(t *testing.T) {
	values := make([]float64, 64*64)
	for i := range values {
		values[i] = float64(i % 64)
	}
	g, err := NewGrid(64, 64, 0, 0, 0.01, values)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	want := g.Elevation(0.3, 0.255)
	var wg sync.WaitGroup
	for iter, iterN := 0, 8; iter < iterN; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter, iterN := 0, 1000; iter < iterN; iter++ {
				if got := g.Elevation(0.3, 0.255); got != want {
					t.Errorf("concurrent read = %v, want %v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

const sampleASCII = `ncols 3
nrows 2
xllcorner 10.0
yllcorner 50.0
cellsize 0.5
NODATA_value -9999
7 8 9
1 2 -9999
`

func TestLoadASCIIGrid(t *testing.T) {
	g, err := LoadASCIIGrid(strings.NewReader(sampleASCII))
	if err != nil {
		t.Fatalf("LoadASCIIGrid failed: %v", err)
	}

	if g.Cols != 3 || g.Rows != 2 {
		t.Fatalf("expected 3x2 grid, got %dx%d", g.Cols, g.Rows)
	}
	if g.MinLongitude != 10.25 || g.MinLatitude != 50.25 {
		t.Errorf("expected cell centre origin (50.25, 10.25), got (%v, %v)", g.MinLatitude, g.MinLongitude)
	}
	// The last file row is the southern one.
	if got := g.At(0, 0); got != 1 {
		t.Errorf("expected south west value 1, got %v", got)
	}
	if got := g.At(0, 1); got != 7 {
		t.Errorf("expected north west value 7, got %v", got)
	}
	if got := g.At(2, 0); got != 0 {
		t.Errorf("expected no-data value to read as 0, got %v", got)
	}
	if got := g.Elevation(50.25, 10.25); got != 1 {
		t.Errorf("expected elevation 1 at first cell centre, got %v", got)
	}
}

func TestLoadASCIIGridErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing header", "ncols 2\nnrows 1\n1 2\n"},
		{"short data", "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n"},
		{"bad value", "ncols 1\nnrows 1\nxllcenter 0\nyllcenter 0\ncellsize 1\nabc\n"},
		{"bad header value", "ncols two\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadASCIIGrid(strings.NewReader(tt.input)); !errors.Is(err, ErrInvalidASCIIGrid) {
				t.Errorf("expected ErrInvalidASCIIGrid, got %v", err)
			}
		})
	}
}

func TestLoadASCIIGridFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dem.asc")
	if err := os.WriteFile(path, []byte(sampleASCII), 0644); err != nil {
		t.Fatalf("failed to write grid: %v", err)
	}

	g, err := LoadASCIIGridFile(path)
	if err != nil {
		t.Fatalf("LoadASCIIGridFile failed: %v", err)
	}
	if len(g.Values) != 6 {
		t.Errorf("expected 6 values, got %d", len(g.Values))
	}

	if _, err := LoadASCIIGridFile(filepath.Join(t.TempDir(), "missing.asc")); err == nil {
		t.Error("expected error for missing file")
	}
}
