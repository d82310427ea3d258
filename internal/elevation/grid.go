package elevation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGrid is returned for grids whose dimensions do not match their data.
var ErrInvalidGrid = errors.New("invalid elevation grid")

// Grid is a regular heightmap in geographic coordinates.
// Values are stored row major with row 0 at MinLatitude; cell centres sit
// on the lattice MinLatitude + row*CellSize, MinLongitude + col*CellSize.
type Grid struct {
	Cols         int
	Rows         int
	MinLatitude  float64
	MinLongitude float64
	CellSize     float64
	NoData       float64
	HasNoData    bool
	Values       []float64
}

// NewGrid validates and returns a grid. The values slice is kept, not copied.
func NewGrid(cols, rows int, minLat, minLon, cellSize float64, values []float64) (*Grid, error) {
	g := &Grid{
		Cols:         cols,
		Rows:         rows,
		MinLatitude:  minLat,
		MinLongitude: minLon,
		CellSize:     cellSize,
		Values:       values,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks that the grid can be sampled.
func (g *Grid) Validate() error {
	if g.Cols < 1 || g.Rows < 1 {
		return fmt.Errorf("%w: %dx%d cells", ErrInvalidGrid, g.Cols, g.Rows)
	}
	if !(g.CellSize > 0) {
		return fmt.Errorf("%w: cell size %v", ErrInvalidGrid, g.CellSize)
	}
	if len(g.Values) != g.Cols*g.Rows {
		return fmt.Errorf("%w: %d values for %dx%d cells", ErrInvalidGrid, len(g.Values), g.Cols, g.Rows)
	}
	return nil
}

// At returns the stored value of a cell, clamping the indices into the grid.
// No-data cells read as 0.
func (g *Grid) At(col, row int) float64 {
	col = clampInt(col, 0, g.Cols-1)
	row = clampInt(row, 0, g.Rows-1)
	v := g.Values[row*g.Cols+col]
	if g.HasNoData && v == g.NoData {
		return 0
	}
	return v
}

// Elevation returns the bilinearly interpolated height. Positions outside
// the grid take the value of the nearest edge. The grid is never written
// after construction, so concurrent reads are safe.
func (g *Grid) Elevation(latitude, longitude float64) float64 {
	fx := (longitude - g.MinLongitude) / g.CellSize
	fy := (latitude - g.MinLatitude) / g.CellSize
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return 0
	}

	cellX := int(math.Floor(fx))
	cellY := int(math.Floor(fy))

	// Clamp to valid range
	cellX = clampInt(cellX, 0, max(g.Cols-2, 0))
	cellY = clampInt(cellY, 0, max(g.Rows-2, 0))

	fracX := clampf(fx-float64(cellX), 0, 1)
	fracY := clampf(fy-float64(cellY), 0, 1)

	// Corners: 0=SW, 1=SE, 2=NW, 3=NE
	sw := g.At(cellX, cellY)
	se := g.At(cellX+1, cellY)
	nw := g.At(cellX, cellY+1)
	ne := g.At(cellX+1, cellY+1)

	south := sw*(1-fracX) + se*fracX
	north := nw*(1-fracX) + ne*fracX
	return south*(1-fracY) + north*fracY
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
