package elevation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidASCIIGrid is returned when an ESRI ASCII grid cannot be parsed.
var ErrInvalidASCIIGrid = errors.New("invalid ASCII grid")

// LoadASCIIGridFile reads an ESRI ASCII grid from disk.
func LoadASCIIGridFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()

	g, err := LoadASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}

// LoadASCIIGrid parses an ESRI ASCII grid (.asc). The header keys ncols,
// nrows, xllcorner|xllcenter, yllcorner|yllcenter and cellsize are required,
// NODATA_value is optional. x is longitude and y latitude; the first data
// row is the northernmost one.
func LoadASCIIGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	header := make(map[string]float64)
	var first string
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = sc.Text()
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: missing value for %q", ErrInvalidASCIIGrid, key)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: header %q: %w", ErrInvalidASCIIGrid, key, err)
		}
		header[key] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}

	cols, okCols := header["ncols"]
	rows, okRows := header["nrows"]
	cell, okCell := header["cellsize"]
	if !okCols || !okRows || !okCell {
		return nil, fmt.Errorf("%w: ncols, nrows and cellsize are required", ErrInvalidASCIIGrid)
	}

	g := &Grid{Cols: int(cols), Rows: int(rows), CellSize: cell}
	switch {
	case hasKey(header, "xllcenter"):
		g.MinLongitude = header["xllcenter"]
	case hasKey(header, "xllcorner"):
		g.MinLongitude = header["xllcorner"] + cell/2
	default:
		return nil, fmt.Errorf("%w: missing xllcorner", ErrInvalidASCIIGrid)
	}
	switch {
	case hasKey(header, "yllcenter"):
		g.MinLatitude = header["yllcenter"]
	case hasKey(header, "yllcorner"):
		g.MinLatitude = header["yllcorner"] + cell/2
	default:
		return nil, fmt.Errorf("%w: missing yllcorner", ErrInvalidASCIIGrid)
	}
	if nd, ok := header["nodata_value"]; ok {
		g.NoData = nd
		g.HasNoData = true
	}
	if g.Cols < 1 || g.Rows < 1 {
		return nil, fmt.Errorf("%w: %dx%d cells", ErrInvalidASCIIGrid, g.Cols, g.Rows)
	}

	values := make([]float64, 0, g.Cols*g.Rows)
	tokens := []string{}
	if first != "" {
		tokens = append(tokens, first)
	}
	next := func() (string, bool) {
		if len(tokens) > 0 {
			t := tokens[0]
			tokens = tokens[1:]
			return t, true
		}
		if sc.Scan() {
			return sc.Text(), true
		}
		return "", false
	}
	for len(values) < g.Cols*g.Rows {
		tok, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("read grid: %w", err)
			}
			return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidASCIIGrid, g.Cols*g.Rows, len(values))
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %w", ErrInvalidASCIIGrid, len(values), err)
		}
		values = append(values, v)
	}

	// File rows run north to south; the grid stores them south to north.
	g.Values = make([]float64, len(values))
	for row, nrow := 0, g.Rows; row < nrow; row++ {
		src := values[(g.Rows-1-row)*g.Cols : (g.Rows-row)*g.Cols]
		copy(g.Values[row*g.Cols:], src)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func hasKey(m map[string]float64, key string) bool {
	_, ok := m[key]
	return ok
}
