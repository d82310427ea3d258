package features

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terramesh/internal/elevation"
	"github.com/Faultbox/terramesh/internal/meshing"
	"github.com/Faultbox/terramesh/pkg/geo"
	"github.com/Faultbox/terramesh/pkg/noise"
)

// TileBuilder meshes features tile by tile. It is safe for concurrent use:
// each Build call owns its MeshBuilder and Mesh.
type TileBuilder struct {
	provider     elevation.Provider
	styles       Stylesheet
	triangulator meshing.Triangulator
	noise        *noise.Generator
	log          *zap.Logger
}

// TileOption configures a TileBuilder.
type TileOption func(*TileBuilder)

// WithLogger sets the tile builder logger.
func WithLogger(log *zap.Logger) TileOption {
	return func(tb *TileBuilder) {
		if log != nil {
			tb.log = log
		}
	}
}

// WithTriangulator overrides the triangulator handed to each MeshBuilder.
func WithTriangulator(t meshing.Triangulator) TileOption {
	return func(tb *TileBuilder) {
		tb.triangulator = t
	}
}

// WithNoise overrides the noise field handed to each MeshBuilder.
func WithNoise(g *noise.Generator) TileOption {
	return func(tb *TileBuilder) {
		tb.noise = g
	}
}

// NewTileBuilder creates a tile builder. provider must be safe for
// concurrent reads; nil means flat ground at zero.
func NewTileBuilder(provider elevation.Provider, styles Stylesheet, opts ...TileOption) *TileBuilder {
	if provider == nil {
		provider = elevation.Flat(0)
	}
	tb := &TileBuilder{
		provider: provider,
		styles:   styles,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(tb)
	}
	return tb
}

// TileResult is the outcome of building one tile.
type TileResult struct {
	QuadKey  geo.QuadKey
	Mesh     *meshing.Mesh
	Features int // features meshed into the tile
	Err      error
}

// Build meshes every styled feature overlapping the tile. A geometry error
// abandons the tile; cancellation is checked between features.
func (tb *TileBuilder) Build(ctx context.Context, qk geo.QuadKey, features []Feature) TileResult {
	res := TileResult{QuadKey: qk}
	if err := qk.Validate(); err != nil {
		res.Err = err
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("tile %s: %w", qk, err)
		return res
	}

	opts := []meshing.Option{meshing.WithLogger(tb.log)}
	if tb.triangulator != nil {
		opts = append(opts, meshing.WithTriangulator(tb.triangulator))
	}
	if tb.noise != nil {
		opts = append(opts, meshing.WithNoise(tb.noise))
	}
	mb := meshing.NewMeshBuilder(qk, tb.provider, opts...)
	tm := &tileMesh{
		mb:       mb,
		mesh:     meshing.NewMesh(qk.String()),
		provider: tb.provider,
	}

	start := time.Now()
	bbox := mb.BoundingBox()
	for i := range features {
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("tile %s: %w", qk, err)
			return res
		}

		f := &features[i]
		if !f.Intersects(bbox) {
			continue
		}
		style := tb.styles.Match(f)
		if style == nil {
			continue
		}
		if err := tm.build(f, style); err != nil {
			res.Err = fmt.Errorf("tile %s: feature %s (%s): %w", qk, f.ID, style.Name, err)
			return res
		}
		res.Features++
	}

	res.Mesh = tm.mesh
	tb.log.Debug("tile built",
		zap.String("quadkey", qk.String()),
		zap.Int("features", res.Features),
		zap.Int("vertices", tm.mesh.VertexCount()),
		zap.Int("triangles", tm.mesh.TriangleCount()),
		zap.Duration("elapsed", time.Since(start)))
	return res
}

// BuildTiles builds tiles on at most workers goroutines (0 = one per CPU)
// and returns results in input order. Once ctx is done no further tiles
// are scheduled; those report the context error.
func (tb *TileBuilder) BuildTiles(ctx context.Context, tiles []geo.QuadKey, features []Feature, workers int) []TileResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(tiles), 1))

	results := make([]TileResult, len(tiles))
	scheduled := make([]bool, len(tiles))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w, nw := 0, workers; w < nw; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = tb.Build(ctx, tiles[i], features)
			}
		}()
	}

feed:
	for i := range tiles {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
			scheduled[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	for i, ok := range scheduled {
		if !ok {
			results[i] = TileResult{QuadKey: tiles[i], Err: fmt.Errorf("tile %s: %w", tiles[i], ctx.Err())}
		}
	}
	return results
}
