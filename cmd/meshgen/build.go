package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terramesh/internal/config"
	"github.com/Faultbox/terramesh/internal/elevation"
	"github.com/Faultbox/terramesh/internal/features"
	"github.com/Faultbox/terramesh/internal/logger"
	"github.com/Faultbox/terramesh/internal/meshing"
	"github.com/Faultbox/terramesh/pkg/formats"
	"github.com/Faultbox/terramesh/pkg/geo"
)

// elevationCacheResolution snaps provider lookups to roughly one metre.
const elevationCacheResolution = 1e-5

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fail("%v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail("init logger: %v", err)
	}
	defer logger.Sync()
	logger.Debug("config loaded",
		zap.String("elevation", cfg.Elevation.Provider),
		zap.String("format", cfg.Output.Format),
		zap.Int("workers", cfg.Tile.Workers),
		zap.Strings("quadkeys", cfg.Tile.QuadKeys))

	if cfg.Input.Features == "" {
		fail("no input: set -input or input.features")
	}
	if len(cfg.Tile.QuadKeys) == 0 {
		fail("no tiles: set -quadkey or tile.quadkeys")
	}

	tiles := make([]geo.QuadKey, 0, len(cfg.Tile.QuadKeys))
	for _, s := range cfg.Tile.QuadKeys {
		qk, err := geo.ParseQuadKey(s)
		if err != nil {
			fail("quadkey %q: %v", s, err)
		}
		tiles = append(tiles, qk)
	}

	provider, err := newProvider(cfg.Elevation)
	if err != nil {
		fail("%v", err)
	}
	sheet, err := features.NewStylesheet(cfg.Styles)
	if err != nil {
		fail("%v", err)
	}
	feats, err := features.LoadGeoJSONFile(cfg.Input.Features)
	if err != nil {
		fail("%v", err)
	}
	logger.Info("features loaded",
		zap.String("file", cfg.Input.Features),
		zap.Int("features", len(feats)),
		zap.Int("styles", len(sheet)))

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		fail("create output dir: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	tb := features.NewTileBuilder(provider, sheet, features.WithLogger(logger.Named("tiles")))
	results := tb.BuildTiles(ctx, tiles, feats, cfg.Tile.Workers)

	var rows []string
	failed := 0
	for _, r := range results {
		row, ok := reportTile(cfg.Output, r)
		if !ok {
			failed++
		}
		rows = append(rows, row)
	}
	rows = append(rows, "", field("Elapsed", time.Since(start).Round(time.Millisecond).String()))
	fmt.Println(panel(fmt.Sprintf("Built %d of %d tiles", len(results)-failed, len(results)), rows...))

	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

// reportTile writes a finished tile and returns its summary row; ok is false
// when the tile failed to build or write.
func reportTile(out config.OutputConfig, r features.TileResult) (string, bool) {
	name := r.QuadKey.String()
	if r.Err != nil {
		logger.Error("tile failed", zap.String("quadkey", name), zap.Error(r.Err))
		return field(name, errStyle.Render(r.Err.Error())), false
	}
	if r.Features == 0 {
		logger.Warn("tile has no styled features", zap.String("quadkey", name))
	}
	path, err := writeTile(out, r.Mesh)
	if err != nil {
		logger.Error("write failed", zap.String("quadkey", name), zap.Error(err))
		return field(name, errStyle.Render(err.Error())), false
	}
	return field(name, okStyle.Render(fmt.Sprintf(
		"%d features, %d vertices, %d triangles -> %s",
		r.Features, r.Mesh.VertexCount(), r.Mesh.TriangleCount(), path))), true
}

func newProvider(cfg config.ElevationConfig) (elevation.Provider, error) {
	switch cfg.Provider {
	case "grid":
		g, err := elevation.LoadASCIIGridFile(cfg.GridFile)
		if err != nil {
			return nil, err
		}
		return elevation.NewCache(g, elevationCacheResolution), nil
	default:
		return elevation.Flat(cfg.Height), nil
	}
}

func writeTile(out config.OutputConfig, m *meshing.Mesh) (string, error) {
	wire := &formats.Mesh{
		Name:      m.Name,
		Vertices:  m.Vertices,
		Triangles: m.Triangles,
		Colors:    m.Colors,
		UVs:       m.UVs,
	}
	path := filepath.Join(out.Dir, m.Name+"."+out.Format)
	switch out.Format {
	case "tmsh":
		return path, formats.WriteMeshFile(path, wire)
	default:
		return path, formats.WriteOBJFile(path, wire)
	}
}
