// meshgen builds terrain meshes for map tiles from GeoJSON features.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		cmdBuild(args)
	case "info":
		cmdInfo(args)
	case "tile":
		cmdTile(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshgen - terrain mesh generator for map tiles

Usage:
  meshgen <command> [options]

Commands:
  build [options]        Build tile meshes from a GeoJSON feature collection
  info <file.tmsh>       Show mesh file information
  tile <quadkey>         Show the bounding box of a tile

Build options:
  -config <file>         Config file (default ./terramesh.yaml)
  -input <file>          GeoJSON feature collection
  -quadkey <key>         Tile to build, repeatable
  -output <dir>          Output directory
  -format obj|tmsh       Output format
  -workers <n>           Tiles built in parallel (0 = one per CPU)
  -debug                 Enable debug logging

Examples:
  meshgen build -input city.geojson -quadkey 12021023322 -format obj
  meshgen info out/12021023322.tmsh
  meshgen tile 12021023322`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
