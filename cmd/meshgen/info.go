package main

import (
	"fmt"
	"math"
	"os"

	"github.com/Faultbox/terramesh/pkg/formats"
)

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshgen info <file.tmsh>")
		os.Exit(1)
	}

	m, err := formats.ReadMeshFile(args[0])
	if err != nil {
		fail("%v", err)
	}

	minP := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxP := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < len(m.Vertices); i += 3 {
		for k, nk := 0, 3; k < nk; k++ {
			minP[k] = min(minP[k], m.Vertices[i+k])
			maxP[k] = max(maxP[k], m.Vertices[i+k])
		}
	}
	colors := make(map[uint32]struct{})
	for _, c := range m.Colors {
		colors[c] = struct{}{}
	}

	rows := []string{
		field("File", args[0]),
		field("Vertices", fmt.Sprint(m.VertexCount())),
		field("Triangles", fmt.Sprint(m.TriangleCount())),
		field("Colours", fmt.Sprint(len(colors))),
	}
	if m.VertexCount() > 0 {
		rows = append(rows,
			field("Longitude", fmt.Sprintf("%.7f .. %.7f", minP[0], maxP[0])),
			field("Latitude", fmt.Sprintf("%.7f .. %.7f", minP[1], maxP[1])),
			field("Elevation", fmt.Sprintf("%.2f .. %.2f", minP[2], maxP[2])),
		)
	}
	fmt.Println(panel("Mesh "+m.Name, rows...))
}
