package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/terramesh/pkg/geo"
)

func cmdTile(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshgen tile <quadkey>")
		os.Exit(1)
	}

	qk, err := geo.ParseQuadKey(args[0])
	if err != nil {
		fail("%v", err)
	}
	bbox := geo.QuadKeyToBoundingBox(qk)
	c := bbox.Center()

	fmt.Println(panel("Tile "+qk.String(),
		field("Level", fmt.Sprint(qk.LevelOfDetail)),
		field("Tile", fmt.Sprintf("x=%d y=%d", qk.TileX, qk.TileY)),
		field("South west", fmt.Sprintf("%.7f, %.7f", bbox.MinPoint.Latitude, bbox.MinPoint.Longitude)),
		field("North east", fmt.Sprintf("%.7f, %.7f", bbox.MaxPoint.Latitude, bbox.MaxPoint.Longitude)),
		field("Centre", fmt.Sprintf("%.7f, %.7f", c.Latitude, c.Longitude)),
		field("Span", fmt.Sprintf("%.7f x %.7f deg", bbox.Width(), bbox.Height())),
	))
}
