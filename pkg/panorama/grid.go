// Package panorama reconstructs equirectangular Street View panoramas from
// tiles and cuts directional views out of them.
package panorama

import "fmt"

const (
	// TileSize is the edge length of a square panorama tile in pixels
	TileSize = 512

	MinZoom     = 0
	MaxZoom     = 5
	DefaultZoom = 2
)

// TileCoord addresses one tile of the grid
type TileCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GridSize returns the number of tile columns and rows at zoom.
// Columns double per level; rows lag one level behind with a floor of one.
func GridSize(zoom int) (cols, rows int, err error) {
	if zoom < MinZoom || zoom > MaxZoom {
		return 0, 0, fmt.Errorf("zoom %d out of range [%d,%d]", zoom, MinZoom, MaxZoom)
	}
	cols = 1 << zoom
	rows = 1
	if zoom > 0 {
		rows = 1 << (zoom - 1)
	}
	return cols, rows, nil
}

// Dimensions returns the stitched panorama size at zoom
func Dimensions(zoom int) (width, height int, err error) {
	cols, rows, err := GridSize(zoom)
	if err != nil {
		return 0, 0, err
	}
	return cols * TileSize, rows * TileSize, nil
}
