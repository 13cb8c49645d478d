package watermark

import "math"

// Size is a width/height pair in the caller's coordinate space.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Tile is the center point of one watermark repetition, in the same
// coordinate space as the canvas it was planned for.
type Tile struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Production exports tile a 2x4 grid over the diagram, matching the
// on-screen viewers.
const (
	DefaultRows = 4
	DefaultCols = 2
)

// DefaultTileSize returns the tile size that divides a canvas into the
// standard DefaultRows x DefaultCols grid.
func DefaultTileSize(canvas Size) Size {
	return Size{W: canvas.W / DefaultCols, H: canvas.H / DefaultRows}
}

// PlanTiles computes the center points of repeated watermark tiles covering
// the canvas. Centers sit at ((col+0.5)*tileW, (row+0.5)*tileH), so adjacent
// centers are spaced exactly one tile apart and the grid covers the canvas
// with no gaps. The function is pure and deterministic; degenerate input
// (zero, negative or non-finite dimensions) yields an empty plan.
func PlanTiles(canvas, tile Size) []Tile {
	if !positive(canvas.W) || !positive(canvas.H) || !positive(tile.W) || !positive(tile.H) {
		return nil
	}

	cols := int(math.Round(canvas.W / tile.W))
	if cols < 1 {
		cols = 1
	}
	rows := int(math.Round(canvas.H / tile.H))
	if rows < 1 {
		rows = 1
	}

	tiles := make([]Tile, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tiles = append(tiles, Tile{
				X: (float64(c) + 0.5) * tile.W,
				Y: (float64(r) + 0.5) * tile.H,
			})
		}
	}
	return tiles
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
