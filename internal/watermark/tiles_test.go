package watermark

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanTilesCoverage(t *testing.T) {
	canvas := Size{W: 1000, H: 800}
	tile := DefaultTileSize(canvas)

	tiles := PlanTiles(canvas, tile)
	assert.Len(t, tiles, DefaultRows*DefaultCols)

	// Centers are spaced exactly one tile apart in both axes.
	assert.Equal(t, tile.W, tiles[1].X-tiles[0].X)
	assert.Equal(t, tile.H, tiles[DefaultCols].Y-tiles[0].Y)

	// First and last centers sit half a tile inside the canvas edges, so a
	// tile drawn at each center leaves no gap.
	assert.Equal(t, tile.W/2, tiles[0].X)
	assert.Equal(t, tile.H/2, tiles[0].Y)
	last := tiles[len(tiles)-1]
	assert.Equal(t, canvas.W-tile.W/2, last.X)
	assert.Equal(t, canvas.H-tile.H/2, last.Y)
}

func TestPlanTilesOddCanvasSizes(t *testing.T) {
	for _, canvas := range []Size{
		{W: 33, H: 47},
		{W: 1, H: 1},
		{W: 4096, H: 117},
	} {
		tiles := PlanTiles(canvas, DefaultTileSize(canvas))
		assert.NotEmpty(t, tiles, "canvas %+v", canvas)
		for _, tile := range tiles {
			assert.False(t, math.IsNaN(tile.X) || math.IsNaN(tile.Y))
			assert.True(t, tile.X > 0 && tile.X < canvas.W)
			assert.True(t, tile.Y > 0 && tile.Y < canvas.H)
		}
	}
}

func TestPlanTilesDegenerateInput(t *testing.T) {
	assert.Empty(t, PlanTiles(Size{}, Size{W: 100, H: 100}))
	assert.Empty(t, PlanTiles(Size{W: 100, H: 100}, Size{}))
	assert.Empty(t, PlanTiles(Size{W: -10, H: 100}, Size{W: 10, H: 10}))
	assert.Empty(t, PlanTiles(Size{W: math.NaN(), H: 100}, Size{W: 10, H: 10}))
	assert.Empty(t, PlanTiles(Size{W: math.Inf(1), H: 100}, Size{W: 10, H: 10}))
	assert.Empty(t, PlanTiles(Size{W: 100, H: 100}, Size{W: math.NaN(), H: 10}))
}

func TestPlanTilesDeterministic(t *testing.T) {
	canvas := Size{W: 640, H: 480}
	tile := Size{W: 200, H: 150}

	first := PlanTiles(canvas, tile)
	second := PlanTiles(canvas, tile)
	assert.Equal(t, first, second)
}
