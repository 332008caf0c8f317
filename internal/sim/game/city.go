package game

import (
	"fmt"

	"tigercity/internal/protocol"
)

const defaultGoal = 3000

// City is the tile grid the courier moves on.
type City struct {
	Width  int
	Height int
	Tiles  [][]string
	Legend map[string]protocol.TileDef
	Goal   int

	blocked map[string]struct{}
}

// LoadCity validates and normalizes a city payload: tiles must be
// rectangular, dimensions must agree, and every tile character must exist in
// the legend.
func LoadCity(p protocol.CityPayload) (*City, error) {
	if len(p.Tiles) == 0 {
		return nil, fmt.Errorf("city: tiles are empty")
	}
	rowLen := len(p.Tiles[0])
	for y, row := range p.Tiles {
		if len(row) != rowLen {
			return nil, fmt.Errorf("city: row %d has %d tiles, want %d", y, len(row), rowLen)
		}
	}

	width, height := p.Width, p.Height
	if width == 0 {
		width = rowLen
	}
	if height == 0 {
		height = len(p.Tiles)
	}
	if height != len(p.Tiles) || width != rowLen {
		return nil, fmt.Errorf("city: declared %dx%d but tiles are %dx%d", width, height, rowLen, len(p.Tiles))
	}

	legend := p.Legend
	if len(legend) == 0 {
		return nil, fmt.Errorf("city: legend is empty")
	}
	for y, row := range p.Tiles {
		for x, t := range row {
			if _, ok := legend[t]; !ok {
				return nil, fmt.Errorf("city: tile %q at (%d,%d) not in legend", t, x, y)
			}
		}
	}

	goal := p.Goal
	if goal == 0 {
		goal = defaultGoal
	}

	c := &City{
		Width:   width,
		Height:  height,
		Tiles:   p.Tiles,
		Legend:  legend,
		Goal:    goal,
		blocked: map[string]struct{}{},
	}
	for t, def := range legend {
		if (def.Blocked != nil && *def.Blocked) || (def.Walkable != nil && !*def.Walkable) {
			c.blocked[t] = struct{}{}
		}
	}
	return c, nil
}

func (c *City) InBounds(pos Coord) bool {
	return pos.X >= 0 && pos.X < c.Width && pos.Y >= 0 && pos.Y < c.Height
}

func (c *City) IsWalkable(pos Coord) bool {
	if !c.InBounds(pos) {
		return false
	}
	_, blocked := c.blocked[c.Tiles[pos.Y][pos.X]]
	return !blocked
}

// SurfaceWeight is the per-tile speed factor, 1.0 when unspecified or out of
// bounds.
func (c *City) SurfaceWeight(pos Coord) float64 {
	if !c.InBounds(pos) {
		return 1.0
	}
	def, ok := c.Legend[c.Tiles[pos.Y][pos.X]]
	if !ok || def.SurfaceWeight == nil {
		return 1.0
	}
	return *def.SurfaceWeight
}

func (c *City) TileType(pos Coord) (string, bool) {
	if !c.InBounds(pos) {
		return "", false
	}
	return c.Tiles[pos.Y][pos.X], true
}

func (c *City) TileName(pos Coord) string {
	t, ok := c.TileType(pos)
	if !ok {
		return ""
	}
	if def, found := c.Legend[t]; found && def.Name != "" {
		return def.Name
	}
	return t
}

// Adjacent returns the walkable 4-neighbors of a position.
func (c *City) Adjacent(pos Coord) []Coord {
	dirs := []Coord{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	var out []Coord
	for _, d := range dirs {
		n := Coord{X: pos.X + d.X, Y: pos.Y + d.Y}
		if c.IsWalkable(n) {
			out = append(out, n)
		}
	}
	return out
}

func ManhattanDistance(a, b Coord) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
