package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// Pixels is the canvas size in sub-pixels.
func (c *Canvas) Pixels() (int, int) { return c.Width * 2, c.Height * 4 }

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

// Unset clears a pixel
func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] &= ^rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Blob fills a square of side 2r+1 around (x, y).
func (c *Canvas) Blob(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps plane coordinates onto canvas sub-pixels. Y grows upwards in
// world space and downwards on screen.
type Viewport struct {
	CX, CY float64
	// Scale is sub-pixels per world unit.
	Scale         float64
	Width, Height int
}

// FitViewport centres on (cx, cy) and scales so that a disc of radius
// extent fills the shorter side of a w x h sub-pixel area.
func FitViewport(cx, cy, extent float64, w, h int) Viewport {
	v := Viewport{CX: cx, CY: cy, Width: w, Height: h, Scale: 1}
	if extent > 0 && !math.IsInf(extent, 0) {
		v.Scale = float64(min(w, h)) / 2 / extent
	}
	return v
}

// Zoom returns a copy magnified by f.
func (v Viewport) Zoom(f float64) Viewport {
	v.Scale *= f
	return v
}

// ToPixel converts a world position to sub-pixel coordinates. ok is false
// when the position falls outside the canvas.
func (v Viewport) ToPixel(x, y float64) (px, py int, ok bool) {
	fx := float64(v.Width)/2 + (x-v.CX)*v.Scale
	fy := float64(v.Height)/2 - (y-v.CY)*v.Scale
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return 0, 0, false
	}
	px, py = int(math.Floor(fx)), int(math.Floor(fy))
	return px, py, px >= 0 && py >= 0 && px < v.Width && py < v.Height
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
