package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Plane selects the two coordinates a projection keeps.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func ParsePlane(name string) (Plane, error) {
	switch strings.ToLower(name) {
	case "xy", "":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "yz":
		return PlaneYZ, nil
	}
	return PlaneXY, fmt.Errorf("unknown plane: %s", name)
}

func (p Plane) String() string {
	switch p {
	case PlaneXZ:
		return "xz"
	case PlaneYZ:
		return "yz"
	}
	return "xy"
}

// Coords returns the two coordinates of v that lie in the plane.
func (p Plane) Coords(v dynamo.Vec3) (float64, float64) {
	switch p {
	case PlaneXZ:
		return v.X, v.Z
	case PlaneYZ:
		return v.Y, v.Z
	}
	return v.X, v.Y
}

// Path is one body's projected positions.
type Path struct {
	Name   string
	Points []struct{ X, Y float64 }
}

// Projection2D holds the projected paths of several bodies.
type Projection2D struct {
	Plane Plane
	Paths []Path
}

// Project flattens each named trajectory onto plane.
func Project(plane Plane, names []string, trajectories [][]dynamo.Point) *Projection2D {
	proj := &Projection2D{Plane: plane, Paths: make([]Path, 0, len(trajectories))}
	for i, pts := range trajectories {
		path := Path{Points: make([]struct{ X, Y float64 }, len(pts))}
		if i < len(names) {
			path.Name = names[i]
		}
		for j, p := range pts {
			path.Points[j].X, path.Points[j].Y = plane.Coords(p.Position)
		}
		proj.Paths = append(proj.Paths, path)
	}
	return proj
}

// Bounds returns the extent of all projected points.
func (p *Projection2D) Bounds() (minX, maxX, minY, maxY float64, ok bool) {
	for _, path := range p.Paths {
		for _, pt := range path.Points {
			if !ok {
				minX, maxX, minY, maxY, ok = pt.X, pt.X, pt.Y, pt.Y, true
				continue
			}
			minX, maxX = min(minX, pt.X), max(maxX, pt.X)
			minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
		}
	}
	return
}

var pathMarks = []rune{'•', '∘', '+', 'x', '*', 'o', '#', '~'}

// ProjectionToASCII renders every path with its own marker.
func ProjectionToASCII(proj *Projection2D, width, height int) string {
	if proj == nil || width < 2 || height < 2 {
		return ""
	}
	minX, maxX, minY, maxY, ok := proj.Bounds()
	if !ok {
		return ""
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			canvas[row][col] = '─'
		}
	}

	for i, path := range proj.Paths {
		mark := pathMarks[i%len(pathMarks)]
		for _, p := range path.Points {
			col := int((p.X - minX) / rangeX * float64(width-1))
			row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
			if row >= 0 && row < height && col >= 0 && col < width {
				canvas[row][col] = mark
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	for i, path := range proj.Paths {
		if path.Name != "" {
			fmt.Fprintf(&sb, "%c %s\n", pathMarks[i%len(pathMarks)], path.Name)
		}
	}
	return sb.String()
}
