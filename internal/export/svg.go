package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/viz"
)

// maxPathPoints bounds the vertices written per path; longer paths are strided.
const maxPathPoints = 4000

// DefaultPalette colours paths in order.
var DefaultPalette = []string{"#ffd700", "#00ffff", "#ff00ff", "#00ff88", "#ff8800", "#8888ff"}

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.Pixels()
	width := int(math.Round(float64(pw) * scale))
	height := int(math.Round(float64(ph) * scale))

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ProjectionToSVG draws every projected path with equal axis scaling, marks
// each body's last position and labels it. palette falls back to
// DefaultPalette.
func ProjectionToSVG(proj *analysis.Projection2D, width, height int, palette []string) string {
	if proj == nil || width <= 0 || height <= 0 {
		return ""
	}
	minX, maxX, minY, maxY, ok := proj.Bounds()
	if !ok {
		return ""
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	// Add padding
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	scale := math.Min(float64(width), float64(height)) / span
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	toScreen := func(x, y float64) (float64, float64) {
		return float64(width)/2 + (x-midX)*scale, float64(height)/2 - (y-midY)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)

	for i, path := range proj.Paths {
		if len(path.Points) == 0 {
			continue
		}
		colour := palette[i%len(palette)]
		stride := (len(path.Points) + maxPathPoints - 1) / maxPathPoints

		if len(path.Points) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.2" d="`, colour)
			last := len(path.Points) - 1
			for j := 0; j <= last; j += stride {
				x, y := toScreen(path.Points[j].X, path.Points[j].Y)
				if j == 0 {
					fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
				if j < last && j+stride > last {
					j = last - stride
				}
			}
			sb.WriteString("\"/>\n")
		}

		end := path.Points[len(path.Points)-1]
		x, y := toScreen(end.X, end.Y)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", x, y, colour)
		if path.Name != "" {
			fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-family=\"monospace\" font-size=\"11\">%s</text>\n",
				x+5, y-5, colour, html.EscapeString(path.Name))
		}
	}

	fmt.Fprintf(&sb, "<text x=\"8\" y=\"%d\" fill=\"#888899\" font-family=\"monospace\" font-size=\"11\">%s</text>\n", height-8, proj.Plane)
	sb.WriteString("</svg>")
	return sb.String()
}
