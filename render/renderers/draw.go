package renderers

import (
	"math"

	"github.com/lixenwraith/radarterm/projection"
	"github.com/lixenwraith/radarterm/protocol"
	"github.com/lixenwraith/radarterm/render"
)

type cell struct{ x, y int }

// ringCells samples a circle of radius r surface units around (sx, sy)
// The center cell is excluded; every dash-th sample is skipped when dash > 0
func ringCells(ctx *render.Context, sx, sy, r float64, dash int) []cell {
	cx, cy, _ := ctx.ToCell(sx, sy)
	const steps = 24
	seen := make(map[cell]struct{}, steps)
	out := make([]cell, 0, steps)
	for i := 0; i < steps; i++ {
		if dash > 0 && (i/dash)%2 == 1 {
			continue
		}
		a := float64(i) * 2 * math.Pi / steps
		x, y, ok := ctx.ToCell(sx+r*math.Cos(a), sy+r*math.Sin(a))
		if !ok || (x == cx && y == cy) {
			continue
		}
		c := cell{x, y}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// tintRing blends color into the background of a ring's cells
func tintRing(ctx *render.Context, buf *render.Buffer, sx, sy, r float64, dash int, color render.RGB, alpha float64) {
	for _, c := range ringCells(ctx, sx, sy, r, dash) {
		buf.Set(c.x, c.y, 0, render.RGB{}, color, render.BlendAlphaBg, alpha, 0)
	}
}

// segmentCells walks a surface-space segment and returns the cells it crosses, ends included
func segmentCells(ctx *render.Context, x0, y0, x1, y1 float64) []cell {
	dist := math.Hypot(x1-x0, y1-y0)
	steps := max(1, int(math.Ceil(dist/0.5)))
	out := make([]cell, 0, steps+1)
	last := cell{-1, -1}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x, y, ok := ctx.ToCell(x0+(x1-x0)*t, y0+(y1-y0)*t)
		if !ok {
			continue
		}
		c := cell{x, y}
		if c == last {
			continue
		}
		last = c
		out = append(out, c)
	}
	return out
}

var arrows = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// heading returns the screen-space facing vector for a yaw in degrees
// Markers point along 270 - yaw, rotated with the view
func heading(yaw, viewRotation float64) (float64, float64) {
	sin, cos := math.Sincos((270 - yaw) * math.Pi / 180)
	return projection.Rotate(sin, -cos, 0, 0, viewRotation)
}

// arrowGlyph picks the eight-way arrow nearest a screen-space direction (y down)
func arrowGlyph(dx, dy float64) rune {
	a := math.Atan2(dy, dx)
	i := int(math.Round(a/(math.Pi/4))) % 8
	if i < 0 {
		i += 8
	}
	return arrows[i]
}

// centerText draws s centered on column x, clipped to the radar area
func centerText(ctx *render.Context, buf *render.Buffer, x, y int, s string, fg render.RGB) {
	if !ctx.Radar.Contains(ctx.Radar.X, y) {
		return
	}
	start := max(ctx.Radar.X, x-len([]rune(s))/2)
	right := ctx.Radar.X + ctx.Radar.W
	for _, r := range s {
		if start >= right {
			break
		}
		buf.Set(start, y, r, fg, render.RGB{}, render.BlendFgOnly, 1, 0)
		start++
	}
}

func teamColor(team protocol.Team) render.RGB {
	switch team {
	case protocol.TeamCT:
		return render.RgbTeamCT
	case protocol.TeamT:
		return render.RgbTeamT
	}
	return render.RgbTeamOther
}
