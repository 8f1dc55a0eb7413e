// Package projection maps world coordinates onto a 2D surface
package projection

import (
	"math"

	"github.com/lixenwraith/radarterm/protocol"
)

// FallbackSpan is the world extent assumed when no usable span is known
const FallbackSpan = 1024.0

// Project maps world (x, y) to surface (sx, sy) for a surface of the given size
// A nil cfg uses the origin-centered fallback
func Project(x, y float64, cfg *protocol.MapConfig, width, height float64) (float64, float64) {
	spanX, spanY := spans(cfg)

	if cfg == nil || cfg.Bounds == nil {
		return (x + spanX/2) / spanX * width, (y + spanY/2) / spanY * height
	}

	b := cfg.Bounds
	if t := cfg.Transform; t != nil {
		if t.FlipX {
			x = b.MaxX + b.MinX - x
		}
		if t.FlipY {
			y = b.MaxY + b.MinY - y
		}
		if t.RotateDeg != 0 {
			x, y = rotateAbout(x, y, (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2, t.RotateDeg)
		}
	}
	return (x - b.MinX) / spanX * width, (y - b.MinY) / spanY * height
}

// spans returns the world extent per axis, guarding against unusable values
func spans(cfg *protocol.MapConfig) (float64, float64) {
	var sx, sy float64
	switch {
	case cfg == nil:
	case cfg.Bounds != nil:
		sx = cfg.Bounds.MaxX - cfg.Bounds.MinX
		sy = cfg.Bounds.MaxY - cfg.Bounds.MinY
	default:
		sx, sy = cfg.Width, cfg.Height
	}
	return usable(sx), usable(sy)
}

func usable(span float64) float64 {
	if math.IsNaN(span) || math.IsInf(span, 0) || span <= 0 {
		return FallbackSpan
	}
	return span
}

// rotateAbout applies a standard counter-clockwise rotation around (cx, cy)
func rotateAbout(x, y, cx, cy, deg float64) (float64, float64) {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	dx, dy := x-cx, y-cy
	return cx + dx*cos - dy*sin, cy + dx*sin + dy*cos
}

// Rotate turns a surface point about the surface center, used for view rotation
func Rotate(sx, sy, width, height, deg float64) (float64, float64) {
	if deg == 0 {
		return sx, sy
	}
	return rotateAbout(sx, sy, width/2, height/2, deg)
}

// Degraded reports that projection is approximate because bounds are unavailable
func Degraded(cfg *protocol.MapConfig) bool {
	return cfg == nil || cfg.Bounds == nil
}

// NormalizeZ maps elevation into [0, 1] when the config carries a usable z range
func NormalizeZ(z float64, cfg *protocol.MapConfig) (float64, bool) {
	if cfg == nil || cfg.ZRange == nil {
		return 0, false
	}
	lo, hi := cfg.ZRange.Min, cfg.ZRange.Max
	if !(hi > lo) || math.IsInf(hi-lo, 0) {
		return 0, false
	}
	t := (z - lo) / (hi - lo)
	return math.Max(0, math.Min(1, t)), true
}
