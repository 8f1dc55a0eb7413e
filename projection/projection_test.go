package projection

import (
	"math"
	"testing"

	"github.com/lixenwraith/radarterm/protocol"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func square() *protocol.Bounds {
	return &protocol.Bounds{MinX: 0, MaxX: 100, MinY: 0, MaxY: 100}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		cfg    *protocol.MapConfig
		wx, wy float64
	}{
		{"bounds center", 50, 50, &protocol.MapConfig{Bounds: square()}, 100, 100},
		{"bounds corner", 0, 0, &protocol.MapConfig{Bounds: square()}, 0, 0},
		{"identity transform", 25, 75, &protocol.MapConfig{Bounds: square(), Transform: &protocol.Transform{}}, 50, 150},
		{"flip x", 0, 50, &protocol.MapConfig{Bounds: square(), Transform: &protocol.Transform{FlipX: true}}, 200, 100},
		{"flip y", 10, 0, &protocol.MapConfig{Bounds: square(), Transform: &protocol.Transform{FlipY: true}}, 20, 200},
		// +90 turns a +x offset from center into a +y offset
		{"rotate 90", 100, 50, &protocol.MapConfig{Bounds: square(), Transform: &protocol.Transform{RotateDeg: 90}}, 100, 200},
		{"rotate center fixed", 50, 50, &protocol.MapConfig{Bounds: square(), Transform: &protocol.Transform{RotateDeg: 37}}, 100, 100},
		{"no bounds origin", 0, 0, &protocol.MapConfig{}, 100, 100},
		{"no bounds fallback span", 512, -512, &protocol.MapConfig{}, 200, 0},
		{"no bounds declared span", 1024, 0, &protocol.MapConfig{Width: 2048, Height: 2048}, 200, 100},
		{"nil config", 0, 0, nil, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := Project(tt.x, tt.y, tt.cfg, 200, 200)
			if !near(sx, tt.wx) || !near(sy, tt.wy) {
				t.Errorf("Project(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, sx, sy, tt.wx, tt.wy)
			}
		})
	}
}

func TestProject_UnusableSpans(t *testing.T) {
	cfgs := []*protocol.MapConfig{
		{Bounds: &protocol.Bounds{MinX: 10, MaxX: 10, MinY: 0, MaxY: 100}},
		{Bounds: &protocol.Bounds{MinX: 10, MaxX: -10, MinY: 0, MaxY: 100}},
		{Bounds: &protocol.Bounds{MinX: 0, MaxX: math.Inf(1), MinY: 0, MaxY: 100}},
		{Width: -1, Height: math.NaN()},
	}
	for i, cfg := range cfgs {
		sx, sy := Project(0, 0, cfg, 200, 200)
		if math.IsNaN(sx) || math.IsInf(sx, 0) || math.IsNaN(sy) || math.IsInf(sy, 0) {
			t.Errorf("case %d: non-finite output (%v, %v)", i, sx, sy)
		}
	}
}

func TestDegraded(t *testing.T) {
	if !Degraded(nil) {
		t.Error("nil config should be degraded")
	}
	if !Degraded(&protocol.MapConfig{Width: 1000}) {
		t.Error("config without bounds should be degraded")
	}
	if Degraded(&protocol.MapConfig{Bounds: square()}) {
		t.Error("config with bounds should not be degraded")
	}
}

func TestNormalizeZ(t *testing.T) {
	cfg := &protocol.MapConfig{ZRange: &protocol.ZRange{Min: -100, Max: 100}}
	tests := []struct {
		z    float64
		want float64
	}{
		{-100, 0},
		{0, 0.5},
		{100, 1},
		{500, 1},
		{-900, 0},
	}
	for _, tt := range tests {
		got, ok := NormalizeZ(tt.z, cfg)
		if !ok || !near(got, tt.want) {
			t.Errorf("NormalizeZ(%v) = %v, %v; want %v", tt.z, got, ok, tt.want)
		}
	}

	if _, ok := NormalizeZ(0, &protocol.MapConfig{ZRange: &protocol.ZRange{Min: 5, Max: 5}}); ok {
		t.Error("empty z range should be rejected")
	}
	if _, ok := NormalizeZ(0, &protocol.MapConfig{}); ok {
		t.Error("missing z range should be rejected")
	}
}

func TestRotate(t *testing.T) {
	sx, sy := Rotate(200, 100, 200, 200, 180)
	if !near(sx, 0) || !near(sy, 100) {
		t.Errorf("Rotate 180 = (%v, %v), want (0, 100)", sx, sy)
	}
	sx, sy = Rotate(13, 17, 200, 200, 0)
	if sx != 13 || sy != 17 {
		t.Error("zero rotation should be identity")
	}
}
