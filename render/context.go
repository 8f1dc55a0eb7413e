package render

import (
	"math"
	"time"

	"github.com/lixenwraith/radarterm/projection"
	"github.com/lixenwraith/radarterm/session"
)

// Rect is a cell-space rectangle
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) lies inside r
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Layout places the radar square between the banner row and the status row
// Terminal cells are about twice as tall as wide, so the square is 2W:1H in cells
func Layout(width, height int) Rect {
	avail := height - 2
	if width <= 0 || avail <= 0 {
		return Rect{}
	}
	h := min(avail, width/2)
	w := h * 2
	return Rect{X: (width - w) / 2, Y: 1 + (avail-h)/2, W: w, H: h}
}

// Context provides frame state for renderers, passed by value
type Context struct {
	Now   time.Time
	Frame int64

	// Screen dimensions (terminal size)
	Width  int
	Height int

	// Radar square in cell coordinates
	Radar Rect

	Session  *session.Session
	Settings Settings
}

// NewContext builds the frame context for a terminal of the given size
func NewContext(s *session.Session, settings Settings, now time.Time, frame int64, width, height int) Context {
	return Context{
		Now:      now,
		Frame:    frame,
		Width:    width,
		Height:   height,
		Radar:    Layout(width, height),
		Session:  s,
		Settings: settings,
	}
}

// Surface returns the projection surface size
// One cell is one unit wide and two units tall, so surface units are square
func (c *Context) Surface() (float64, float64) {
	return float64(c.Radar.W), float64(c.Radar.H * 2)
}

// Project maps a world position to surface units, view rotation applied
func (c *Context) Project(x, y float64) (float64, float64) {
	w, h := c.Surface()
	sx, sy := projection.Project(x, y, c.Session.MapConfig(), w, h)
	return projection.Rotate(sx, sy, w, h, c.Settings.ViewRotation)
}

// ToCell converts a surface point to a screen cell inside the radar area
func (c *Context) ToCell(sx, sy float64) (int, int, bool) {
	if math.IsNaN(sx) || math.IsNaN(sy) {
		return 0, 0, false
	}
	fx, fy := math.Floor(sx), math.Floor(sy/2)
	if fx < 0 || fy < 0 || fx >= float64(c.Radar.W) || fy >= float64(c.Radar.H) {
		return 0, 0, false
	}
	return c.Radar.X + int(fx), c.Radar.Y + int(fy), true
}

// WorldToCell projects and converts in one step
func (c *Context) WorldToCell(x, y float64) (int, int, bool) {
	return c.ToCell(c.Project(x, y))
}

// Unit converts a canvas-pixel size on a 640 px reference radar into surface units
func (c *Context) Unit(px float64) float64 {
	w, _ := c.Surface()
	return px * w / 640
}

// SurfaceAt returns the unrotated surface point under the center of screen cell (cx, cy)
// Layers painted per cell, such as textures and grids, sample through this
func (c *Context) SurfaceAt(cx, cy int) (float64, float64) {
	w, h := c.Surface()
	sx := float64(cx-c.Radar.X) + 0.5
	sy := (float64(cy-c.Radar.Y) + 0.5) * 2
	return projection.Rotate(sx, sy, w, h, -c.Settings.ViewRotation)
}
