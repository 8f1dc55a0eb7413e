package renderers

import (
	"math"

	"github.com/lixenwraith/radarterm/mapimage"
	"github.com/lixenwraith/radarterm/render"
)

var (
	rgbRadarFill = render.MustHex("#1a1a1a")
	rgbGridLine  = render.RGB{R: 0, G: 212, B: 255}
)

const (
	textureAlpha = 0.85
	gridAlpha    = 0.1
	gridDivs     = 10
)

// BackgroundRenderer fills the radar square and draws the map texture
type BackgroundRenderer struct {
	textures *mapimage.Cache
}

// NewBackgroundRenderer creates a background renderer; textures may be nil
func NewBackgroundRenderer(textures *mapimage.Cache) *BackgroundRenderer {
	return &BackgroundRenderer{textures: textures}
}

func (b *BackgroundRenderer) Render(ctx render.Context, buf *render.Buffer) {
	r := ctx.Radar
	buf.Fill(r, rgbRadarFill)

	if b.textures == nil || ctx.Session == nil {
		return
	}
	tex := b.textures.Texture(ctx.Session.MapName(), r.W, r.H)
	if tex == nil {
		return
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			sx, sy := ctx.SurfaceAt(x, y)
			c, a := tex.At(int(math.Floor(sx)), int(math.Floor(sy/2)))
			if a == 0 {
				continue
			}
			buf.SetBg(x, y, render.Blend(rgbRadarFill, c, textureAlpha*a))
		}
	}
}

// GridRenderer draws a 10 x 10 reference grid over the radar
type GridRenderer struct {
	visible bool
}

func NewGridRenderer() *GridRenderer {
	return &GridRenderer{visible: true}
}

func (g *GridRenderer) IsVisible() bool    { return g.visible }
func (g *GridRenderer) SetVisible(on bool) { g.visible = on }

func (g *GridRenderer) Render(ctx render.Context, buf *render.Buffer) {
	r := ctx.Radar
	w, h := ctx.Surface()
	stepX, stepY := w/gridDivs, h/gridDivs

	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			sx, sy := ctx.SurfaceAt(x, y)
			// A cell is one unit wide and two tall; lines within half a cell light it
			if nearLine(sx, stepX, w, 0.5) || nearLine(sy, stepY, h, 1.0) {
				buf.Set(x, y, 0, render.RGB{}, rgbGridLine, render.BlendAlphaBg, gridAlpha, 0)
			}
		}
	}
}

// nearLine reports whether v lies within tol of a multiple of step inside [0, extent]
func nearLine(v, step, extent, tol float64) bool {
	if step <= 0 || v < -tol || v > extent+tol {
		return false
	}
	k := math.Round(v / step)
	if k < 0 || k > gridDivs {
		return false
	}
	return math.Abs(v-k*step) < tol
}
