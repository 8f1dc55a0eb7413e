package renderers

import (
	"github.com/lixenwraith/radarterm/render"
)

// Area effect colors by event kind
var effectColors = map[string]render.RGB{
	"hegrenade_detonate":    render.MustHex("#ff3860"),
	"flashbang_detonate":    render.MustHex("#f5f0b4"),
	"smokegrenade_detonate": render.MustHex("#9aa0a6"),
	"smokegrenade_expired":  render.MustHex("#61676d"),
	"molotov_detonate":      render.MustHex("#ff9f43"),
	"decoy_detonate":        render.MustHex("#a29bfe"),
}

// EffectColor returns the marker color for an area effect kind
func EffectColor(kind string) render.RGB {
	if c, ok := effectColors[kind]; ok {
		return c
	}
	return render.RgbUnknownFx
}

// EffectsRenderer draws a dot for every live area effect
type EffectsRenderer struct{}

func NewEffectsRenderer() *EffectsRenderer {
	return &EffectsRenderer{}
}

func (e *EffectsRenderer) Render(ctx render.Context, buf *render.Buffer) {
	if ctx.Session == nil {
		return
	}
	for _, fx := range ctx.Session.Effects().Effects(ctx.Now) {
		x, y, ok := ctx.WorldToCell(fx.X, fx.Y)
		if !ok {
			continue
		}
		c := EffectColor(fx.Kind)
		buf.Set(x, y, 0, render.RGB{}, c, render.BlendAlphaBg, 0.35, 0)
		buf.SetFg(x, y, '●', c, 0)
	}
}
