package renderers

import (
	"math"

	"github.com/lixenwraith/radarterm/protocol"
	"github.com/lixenwraith/radarterm/render"
	"github.com/lixenwraith/radarterm/terminal"
)

const bombRadius = 7.0

// BombRenderer marks the objective, planted or carried
type BombRenderer struct{}

func NewBombRenderer() *BombRenderer {
	return &BombRenderer{}
}

// BombPosition resolves the bomb's world position from the snapshot
// An explicit position wins; otherwise the planter's recorded position is used
func BombPosition(snap *protocol.Snapshot) (float64, float64, bool) {
	if snap == nil {
		return 0, 0, false
	}
	b := snap.Bomb
	if !b.Planted && b.Position == nil && b.Planter == "" {
		return 0, 0, false
	}
	if b.Position != nil {
		return b.Position.X, b.Position.Y, true
	}
	if b.Planter == "" {
		return 0, 0, false
	}
	for _, p := range snap.Players {
		if p.Name == b.Planter {
			return p.X, p.Y, true
		}
	}
	return 0, 0, false
}

func (r *BombRenderer) Render(ctx render.Context, buf *render.Buffer) {
	if ctx.Session == nil || !ctx.Settings.ShowBomb {
		return
	}
	snap := ctx.Session.Current()
	wx, wy, ok := BombPosition(snap)
	if !ok {
		return
	}
	sx, sy := ctx.Project(wx, wy)
	x, y, ok := ctx.ToCell(sx, sy)
	if !ok {
		return
	}

	size := ctx.Settings.BombSize
	if size <= 0 || math.IsNaN(size) {
		size = 0.5
	}
	if rad := ctx.Unit(bombRadius * size); rad >= 1 {
		tintRing(&ctx, buf, sx, sy, rad, 0, render.RgbBomb, 0.6)
	}
	buf.SetBg(x, y, render.RgbBomb)
	buf.SetFg(x, y, 'C', render.RgbFlash, terminal.AttrBold)
	if bx := x + 1; ctx.Radar.Contains(bx, y) {
		buf.SetBg(bx, y, render.RgbBomb)
		buf.SetFg(bx, y, '4', render.RgbFlash, terminal.AttrBold)
	}
}
