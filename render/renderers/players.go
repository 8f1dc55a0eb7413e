package renderers

import (
	"math"

	"github.com/lixenwraith/radarterm/effect"
	"github.com/lixenwraith/radarterm/interp"
	"github.com/lixenwraith/radarterm/projection"
	"github.com/lixenwraith/radarterm/protocol"
	"github.com/lixenwraith/radarterm/render"
)

// Marker sizes in reference-canvas pixels
const (
	baseRadius    = 6.0
	minZRadius    = 4.0
	zRadiusRange  = 4.0
	coneScale     = 1.8
	coneHalfAngle = 22.0 // degrees
	highZ         = 0.66
	lowZ          = 0.33
)

type point struct{ x, y float64 }

// PlayersRenderer draws player markers with status overlays
// It owns the death-freeze cache: a dead marker stays where the player was last seen alive
type PlayersRenderer struct {
	lastAlive map[string]point
	frozen    map[string]point
	present   map[string]struct{}
}

func NewPlayersRenderer() *PlayersRenderer {
	return &PlayersRenderer{
		lastAlive: make(map[string]point),
		frozen:    make(map[string]point),
		present:   make(map[string]struct{}),
	}
}

// Position resolves where a player's marker goes this frame and updates the freeze cache
// The frozen position is written once, on the first frame the player is seen dead, from the
// last alive position the server reported: prev when it holds the player alive, else the cache
func (p *PlayersRenderer) Position(d interp.Display, prev *protocol.Snapshot) (float64, float64) {
	key := d.Player.Key()
	if d.Player.Alive {
		delete(p.frozen, key)
		p.lastAlive[key] = point{d.Player.X, d.Player.Y}
		return d.X, d.Y
	}
	if f, ok := p.frozen[key]; ok {
		return f.x, f.y
	}
	f, ok := aliveIn(prev, key)
	if !ok {
		f, ok = p.lastAlive[key]
	}
	if !ok {
		f = point{d.Player.X, d.Player.Y}
	}
	p.frozen[key] = f
	return f.x, f.y
}

func aliveIn(snap *protocol.Snapshot, key string) (point, bool) {
	if snap == nil {
		return point{}, false
	}
	for _, pl := range snap.Players {
		if pl.Alive && pl.Key() == key {
			return point{pl.X, pl.Y}, true
		}
	}
	return point{}, false
}

// Reset drops cached positions, used on map change
func (p *PlayersRenderer) Reset() {
	clear(p.lastAlive)
	clear(p.frozen)
}

// prune forgets identities missing from the current frame
func (p *PlayersRenderer) prune(positions []interp.Display) {
	clear(p.present)
	for _, d := range positions {
		p.present[d.Player.Key()] = struct{}{}
	}
	for key := range p.lastAlive {
		if _, ok := p.present[key]; !ok {
			delete(p.lastAlive, key)
		}
	}
	for key := range p.frozen {
		if _, ok := p.present[key]; !ok {
			delete(p.frozen, key)
		}
	}
}

func (p *PlayersRenderer) Render(ctx render.Context, buf *render.Buffer) {
	if ctx.Session == nil {
		return
	}
	positions := ctx.Session.Positions(ctx.Now)
	prev := ctx.Session.Previous()
	p.prune(positions)

	cfg := ctx.Session.MapConfig()
	fx := ctx.Session.Effects()
	dot := ctx.Settings.DotSize
	if dot <= 0 || math.IsNaN(dot) {
		dot = 1
	}

	for _, d := range positions {
		// The cache tracks every player so filters never break the alive-to-dead transition
		wx, wy := p.Position(d, prev)
		if !ctx.Settings.TeamFilter.Allows(d.Player.Team) {
			continue
		}
		sx, sy := ctx.Project(wx, wy)
		x, y, ok := ctx.ToCell(sx, sy)
		if !ok {
			continue
		}

		radius := baseRadius * dot
		zt, hasZ := projection.NormalizeZ(d.Z, cfg)
		if hasZ {
			radius = (minZRadius + zt*zRadiusRange) * dot
		}
		color := teamColor(d.Player.Team)
		hx, hy := heading(d.Player.Yaw, ctx.Settings.ViewRotation)

		if !d.Player.Alive {
			buf.Set(x, y, 0, render.RGB{}, color, render.BlendAlphaBg, 0.8*0.35, 0)
			buf.SetFg(x, y, '✕', render.RgbDead, 0)
			p.label(ctx, buf, d.Player, x, y)
			continue
		}

		if ctx.Settings.ShowViewCones {
			drawCone(&ctx, buf, sx, sy, hx, hy, ctx.Unit(radius*coneScale))
		}

		if hasZ {
			switch {
			case zt > highZ:
				tintRing(&ctx, buf, sx, sy, ringRadius(&ctx, radius+3), 0, render.RgbHighRing, 0.6)
			case zt < lowZ:
				tintRing(&ctx, buf, sx, sy, ringRadius(&ctx, radius+2), 2, render.RgbLowRing, 0.3)
			}
		}

		if fx.Flag(d.Player.Name, effect.FlagFlash, ctx.Now) {
			tintRing(&ctx, buf, sx, sy, ringRadius(&ctx, radius+3), 0, render.RgbFlash, 0.8)
		}
		if fx.Flag(d.Player.Name, effect.FlagShoot, ctx.Now) {
			tintRing(&ctx, buf, sx, sy, ringRadius(&ctx, radius+5)+1, 0, render.RgbShoot, 0.9)
		}
		if fx.Flag(d.Player.Name, effect.FlagHurt, ctx.Now) {
			buf.Set(x, y, 0, render.RGB{}, render.RgbHurt, render.BlendAlphaBg, 0.9, 0)
		}

		buf.SetFg(x, y, arrowGlyph(hx, hy), color, 0)
		p.label(ctx, buf, d.Player, x, y)
	}
}

// ringRadius keeps rings at least one cell away from the marker
func ringRadius(ctx *render.Context, px float64) float64 {
	return max(ctx.Unit(px), 1.5)
}

// drawCone tints the wedge the player faces
func drawCone(ctx *render.Context, buf *render.Buffer, sx, sy, hx, hy, r float64) {
	r = max(r, 3)
	cx, cy, _ := ctx.ToCell(sx, sy)
	base := math.Atan2(hy, hx)
	half := coneHalfAngle * math.Pi / 180
	seen := make(map[cell]struct{})
	for step := 0.5; step <= r; step += 0.5 {
		for a := -half; a <= half; a += half / 4 {
			x, y, ok := ctx.ToCell(sx+step*math.Cos(base+a), sy+step*math.Sin(base+a))
			if !ok || (x == cx && y == cy) {
				continue
			}
			c := cell{x, y}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			buf.Set(x, y, 0, render.RGB{}, render.RgbViewCone, render.BlendAlphaBg, 0.25, 0)
		}
	}
}

// label draws the player name under the marker when team gating allows it
func (p *PlayersRenderer) label(ctx render.Context, buf *render.Buffer, pl protocol.Player, x, y int) {
	show := (pl.Team == protocol.TeamCT && ctx.Settings.ShowAllyNames) ||
		(pl.Team == protocol.TeamT && ctx.Settings.ShowEnemyNames)
	if !show || pl.Name == "" {
		return
	}
	centerText(&ctx, buf, x, y+1, pl.Name, render.RgbText)
}
