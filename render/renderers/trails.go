package renderers

import (
	"github.com/lixenwraith/radarterm/render"
	"github.com/lixenwraith/radarterm/trail"
)

// TrailsRenderer draws each identity's recent path, oldest segment faintest
type TrailsRenderer struct{}

func NewTrailsRenderer() *TrailsRenderer {
	return &TrailsRenderer{}
}

// SegmentAlpha is the opacity of the segment ending at sample i of an n-sample trail
func SegmentAlpha(i, n int) float64 {
	return 0.1 + 0.4*float64(i+1)/float64(n)
}

func (t *TrailsRenderer) Render(ctx render.Context, buf *render.Buffer) {
	if ctx.Session == nil || !ctx.Settings.ShowTrails || !ctx.Session.Options().EnableTrails {
		return
	}
	ctx.Session.Trails().Each(func(tr *trail.Trail) {
		if !ctx.Settings.TeamFilter.Allows(tr.Team) {
			return
		}
		n := len(tr.Samples)
		if n < 2 {
			return
		}
		color := teamColor(tr.Team)

		px, py := ctx.Project(tr.Samples[0].X, tr.Samples[0].Y)
		for i := 1; i < n; i++ {
			sx, sy := ctx.Project(tr.Samples[i].X, tr.Samples[i].Y)
			alpha := SegmentAlpha(i, n)
			for _, c := range segmentCells(&ctx, px, py, sx, sy) {
				fg := render.Blend(buf.Background(c.x, c.y), color, alpha)
				buf.SetFg(c.x, c.y, '·', fg, 0)
			}
			px, py = sx, sy
		}
	})
}
