package renderers

import (
	"fmt"
	"strings"
	"time"

	"github.com/lixenwraith/radarterm/protocol"
	"github.com/lixenwraith/radarterm/render"
	"github.com/lixenwraith/radarterm/session"
	"github.com/lixenwraith/radarterm/status"
	"github.com/lixenwraith/radarterm/terminal"
)

// BoundsBadge is shown while projection is degraded
const BoundsBadge = " BOUNDS MISSING "

// StatusBarRenderer draws the banner row at the top and the match/perf row at the bottom
type StatusBarRenderer struct {
	// FPS tracking
	frameCount    int
	lastFpsUpdate time.Time
	currentFps    int
}

func NewStatusBarRenderer() *StatusBarRenderer {
	return &StatusBarRenderer{}
}

func (s *StatusBarRenderer) Render(ctx render.Context, buf *render.Buffer) {
	s.frameCount++
	if s.lastFpsUpdate.IsZero() {
		s.lastFpsUpdate = ctx.Now
	}
	if ctx.Now.Sub(s.lastFpsUpdate) >= time.Second {
		s.currentFps = s.frameCount
		s.frameCount = 0
		s.lastFpsUpdate = ctx.Now
	}
	if ctx.Session == nil || ctx.Height < 1 {
		return
	}
	ctx.Session.Metrics().Gauges.Get(status.RenderFPS).Store(float64(s.currentFps))

	s.drawBanner(ctx, buf)
	if ctx.Height > 1 {
		s.drawInfo(ctx, buf, ctx.Height-1)
	}
}

func (s *StatusBarRenderer) drawBanner(ctx render.Context, buf *render.Buffer) {
	sess := ctx.Session
	buf.Fill(render.Rect{W: ctx.Width, H: 1}, render.RgbStatusBg)

	right := ctx.Width
	if sess.Degraded() {
		start := max(0, right-len(BoundsBadge))
		buf.Text(start, 0, right, BoundsBadge, render.RGB{}, render.RgbLevelWarning, terminal.AttrBold)
		right = start - 1
	}
	if sess.Metrics().Flags.Get(status.Connected).Load() {
		right = rightText(buf, 0, right, "● live ", render.RgbLevelInfo)
	} else {
		right = rightText(buf, 0, right, "○ offline ", render.RgbTextDim)
	}

	b := sess.Banner(ctx.Now)
	if b.Source != session.BannerNone {
		buf.Text(1, 0, right, b.Text, render.LevelColor(b.Level), render.RgbStatusBg, terminal.AttrBold)
		return
	}

	srv := sess.Server()
	title := sess.MapName()
	if title == "" {
		title = "waiting for data"
	}
	if srv.Mode != "" {
		title += " · " + srv.Mode
	}
	if srv.SelectedDemo != "" {
		title += " · " + srv.SelectedDemo
	}
	buf.Text(1, 0, right, title, render.RgbTextDim, render.RgbStatusBg, 0)
}

func (s *StatusBarRenderer) drawInfo(ctx render.Context, buf *render.Buffer, y int) {
	sess := ctx.Session
	buf.Fill(render.Rect{Y: y, W: ctx.Width, H: 1}, render.RgbStatusBg)

	x := 1
	if snap := sess.Current(); snap != nil {
		x = buf.Text(x, y, ctx.Width, fmt.Sprintf("CT %d", snap.CTScore), render.RgbTeamCT, render.RgbStatusBg, terminal.AttrBold)
		x = buf.Text(x, y, ctx.Width, " : ", render.RgbText, render.RgbStatusBg, 0)
		x = buf.Text(x, y, ctx.Width, fmt.Sprintf("%d T", snap.TScore), render.RgbTeamT, render.RgbStatusBg, terminal.AttrBold)
		x = buf.Text(x, y, ctx.Width, "  "+MatchLine(snap), render.RgbText, render.RgbStatusBg, 0)
	}

	perf := PerfLine(sess.Perf(), sess.Metrics(), s.currentFps, sess.DemoSpeed())
	rightText(buf, y, ctx.Width, perf+" ", render.RgbTextDim)
}

// MatchLine formats round, clock and alive counts
func MatchLine(snap *protocol.Snapshot) string {
	secs := max(0, int(snap.Time))
	return fmt.Sprintf("R%d  %d:%02d  alive %dv%d", snap.Round, secs/60, secs%60, snap.AliveCT, snap.AliveT)
}

// PerfLine formats server and client performance figures
func PerfLine(p protocol.Perf, m *status.Registry, fps int, demoPct float64) string {
	parts := []string{
		fmt.Sprintf("parse %.1fms", p.ParseMs),
		fmt.Sprintf("decode %.2fms", m.Gauges.Get(status.DecodeMs).Load()),
		formatBytes(p.MsgBytes),
		fmt.Sprintf("%dfps", fps),
	}
	if r := m.Gauges.Get(status.UpdateRate).Load(); r > 0 {
		parts = append(parts, fmt.Sprintf("%.1f upd/s", r))
	}
	if p.HasServerTS && demoPct > 0 {
		parts = append(parts, fmt.Sprintf("demo %.0f%%", demoPct))
	}
	if p.LiveLagSec > 0 {
		parts = append(parts, fmt.Sprintf("lag %.1fs", p.LiveLagSec))
	}
	if n := m.Counters.Get(status.DecodeFailures).Load(); n > 0 {
		parts = append(parts, fmt.Sprintf("err %d", n))
	}
	return strings.Join(parts, " | ")
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%dB", n)
}

// rightText right-aligns s so it ends before column end, returning its start column
func rightText(buf *render.Buffer, y, end int, s string, fg render.RGB) int {
	start := max(0, end-len([]rune(s)))
	buf.Text(start, y, end, s, fg, render.RgbStatusBg, 0)
	return start
}
