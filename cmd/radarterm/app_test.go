package main

import (
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/radarterm/clock"
	"github.com/lixenwraith/radarterm/msgpack"
	"github.com/lixenwraith/radarterm/network"
	"github.com/lixenwraith/radarterm/render"
	"github.com/lixenwraith/radarterm/session"
	"github.com/lixenwraith/radarterm/status"
	"github.com/lixenwraith/radarterm/terminal"
)

func newTestApp(t *testing.T) (*app, *terminal.Headless, *clock.Mock) {
	t.Helper()
	term := terminal.NewHeadless(100, 42)
	clk := clock.NewMock(time.Unix(1_700_000_000, 0))
	a := newApp(term, clk, status.NewRegistry(), nil, appConfig{
		settings: render.DefaultSettings(),
		options:  session.Options{EnableTrails: true},
		mapDir:   t.TempDir(),
		showGrid: true,
	})
	return a, term, clk
}

func positionFrame(mapName string, x, y float64) network.Frame {
	player := msgpack.Map(
		msgpack.P("id", msgpack.Int(76561198000000001)),
		msgpack.P("name", msgpack.String("tom")),
		msgpack.P("team", msgpack.String("T")),
		msgpack.P("x", msgpack.Float64(x)),
		msgpack.P("y", msgpack.Float64(y)),
		msgpack.P("is_alive", msgpack.Bool(true)),
	)
	bounds := msgpack.Map(
		msgpack.P("min_x", msgpack.Int(0)),
		msgpack.P("max_x", msgpack.Int(100)),
		msgpack.P("min_y", msgpack.Int(0)),
		msgpack.P("max_y", msgpack.Int(100)),
	)
	return network.Frame{Data: msgpack.MustEncode(msgpack.Map(
		msgpack.P("type", msgpack.String("position_update")),
		msgpack.P("map", msgpack.String(mapName)),
		msgpack.P("map_config", msgpack.Map(msgpack.P("world_bounds", bounds))),
		msgpack.P("data", msgpack.Map(
			msgpack.P("round", msgpack.Int(3)),
			msgpack.P("players", msgpack.Array(player)),
		)),
	))}
}

func TestApp_FrameToScreen(t *testing.T) {
	a, term, _ := newTestApp(t)

	a.handleFrame(positionFrame("de_dust2", 50, 50))
	a.tick()

	if term.Frames() != 1 {
		t.Fatalf("frames flushed = %d", term.Frames())
	}
	if top := term.Row(0); !strings.Contains(top, "Map texture missing for de_dust2") {
		t.Errorf("texture warning missing from banner: %q", top)
	}
	if bottom := term.Row(41); !strings.Contains(bottom, "R3") {
		t.Errorf("status line missing round: %q", bottom)
	}

	ctx := render.NewContext(a.session, a.settings, a.clk.Now(), 0, 100, 42)
	x, y, _ := ctx.WorldToCell(50, 50)
	if r := term.Cell(x, y).Rune; r == 0 || r == ' ' {
		t.Errorf("no player marker at %d,%d", x, y)
	}
	if row := term.Row(y + 1); !strings.Contains(row, "tom") {
		t.Errorf("enemy label missing: %q", row)
	}
}

func TestApp_MalformedFrameIgnored(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.handleFrame(network.Frame{Data: []byte{0xc1}})
	if a.session.Current() != nil {
		t.Error("malformed frame produced a snapshot")
	}
	if n := a.metrics.Counters.Get(status.DecodeFailures).Load(); n != 1 {
		t.Errorf("decode failures = %d", n)
	}
}

func TestApp_MapChangeClearsTextureWarning(t *testing.T) {
	a, _, clk := newTestApp(t)
	a.handleFrame(positionFrame("de_dust2", 50, 50))
	first := a.textureWarning

	a.handleFrame(positionFrame("de_inferno", 50, 50))
	if a.textureWarning == first {
		t.Fatal("warning not replaced on map change")
	}
	if b := a.session.Banner(clk.Now()); b.Text != "Map texture missing for de_inferno" {
		t.Errorf("banner = %q", b.Text)
	}
}

func key(r rune) terminal.Event {
	return terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: r}
}

func TestApp_HandleEvent(t *testing.T) {
	a, _, _ := newTestApp(t)

	if !a.handleEvent(key('f')) || a.settings.TeamFilter != render.FilterT {
		t.Errorf("filter after f = %v", a.settings.TeamFilter)
	}
	a.handleEvent(key('f'))
	a.handleEvent(key('f'))
	if a.settings.TeamFilter != render.FilterAll {
		t.Errorf("filter did not wrap: %v", a.settings.TeamFilter)
	}

	a.handleEvent(key('r'))
	a.handleEvent(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyLeft})
	if a.settings.ViewRotation != 75 {
		t.Errorf("rotation = %v, want 75", a.settings.ViewRotation)
	}
	a.handleEvent(key('0'))
	a.handleEvent(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyLeft})
	if a.settings.ViewRotation != 345 {
		t.Errorf("rotation = %v, want 345", a.settings.ViewRotation)
	}

	a.handleEvent(key('g'))
	if a.grid.IsVisible() {
		t.Error("grid still visible")
	}

	a.handleEvent(key('t'))
	if a.settings.ShowTrails || a.session.Options().EnableTrails {
		t.Error("trails not disabled")
	}

	a.handleEvent(terminal.Event{Type: terminal.EventResize, Width: 60, Height: 20})
	if a.width != 60 || a.height != 20 {
		t.Errorf("size = %dx%d", a.width, a.height)
	}

	if a.handleEvent(key('q')) {
		t.Error("q did not quit")
	}
	if a.handleEvent(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlC}) {
		t.Error("ctrl+c did not quit")
	}
}

func TestRun_ProcessesUntilQuit(t *testing.T) {
	a, term, _ := newTestApp(t)

	frames := make(chan network.Frame, 1)
	events := make(chan terminal.Event, 1)
	frames <- positionFrame("de_nuke", 10, 10)

	done := make(chan struct{})
	go func() {
		run(a, frames, events, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for a.metrics.Counters.Get(status.FramesIn).Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("frame not applied")
		case <-time.After(time.Millisecond):
		}
	}
	events <- key('q')

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
	if term.Frames() < 1 {
		t.Error("nothing rendered")
	}
	if a.session.MapName() != "de_nuke" {
		t.Errorf("map = %q", a.session.MapName())
	}
}
