package session

import (
	"testing"
	"time"

	"github.com/lixenwraith/radarterm/clock"
	"github.com/lixenwraith/radarterm/effect"
	"github.com/lixenwraith/radarterm/msgpack"
	"github.com/lixenwraith/radarterm/status"
)

var start = time.Unix(1_700_000_000, 0)

func newTestSession() (*Session, *clock.Mock) {
	clk := clock.NewMock(start)
	return New(clk, status.NewRegistry(), Options{EnableTrails: true, EnableSmoothing: true}), clk
}

type playerFixture struct {
	id, name, team string
	x, y           float64
	alive          bool
}

func positionFrame(mapName string, cfg msgpack.Value, players []playerFixture, extra ...msgpack.Pair) []byte {
	items := make([]msgpack.Value, 0, len(players))
	for _, p := range players {
		items = append(items, msgpack.Map(
			msgpack.P("id", msgpack.String(p.id)),
			msgpack.P("name", msgpack.String(p.name)),
			msgpack.P("team", msgpack.String(p.team)),
			msgpack.P("x", msgpack.Float64(p.x)),
			msgpack.P("y", msgpack.Float64(p.y)),
			msgpack.P("is_alive", msgpack.Bool(p.alive)),
		))
	}
	data := []msgpack.Pair{msgpack.P("players", msgpack.Array(items...))}
	top := []msgpack.Pair{
		msgpack.P("type", msgpack.String("position_update")),
		msgpack.P("map", msgpack.String(mapName)),
		msgpack.P("data", msgpack.Map(data...)),
	}
	if !cfg.IsNil() {
		top = append(top, msgpack.P("map_config", cfg))
	}
	top = append(top, extra...)
	return msgpack.MustEncode(msgpack.Map(top...))
}

func boundsConfig(extent float64) msgpack.Value {
	return msgpack.Map(msgpack.P("world_bounds", msgpack.Map(
		msgpack.P("min_x", msgpack.Int(0)),
		msgpack.P("max_x", msgpack.Float64(extent)),
		msgpack.P("min_y", msgpack.Int(0)),
		msgpack.P("max_y", msgpack.Float64(extent)),
	)))
}

func TestHandleFrame_DecodeFailureLeavesState(t *testing.T) {
	s, _ := newTestSession()
	frame := positionFrame("de_dust2", boundsConfig(100), []playerFixture{{"1", "a", "CT", 10, 10, true}})
	if err := s.HandleFrame(frame, false); err != nil {
		t.Fatalf("HandleFrame failed: %v", err)
	}
	cur := s.Current()
	updates := s.Updates()

	// Truncated binary that is not JSON either
	if err := s.HandleFrame(frame[:len(frame)-3], false); err == nil {
		t.Fatal("truncated frame should fail")
	}
	if err := s.HandleFrame([]byte("{not json"), true); err == nil {
		t.Fatal("bad text frame should fail")
	}

	if s.Current() != cur || s.Updates() != updates {
		t.Error("failed frame mutated state")
	}
	if s.Previous() != nil {
		t.Error("previous snapshot should still be empty")
	}
	if got := s.Metrics().Counters.Get(status.DecodeFailures).Load(); got != 2 {
		t.Errorf("decode failures = %d, want 2", got)
	}
}

func TestHandleFrame_JSONFallback(t *testing.T) {
	s, _ := newTestSession()
	js := []byte(`{"type":"position_update","map":"de_nuke","map_config":{"world_bounds":{"min_x":0,"max_x":10,"min_y":0,"max_y":10}},` +
		`"data":{"players":[{"id":76561198000000001,"name":"a","team":"T","x":1,"y":2,"is_alive":true}]}}`)

	if err := s.HandleFrame(js, false); err != nil {
		t.Fatalf("JSON in binary frame: %v", err)
	}
	if s.MapName() != "de_nuke" || s.Current() == nil || len(s.Current().Players) != 1 {
		t.Fatal("JSON fallback not applied")
	}
	if key := s.Current().Players[0].Key(); key != "76561198000000001_a" {
		t.Errorf("key = %q", key)
	}
	if got := s.Metrics().Counters.Get(status.JSONFallbacks).Load(); got != 1 {
		t.Errorf("json fallbacks = %d, want 1", got)
	}

	if err := s.HandleFrame([]byte(`{"type":"status","message":"hello"}`), true); err != nil {
		t.Fatalf("text frame: %v", err)
	}
	if b := s.Banner(start); b.Text != "hello" {
		t.Errorf("banner = %+v", b)
	}
}

func TestHandleFrame_UnknownTypeIgnored(t *testing.T) {
	s, _ := newTestSession()
	frame := msgpack.MustEncode(msgpack.Map(msgpack.P("type", msgpack.String("telemetry"))))
	if err := s.HandleFrame(frame, false); err != nil {
		t.Errorf("unknown type should be ignored, got %v", err)
	}
	if got := s.Metrics().Counters.Get(status.UnknownTypes).Load(); got != 1 {
		t.Errorf("unknown counter = %d", got)
	}
}

func TestSnapshotRotation(t *testing.T) {
	s, clk := newTestSession()
	players := func(x float64) []playerFixture { return []playerFixture{{"1", "e", "CT", x, 0, true}} }

	s.HandleFrame(positionFrame("m", boundsConfig(100), players(0)), false)
	first := s.Current()
	clk.Advance(time.Second)
	s.HandleFrame(positionFrame("m", boundsConfig(100), players(10)), false)

	if s.Previous() != first {
		t.Error("previous should be the earlier current")
	}
	if s.Current().Players[0].X != 10 {
		t.Error("current not replaced")
	}

	// Smoother saw a 1s inter-arrival
	if s.Smoother().Interval() != time.Second {
		t.Fatalf("interval = %v", s.Smoother().Interval())
	}
	pos := s.Positions(clk.Now().Add(500 * time.Millisecond))
	if len(pos) != 1 || pos[0].X != 5 {
		t.Errorf("positions = %+v", pos)
	}

	s.SetSmoothing(false)
	if pos := s.Positions(clk.Now().Add(500 * time.Millisecond)); pos[0].X != 10 {
		t.Errorf("smoothing off: x = %v", pos[0].X)
	}
}

func TestMapConfigReconciliation(t *testing.T) {
	s, _ := newTestSession()
	var changes []string
	s.OnMapChange(func(name string) { changes = append(changes, name) })

	s.HandleFrame(positionFrame("de_inferno", boundsConfig(100), nil), false)
	if s.MapConfig() == nil || s.MapConfig().Bounds.MaxX != 100 {
		t.Fatal("initial config not adopted")
	}

	// Same map: config is kept
	s.HandleFrame(positionFrame("de_inferno", boundsConfig(999), nil), false)
	if s.MapConfig().Bounds.MaxX != 100 {
		t.Error("config replaced without a map change")
	}

	s.HandleFrame(positionFrame("de_anubis", boundsConfig(50), nil), false)
	if s.MapConfig().Bounds.MaxX != 50 || s.MapConfig().Name != "de_anubis" {
		t.Errorf("config after map change = %+v", s.MapConfig())
	}

	// Map change without a config clears the old one
	s.HandleFrame(positionFrame("de_vertigo", msgpack.Nil(), nil), false)
	if s.MapConfig() != nil {
		t.Error("stale config survived map change")
	}
	if !s.Degraded() {
		t.Error("no config should be degraded")
	}

	if len(changes) != 3 || changes[2] != "de_vertigo" {
		t.Errorf("map change callbacks = %v", changes)
	}
}

func TestMapChange_ResetsDerivedState(t *testing.T) {
	s, _ := newTestSession()
	smoke := msgpack.Map(
		msgpack.P("type", msgpack.String("smokegrenade_detonate")),
		msgpack.P("x", msgpack.Int(1)),
		msgpack.P("y", msgpack.Int(1)),
	)
	frame := msgpack.MustEncode(msgpack.Map(
		msgpack.P("type", msgpack.String("position_update")),
		msgpack.P("map", msgpack.String("a")),
		msgpack.P("data", msgpack.Map(
			msgpack.P("players", msgpack.Array(msgpack.Map(msgpack.P("id", msgpack.Int(1)), msgpack.P("name", msgpack.String("p"))))),
			msgpack.P("events", msgpack.Array(smoke)),
		)),
	))
	s.HandleFrame(frame, false)
	if len(s.Effects().Effects(start)) != 1 || s.Trails().Len() != 1 {
		t.Fatal("setup: expected one effect and one trail")
	}

	s.HandleFrame(positionFrame("b", boundsConfig(10), nil), false)
	if len(s.Effects().Effects(start)) != 0 {
		t.Error("effects from the old map survived")
	}
	if s.Previous() != nil {
		t.Error("snapshot from the old map kept as previous")
	}
}

func TestBoundsWarning(t *testing.T) {
	s, _ := newTestSession()
	noBounds := msgpack.Map(msgpack.P("width", msgpack.Int(2048)))

	s.HandleFrame(positionFrame("x", noBounds, nil), false)
	b := s.Banner(start.Add(time.Hour))
	if b.Text != BoundsWarning || b.Source != BannerLocal || b.Level != "warning" {
		t.Errorf("banner = %+v", b)
	}
	if !s.Degraded() {
		t.Error("missing bounds should be degraded")
	}

	// A frame carrying bounds clears the warning; a new map config is adopted because the held one lacks bounds
	s.HandleFrame(positionFrame("x", boundsConfig(10), nil), false)
	if b := s.Banner(start); b.Source == BannerLocal {
		t.Error("bounds warning should clear")
	}
	if s.Degraded() {
		t.Error("bounds arrived, should not be degraded")
	}
}

func TestServerBoundsSafe(t *testing.T) {
	s, _ := newTestSession()
	s.HandleFrame(positionFrame("x", boundsConfig(10), nil), false)
	if s.Degraded() {
		t.Fatal("setup: should not be degraded")
	}

	s.HandleFrame(msgpack.MustEncode(msgpack.Map(
		msgpack.P("type", msgpack.String("state")),
		msgpack.P("bounds_safe", msgpack.Bool(false)),
		msgpack.P("mode", msgpack.String("live")),
	)), false)
	if !s.Degraded() {
		t.Error("server bounds_safe=false should mark degraded")
	}
	if s.Server().Mode != "live" {
		t.Errorf("mode = %q", s.Server().Mode)
	}
}

func TestStatusExpiry(t *testing.T) {
	s, clk := newTestSession()
	statusFrame := func(msg string, exp int64) []byte {
		return msgpack.MustEncode(msgpack.Map(
			msgpack.P("type", msgpack.String("status")),
			msgpack.P("message", msgpack.String(msg)),
			msgpack.P("level", msgpack.String("error")),
			msgpack.P("expires_in", msgpack.Int(exp)),
		))
	}

	s.HandleFrame(statusFrame("Demo parse failed", 1500), false)
	if b := s.Banner(clk.Now().Add(1499 * time.Millisecond)); b.Text != "Demo parse failed" || b.Level != "error" {
		t.Errorf("banner at 1499ms = %+v", b)
	}
	if b := s.Banner(clk.Now().Add(1500 * time.Millisecond)); b.Source != BannerNone {
		t.Errorf("banner at 1500ms = %+v, want none", b)
	}

	s.HandleFrame(statusFrame("No demos found", 0), false)
	if b := s.Banner(clk.Now().Add(24 * time.Hour)); b.Text != "No demos found" {
		t.Error("expires_in=0 should be sticky")
	}
}

func TestBannerPriority(t *testing.T) {
	s, clk := newTestSession()
	var cues []effect.Advisory
	s.OnAdvisory(func(a effect.Advisory) { cues = append(cues, a) })

	// One CT alive against two T
	players := []playerFixture{
		{"1", "ct1", "CT", 0, 0, true},
		{"2", "ct2", "CT", 0, 0, false},
		{"3", "t1", "T", 0, 0, true},
		{"4", "t2", "T", 0, 0, true},
	}
	s.HandleFrame(positionFrame("m", boundsConfig(10), players), false)
	if b := s.Banner(clk.Now()); b.Text != "CT Sole Survivor" || b.Source != BannerSurvivor {
		t.Errorf("banner = %+v", b)
	}

	bomb := msgpack.MustEncode(msgpack.Map(
		msgpack.P("type", msgpack.String("position_update")),
		msgpack.P("map", msgpack.String("m")),
		msgpack.P("data", msgpack.Map(msgpack.P("events", msgpack.Array(msgpack.Map(
			msgpack.P("type", msgpack.String("bomb_planted")),
			msgpack.P("tick", msgpack.Int(42)),
		))))),
	))
	s.HandleFrame(bomb, false)
	s.HandleFrame(bomb, false)
	if b := s.Banner(clk.Now()); b.Text != "Bomb planted" || b.Source != BannerAdvisory {
		t.Errorf("banner = %+v", b)
	}
	if len(cues) != 1 {
		t.Errorf("advisory callback fired %d times, want 1", len(cues))
	}

	s.HandleFrame(positionFrame("m", msgpack.Map(), nil), false)
	if b := s.Banner(clk.Now()); b.Source != BannerLocal {
		t.Errorf("local warning should outrank advisory, got %+v", b)
	}

	s.HandleFrame(msgpack.MustEncode(msgpack.Map(
		msgpack.P("type", msgpack.String("status")),
		msgpack.P("message", msgpack.String("server says")),
	)), false)
	if b := s.Banner(clk.Now()); b.Source != BannerServer {
		t.Errorf("server status should win, got %+v", b)
	}
}

func TestDemoSpeed(t *testing.T) {
	s, _ := newTestSession()
	frame := func(demo, server float64) []byte {
		return positionFrame("m", boundsConfig(10), nil,
			msgpack.P("_demo_time", msgpack.Float64(demo)),
			msgpack.P("_server_ts", msgpack.Float64(server)),
		)
	}

	s.HandleFrame(frame(10, 1000), false)
	if s.DemoSpeed() != 0 {
		t.Errorf("first sample speed = %v", s.DemoSpeed())
	}
	s.HandleFrame(frame(12, 1001), false)
	if s.DemoSpeed() != 200 {
		t.Errorf("speed = %v, want 200", s.DemoSpeed())
	}
	s.HandleFrame(frame(30, 1002), false)
	if s.DemoSpeed() != 400 {
		t.Errorf("speed = %v, want clamp 400", s.DemoSpeed())
	}
	s.HandleFrame(frame(0, 1003), false)
	if s.DemoSpeed() != 0 {
		t.Errorf("speed = %v, want clamp 0", s.DemoSpeed())
	}
}

func TestTrailsToggle(t *testing.T) {
	s, _ := newTestSession()
	players := []playerFixture{{"1", "a", "T", 0, 0, true}}
	s.HandleFrame(positionFrame("m", boundsConfig(10), players), false)
	if s.Trails().Len() != 1 {
		t.Fatal("trail not recorded")
	}

	s.SetTrails(false)
	s.HandleFrame(positionFrame("m", boundsConfig(10), players), false)
	if s.Trails().Len() != 0 {
		t.Error("disabled trails should be cleared and not updated")
	}
}

func TestConnection(t *testing.T) {
	s, _ := newTestSession()
	s.HandleFrame(msgpack.MustEncode(msgpack.Map(
		msgpack.P("type", msgpack.String("connection")),
		msgpack.P("client_id", msgpack.String("c-1")),
		msgpack.P("mode", msgpack.String("manual")),
		msgpack.P("selected_demo", msgpack.String("final.dem")),
		msgpack.P("map_override", msgpack.String("")),
		msgpack.P("demo_loading", msgpack.Bool(true)),
		msgpack.P("demos", msgpack.Array(msgpack.Map(msgpack.P("name", msgpack.String("final.dem"))))),
	)), false)

	srv := s.Server()
	if srv.ClientID != "c-1" || srv.Mode != "manual" || srv.SelectedDemo != "final.dem" {
		t.Errorf("server = %+v", srv)
	}
	if srv.MapOverride != "auto" {
		t.Errorf("empty override should read auto, got %q", srv.MapOverride)
	}
	if !srv.DemoLoading || !srv.BoundsSafe || len(srv.Demos) != 1 {
		t.Errorf("server flags = %+v", srv)
	}

	s.HandleFrame(msgpack.MustEncode(msgpack.Map(
		msgpack.P("type", msgpack.String("demo_list")),
		msgpack.P("selected_demo", msgpack.Nil()),
	)), false)
	if s.Server().SelectedDemo != "" || len(s.Server().Demos) != 1 {
		t.Errorf("demo_list without demos should keep list and clear selection: %+v", s.Server())
	}
}

func TestLocalBanner(t *testing.T) {
	s, clk := newTestSession()
	s.RaiseLocal("Map texture missing for de_nuke", "warning", 0)
	clk.Advance(time.Hour)
	if b := s.Banner(clk.Now()); b.Source != BannerLocal || b.Level != "warning" {
		t.Fatalf("sticky local banner = %+v", b)
	}

	s.ClearLocal("something else")
	if b := s.Banner(clk.Now()); b.Source != BannerLocal {
		t.Error("ClearLocal with other text should keep the banner")
	}
	s.ClearLocal("Map texture missing for de_nuke")
	if b := s.Banner(clk.Now()); b.Source != BannerNone {
		t.Errorf("after clear banner = %+v", b)
	}

	s.RaiseLocal("reconnecting", "info", 2*time.Second)
	clk.Advance(1999 * time.Millisecond)
	if b := s.Banner(clk.Now()); b.Text != "reconnecting" {
		t.Error("timed local banner should be active before expiry")
	}
	clk.Advance(time.Millisecond)
	if b := s.Banner(clk.Now()); b.Source != BannerNone {
		t.Error("timed local banner should expire")
	}
}

func TestHandleFrame_UpdateRateGauge(t *testing.T) {
	s, clk := newTestSession()
	frame := positionFrame("de_dust2", boundsConfig(100), []playerFixture{{"1", "a", "CT", 10, 10, true}})
	for range 5 {
		if err := s.HandleFrame(frame, false); err != nil {
			t.Fatalf("HandleFrame failed: %v", err)
		}
		clk.Advance(250 * time.Millisecond)
	}
	if r := s.Metrics().Gauges.Get(status.UpdateRate).Load(); r < 3.99 || r > 4.01 {
		t.Errorf("update rate = %v, want 4", r)
	}
}
