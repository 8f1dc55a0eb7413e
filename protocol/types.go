package protocol

import (
	"github.com/lixenwraith/radarterm/msgpack"
)

// Team tags a player's side
type Team string

const (
	TeamCT      Team = "CT"
	TeamT       Team = "T"
	TeamUnknown Team = "UNK"
)

func parseTeam(s string) Team {
	switch Team(s) {
	case TeamCT, TeamT:
		return Team(s)
	}
	return TeamUnknown
}

// Vec3 is a world-space position
type Vec3 struct {
	X, Y, Z float64
}

// Player is one entity record from a snapshot
type Player struct {
	ID     string // exact decimal form of the wire identifier
	Name   string
	Team   Team
	X      float64
	Y      float64
	Z      float64
	Yaw    float64
	Alive  bool
	Health int
	Armor  int
	Helmet bool
	Money  int
	Weapon string
}

// Key is the identity key, stable across array reordering
func (p Player) Key() string {
	return p.ID + "_" + p.Name
}

// Economy carries team money totals and buy classification
type Economy struct {
	CT       int
	T        int
	CTStatus string
	TStatus  string
}

// Kill is one kill feed row
type Kill struct {
	Killer     string
	Victim     string
	KillerTeam Team
	Weapon     string
	Headshot   bool
}

// Event is one raw game event as delivered by the server
type Event struct {
	Type     string
	Tick     int64
	Player   string
	Victim   string
	Attacker string
	Winner   string
	X, Y, Z  float64
	HasPos   bool // both x and y were numeric
}

// Bomb describes the objective state
type Bomb struct {
	Planted  bool
	Position *Vec3
	Planter  string
}

// Snapshot is one point-in-time game state
type Snapshot struct {
	Round       int
	Time        float64
	CTScore     int
	TScore      int
	Money       Economy
	Players     []Player
	AliveCT     int
	AliveT      int
	KillFeed    []Kill
	Events      []Event
	BombPlanted bool
	Bomb        Bomb
	Tick        int64
	DataSource  string
}

// Bounds is the axis-aligned world rectangle covered by the map texture
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Transform aligns world axes with the map texture
type Transform struct {
	FlipX     bool
	FlipY     bool
	RotateDeg float64
}

// ZRange is the elevation range used for marker scaling
type ZRange struct {
	Min, Max float64
}

// MapConfig holds projection metadata for one map
type MapConfig struct {
	Name      string
	Bounds    *Bounds
	Transform *Transform
	ZRange    *ZRange
	Width     float64 // fallback span when bounds are absent
	Height    float64
}

// Perf is server-side telemetry attached to position updates
type Perf struct {
	ParseMs         float64
	AvgParseMs      float64
	CompressionRate float64
	MsgBytes        int64
	DemoTime        float64
	DemoTickRate    float64
	DemoRemaining   float64
	DemoDataRateBps float64
	LiveLagSec      float64
	ServerTS        float64
	PollInterval    float64 // seconds, zero when undeclared
	UpdateCount     int64
	CmdCount        int64
	HasDemoTime     bool
	HasServerTS     bool
}

// Demo is one recording offered by the server
type Demo struct {
	Name  string
	Size  int64
	MTime float64
}

// ===== PAYLOAD PARSERS =====

func parsePlayer(m msgpack.Value) Player {
	return Player{
		ID:     ident(m, "id"),
		Name:   str(m, "name"),
		Team:   parseTeam(str(m, "team")),
		X:      num(m, "x"),
		Y:      num(m, "y"),
		Z:      num(m, "z"),
		Yaw:    num(m, "yaw"),
		Alive:  boolean(m, "is_alive"),
		Health: int(integer(m, "health")),
		Armor:  int(integer(m, "armor")),
		Helmet: boolean(m, "has_helmet"),
		Money:  int(integer(m, "money")),
		Weapon: str(m, "weapon"),
	}
}

func parseEvent(m msgpack.Value) Event {
	e := Event{
		Type:     str(m, "type"),
		Tick:     integer(m, "tick"),
		Player:   str(m, "player"),
		Victim:   str(m, "victim"),
		Attacker: str(m, "attacker"),
		Winner:   str(m, "winner"),
	}
	x, okX := optNum(m, "x")
	y, okY := optNum(m, "y")
	if okX && okY {
		e.X, e.Y, e.HasPos = x, y, true
		e.Z = num(m, "z")
	}
	return e
}

func parseKill(m msgpack.Value) Kill {
	return Kill{
		Killer:     str(m, "killer"),
		Victim:     str(m, "victim"),
		KillerTeam: parseTeam(str(m, "killer_team")),
		Weapon:     str(m, "weapon"),
		Headshot:   boolean(m, "headshot"),
	}
}

func parseVec3(v msgpack.Value) (*Vec3, bool) {
	if v.Kind() != msgpack.KindMap {
		return nil, false
	}
	x, okX := optNum(v, "x")
	y, okY := optNum(v, "y")
	if !okX || !okY {
		return nil, false
	}
	return &Vec3{X: x, Y: y, Z: num(v, "z")}, true
}

func parseSnapshot(m msgpack.Value) Snapshot {
	s := Snapshot{
		Round:       int(integer(m, "round")),
		Time:        num(m, "time"),
		CTScore:     int(integer(m, "ct_score")),
		TScore:      int(integer(m, "t_score")),
		AliveCT:     int(integer(m, "alive_ct")),
		AliveT:      int(integer(m, "alive_t")),
		BombPlanted: boolean(m, "bomb_planted"),
		Tick:        integer(m, "tick"),
		DataSource:  str(m, "data_source"),
	}

	if money, ok := mapping(m, "money"); ok {
		s.Money = Economy{
			CT:       int(integer(money, "ct")),
			T:        int(integer(money, "t")),
			CTStatus: str(money, "ct_status"),
			TStatus:  str(money, "t_status"),
		}
	}

	for _, p := range list(m, "players") {
		if p.Kind() == msgpack.KindMap {
			s.Players = append(s.Players, parsePlayer(p))
		}
	}
	for _, k := range list(m, "kill_feed") {
		if k.Kind() == msgpack.KindMap {
			s.KillFeed = append(s.KillFeed, parseKill(k))
		}
	}
	for _, e := range list(m, "events") {
		if e.Kind() == msgpack.KindMap {
			s.Events = append(s.Events, parseEvent(e))
		}
	}

	if bomb, ok := mapping(m, "bomb"); ok {
		s.Bomb.Planted = boolean(bomb, "planted")
		s.Bomb.Planter = str(bomb, "planter")
		if pos, ok := bomb.Get("position"); ok {
			s.Bomb.Position, _ = parseVec3(pos)
		}
	}
	return s
}

func parseMapConfig(m msgpack.Value, name string) *MapConfig {
	cfg := &MapConfig{
		Name:   name,
		Width:  num(m, "width"),
		Height: num(m, "height"),
	}
	if n := str(m, "name"); n != "" && name == "" {
		cfg.Name = n
	}

	if b, ok := mapping(m, "world_bounds"); ok {
		minX, ok1 := optNum(b, "min_x")
		maxX, ok2 := optNum(b, "max_x")
		minY, ok3 := optNum(b, "min_y")
		maxY, ok4 := optNum(b, "max_y")
		if ok1 && ok2 && ok3 && ok4 {
			cfg.Bounds = &Bounds{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
		}
	}
	if t, ok := mapping(m, "world_transform"); ok {
		cfg.Transform = &Transform{
			FlipX:     boolean(t, "flip_x"),
			FlipY:     boolean(t, "flip_y"),
			RotateDeg: num(t, "rotate_deg"),
		}
	}
	if z, ok := mapping(m, "z_range"); ok {
		lo, ok1 := optNum(z, "min")
		hi, ok2 := optNum(z, "max")
		if ok1 && ok2 {
			cfg.ZRange = &ZRange{Min: lo, Max: hi}
		}
	}
	return cfg
}

func parsePerf(m msgpack.Value) Perf {
	p := Perf{
		ParseMs:         num(m, "_parse_ms"),
		AvgParseMs:      num(m, "_avg_parse_ms"),
		CompressionRate: num(m, "_compression_rate"),
		MsgBytes:        integer(m, "_msg_bytes"),
		DemoTickRate:    num(m, "_demo_tick_rate"),
		DemoRemaining:   num(m, "_demo_remaining"),
		DemoDataRateBps: num(m, "_demo_data_rate_bps"),
		LiveLagSec:      num(m, "_live_lag_sec"),
		UpdateCount:     integer(m, "_update_count"),
		CmdCount:        integer(m, "_cmd_count"),
	}
	p.DemoTime, p.HasDemoTime = optNum(m, "_demo_time")
	p.ServerTS, p.HasServerTS = optNum(m, "_server_ts")
	if poll, ok := optNum(m, "_poll_interval"); ok && poll > 0 {
		p.PollInterval = poll
	}
	return p
}

func parseDemos(m msgpack.Value) []Demo {
	var out []Demo
	for _, d := range list(m, "demos") {
		if d.Kind() != msgpack.KindMap {
			continue
		}
		out = append(out, Demo{
			Name:  str(d, "name"),
			Size:  integer(d, "size"),
			MTime: num(d, "mtime"),
		})
	}
	return out
}
