package main

import (
	"math"
	"math/rand/v2"
	"time"

	vmsgpack "github.com/vmihailenco/msgpack/v5"
)

const version = "sandbox-1"

type bounds struct {
	MinX float64 `msgpack:"min_x"`
	MaxX float64 `msgpack:"max_x"`
	MinY float64 `msgpack:"min_y"`
	MaxY float64 `msgpack:"max_y"`
}

type mapConfig struct {
	Name   string `msgpack:"name"`
	Bounds bounds `msgpack:"world_bounds"`
}

type player struct {
	ID     uint64  `msgpack:"id"`
	Name   string  `msgpack:"name"`
	Team   string  `msgpack:"team"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Z      float64 `msgpack:"z"`
	Yaw    float64 `msgpack:"yaw"`
	Alive  bool    `msgpack:"is_alive"`
	Health int     `msgpack:"health"`
	Weapon string  `msgpack:"weapon"`
}

type vec3 struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
	Z float64 `msgpack:"z"`
}

type bomb struct {
	Planted  bool   `msgpack:"planted"`
	Planter  string `msgpack:"planter,omitempty"`
	Position *vec3  `msgpack:"position,omitempty"`
}

type event struct {
	Type   string  `msgpack:"type"`
	Tick   int64   `msgpack:"tick"`
	Player string  `msgpack:"player,omitempty"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
}

type snapshot struct {
	Round       int      `msgpack:"round"`
	Time        float64  `msgpack:"time"`
	CTScore     int      `msgpack:"ct_score"`
	TScore      int      `msgpack:"t_score"`
	AliveCT     int      `msgpack:"alive_ct"`
	AliveT      int      `msgpack:"alive_t"`
	BombPlanted bool     `msgpack:"bomb_planted"`
	Tick        int64    `msgpack:"tick"`
	DataSource  string   `msgpack:"data_source"`
	Players     []player `msgpack:"players"`
	Events      []event  `msgpack:"events"`
	Bomb        bomb     `msgpack:"bomb"`
}

type positionUpdate struct {
	Type      string     `msgpack:"type"`
	Map       string     `msgpack:"map"`
	MapConfig *mapConfig `msgpack:"map_config,omitempty"`
	Data      snapshot   `msgpack:"data"`
	ParseMs   float64    `msgpack:"_parse_ms"`
	MsgBytes  int        `msgpack:"_msg_bytes"`
	ServerTS  float64    `msgpack:"_server_ts"`
	Poll      float64    `msgpack:"_poll_interval"`
}

type connection struct {
	Type          string   `msgpack:"type"`
	Message       string   `msgpack:"message"`
	Version       string   `msgpack:"version"`
	ClientID      string   `msgpack:"client_id"`
	MapsAvailable []string `msgpack:"maps_available"`
	Mode          string   `msgpack:"mode"`
	BoundsSafe    bool     `msgpack:"bounds_safe"`
}

// bot walks a circle around its anchor
type bot struct {
	player
	cx, cy, radius, phase, speed float64
}

// World is the simulated match; Step is not safe for concurrent use
type World struct {
	mapName string
	bounds  bounds
	rng     *rand.Rand
	bots    []*bot

	// per-bot chance of dying each tick
	deathRate float64

	tick       int64
	round      int
	roundStart int64
	ctScore    int
	tScore     int
	bomb       bomb

	pendingConfig bool
}

// NewWorld seeds a 5v5 match on a square map of the given half-extent
func NewWorld(mapName string, extent float64, seed uint64) *World {
	w := &World{
		mapName: mapName,
		bounds:  bounds{MinX: -extent, MaxX: extent, MinY: -extent, MaxY: extent},
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		round:   1,

		deathRate:     0.002,
		pendingConfig: true,
	}
	names := []string{"ropz", "frozen", "broky", "rain", "karrigan", "zywoo", "flameZ", "apEX", "mezii", "spinx"}
	for i, name := range names {
		team := "CT"
		if i >= 5 {
			team = "T"
		}
		b := &bot{
			player: player{
				ID:     76561198000000000 + uint64(i+1),
				Name:   name,
				Team:   team,
				Alive:  true,
				Health: 100,
				Weapon: "ak47",
			},
			cx:     (w.rng.Float64()*2 - 1) * extent * 0.6,
			cy:     (w.rng.Float64()*2 - 1) * extent * 0.6,
			radius: extent * (0.05 + w.rng.Float64()*0.2),
			phase:  w.rng.Float64() * 2 * math.Pi,
			speed:  0.02 + w.rng.Float64()*0.04,
		}
		w.bots = append(w.bots, b)
	}
	return w
}

// Greeting builds the per-client connection message
func (w *World) Greeting(clientID string) connection {
	return connection{
		Type:          "connection",
		Message:       "Connected to feed sandbox",
		Version:       version,
		ClientID:      clientID,
		MapsAvailable: []string{w.mapName},
		Mode:          "live",
		BoundsSafe:    true,
	}
}

// Step advances one tick and returns the frame to broadcast
func (w *World) Step(now time.Time) positionUpdate {
	w.tick++
	var events []event

	for _, b := range w.bots {
		if !b.Alive {
			continue
		}
		b.phase += b.speed
		b.X = b.cx + b.radius*math.Cos(b.phase)
		b.Y = b.cy + b.radius*math.Sin(b.phase)
		b.Yaw = math.Mod(b.phase*180/math.Pi+90, 360)
		if w.rng.Float64() < w.deathRate {
			b.Alive, b.Health = false, 0
			events = append(events, event{Type: "player_death", Tick: w.tick, Player: b.Name, X: b.X, Y: b.Y})
		}
	}

	elapsed := w.tick - w.roundStart
	switch {
	case elapsed == 200 && !w.bomb.Planted:
		if p := w.firstAlive("T"); p != nil {
			w.bomb = bomb{Planted: true, Planter: p.Name, Position: &vec3{X: p.X, Y: p.Y}}
			events = append(events, event{Type: "bomb_planted", Tick: w.tick, Player: p.Name, X: p.X, Y: p.Y})
		}
	case elapsed == 350 && w.bomb.Planted:
		pos := w.bomb.Position
		if w.rng.IntN(2) == 0 {
			events = append(events, event{Type: "bomb_defused", Tick: w.tick, X: pos.X, Y: pos.Y})
			w.ctScore++
		} else {
			events = append(events, event{Type: "bomb_exploded", Tick: w.tick, X: pos.X, Y: pos.Y})
			w.tScore++
		}
		w.bomb = bomb{}
	case elapsed >= 400:
		w.newRound()
	}

	if w.tick%37 == 0 {
		if p := w.randomAlive(); p != nil {
			events = append(events, event{Type: "smokegrenade_detonate", Tick: w.tick, Player: p.Name, X: p.X, Y: p.Y})
		}
	}

	snap := snapshot{
		Round:       w.round,
		Time:        float64(elapsed) / 10,
		CTScore:     w.ctScore,
		TScore:      w.tScore,
		BombPlanted: w.bomb.Planted,
		Tick:        w.tick,
		DataSource:  "sandbox",
		Events:      events,
		Bomb:        w.bomb,
	}
	for _, b := range w.bots {
		snap.Players = append(snap.Players, b.player)
		if b.Alive {
			if b.Team == "CT" {
				snap.AliveCT++
			} else {
				snap.AliveT++
			}
		}
	}

	pu := positionUpdate{
		Type:     "position_update",
		Map:      w.mapName,
		Data:     snap,
		ServerTS: float64(now.UnixMilli()) / 1000,
		Poll:     0.1,
	}
	// map_config rides on the first frame and on every round start
	if w.pendingConfig {
		pu.MapConfig = &mapConfig{Name: w.mapName, Bounds: w.bounds}
		w.pendingConfig = false
	}
	return pu
}

func (w *World) newRound() {
	w.round++
	w.roundStart = w.tick
	w.bomb = bomb{}
	w.pendingConfig = true
	for _, b := range w.bots {
		b.Alive, b.Health = true, 100
	}
}

func (w *World) firstAlive(team string) *bot {
	for _, b := range w.bots {
		if b.Alive && b.Team == team {
			return b
		}
	}
	return nil
}

func (w *World) randomAlive() *bot {
	var alive []*bot
	for _, b := range w.bots {
		if b.Alive {
			alive = append(alive, b)
		}
	}
	if len(alive) == 0 {
		return nil
	}
	return alive[w.rng.IntN(len(alive))]
}

// encode marshals a frame, stamping _msg_bytes with the size of the first pass
func encode(pu positionUpdate) ([]byte, error) {
	raw, err := vmsgpack.Marshal(pu)
	if err != nil {
		return nil, err
	}
	pu.MsgBytes = len(raw)
	return vmsgpack.Marshal(pu)
}
