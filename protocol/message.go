package protocol

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/radarterm/msgpack"
)

// MessageType is the discriminator carried in the top-level "type" field
type MessageType string

const (
	TypePositionUpdate MessageType = "position_update"
	TypeConnection     MessageType = "connection"
	TypeDemoList       MessageType = "demo_list"
	TypeState          MessageType = "state"
	TypeStatus         MessageType = "status"
)

// CommandKind names outbound control commands understood by the server
type CommandKind string

const (
	CmdSetMode        CommandKind = "set_mode"
	CmdSelectDemo     CommandKind = "select_demo"
	CmdPlayback       CommandKind = "playback"
	CmdSetSampling    CommandKind = "set_sampling"
	CmdSetMapOverride CommandKind = "set_map_override"
	CmdRequestDemos   CommandKind = "request_demos"
)

var (
	ErrNotMapping  = errors.New("message is not a mapping")
	ErrMissingType = errors.New("message has no type")
	ErrUnknownType = errors.New("unknown message type")
)

// Message is implemented by every parsed inbound message
type Message interface {
	Type() MessageType
}

// PositionUpdate carries a game-state snapshot and its map metadata
type PositionUpdate struct {
	Map       string
	MapConfig *MapConfig // nil when the frame carried none
	Data      Snapshot
	Perf      Perf
}

// Connection is the greeting sent once per client
type Connection struct {
	Message         string
	Version         string
	ClientID        string
	MapsAvailable   []string
	Mode            string
	SelectedDemo    string
	Demos           []Demo
	HasDemos        bool
	RefreshInterval *float64
	MapOverride     *string
	DemoValid       *bool
	DemoLoading     *bool
	BoundsSafe      *bool
}

// DemoList announces the recordings available for playback
type DemoList struct {
	Demos        []Demo
	HasDemos     bool
	Mode         string
	SelectedDemo *string
	BoundsSafe   *bool
}

// State reports server mode changes
type State struct {
	Mode         string
	SelectedDemo *string
	MapOverride  *string
	DemoValid    *bool
	DemoLoading  *bool
	BoundsSafe   *bool
}

// Status is a server banner; ExpiresIn is milliseconds, zero means sticky
type Status struct {
	Message   string
	Level     string
	ExpiresIn float64
}

func (PositionUpdate) Type() MessageType { return TypePositionUpdate }
func (Connection) Type() MessageType     { return TypeConnection }
func (DemoList) Type() MessageType       { return TypeDemoList }
func (State) Type() MessageType          { return TypeState }
func (Status) Type() MessageType         { return TypeStatus }

// Parse maps a decoded top-level value onto its message type
func Parse(v msgpack.Value) (Message, error) {
	if v.Kind() != msgpack.KindMap {
		return nil, ErrNotMapping
	}
	typ, ok := optStr(v, "type")
	if !ok || typ == "" {
		return nil, ErrMissingType
	}

	switch MessageType(typ) {
	case TypePositionUpdate:
		return parsePositionUpdate(v), nil
	case TypeConnection:
		return parseConnection(v), nil
	case TypeDemoList:
		_, hasDemos := v.Get("demos")
		return DemoList{
			Demos:        parseDemos(v),
			HasDemos:     hasDemos,
			Mode:         str(v, "mode"),
			SelectedDemo: optSelected(v),
			BoundsSafe:   optBool(v, "bounds_safe"),
		}, nil
	case TypeState:
		return State{
			Mode:         str(v, "mode"),
			SelectedDemo: optSelected(v),
			MapOverride:  optString(v, "map_override"),
			DemoValid:    optBool(v, "demo_valid"),
			DemoLoading:  optBool(v, "demo_loading"),
			BoundsSafe:   optBool(v, "bounds_safe"),
		}, nil
	case TypeStatus:
		s := Status{Message: str(v, "message"), Level: str(v, "level")}
		if s.Level == "" {
			s.Level = "info"
		}
		if exp, ok := optNum(v, "expires_in"); ok && exp > 0 {
			s.ExpiresIn = exp
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

func parsePositionUpdate(v msgpack.Value) PositionUpdate {
	pu := PositionUpdate{
		Map:  str(v, "map"),
		Perf: parsePerf(v),
	}
	if mc, ok := mapping(v, "map_config"); ok {
		pu.MapConfig = parseMapConfig(mc, pu.Map)
	}
	if data, ok := mapping(v, "data"); ok {
		pu.Data = parseSnapshot(data)
	}
	return pu
}

func parseConnection(v msgpack.Value) Connection {
	c := Connection{
		Message:       str(v, "message"),
		Version:       str(v, "version"),
		ClientID:      ident(v, "client_id"),
		MapsAvailable: strList(v, "maps_available"),
		Mode:          str(v, "mode"),
		SelectedDemo:  str(v, "selected_demo"),
		Demos:         parseDemos(v),
		MapOverride:   optString(v, "map_override"),
		DemoValid:     optBool(v, "demo_valid"),
		DemoLoading:   optBool(v, "demo_loading"),
		BoundsSafe:    optBool(v, "bounds_safe"),
	}
	_, c.HasDemos = v.Get("demos")
	if r, ok := optNum(v, "msgpack_refresh_interval"); ok {
		c.RefreshInterval = &r
	}
	return c
}

// optString returns nil unless the key holds a string
func optString(v msgpack.Value, key string) *string {
	s, ok := optStr(v, key)
	if !ok {
		return nil
	}
	return &s
}

// optSelected treats a present nil selected_demo as an explicit clear
func optSelected(v msgpack.Value) *string {
	sel, ok := v.Get("selected_demo")
	if !ok {
		return nil
	}
	s, _ := sel.Str()
	return &s
}

// Encoding identifies which wire format a frame was read with
type Encoding uint8

const (
	EncodingMsgpack Encoding = iota
	EncodingJSON
)

func (e Encoding) String() string {
	if e == EncodingJSON {
		return "json"
	}
	return "msgpack"
}

// DecodeFrame turns raw frame bytes into a value, trying MessagePack first for binary frames
// and retrying the same bytes as JSON text when the binary form does not yield a mapping
func DecodeFrame(data []byte, text bool) (msgpack.Value, Encoding, error) {
	if !text {
		v, err := msgpack.Decode(data)
		if err == nil && v.Kind() == msgpack.KindMap {
			return v, EncodingMsgpack, nil
		}
		jv, jerr := FromJSON(data)
		if jerr == nil {
			return jv, EncodingJSON, nil
		}
		if err == nil {
			err = ErrNotMapping
		}
		return msgpack.Value{}, EncodingMsgpack, fmt.Errorf("binary frame: %w; text fallback: %v", err, jerr)
	}

	v, err := FromJSON(data)
	if err != nil {
		return msgpack.Value{}, EncodingJSON, err
	}
	return v, EncodingJSON, nil
}
