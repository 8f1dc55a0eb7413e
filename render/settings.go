package render

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/radarterm/protocol"
)

// TeamFilter limits which team's markers and trails are drawn
type TeamFilter uint8

const (
	FilterAll TeamFilter = iota
	FilterT
	FilterCT
)

// ParseTeamFilter accepts all, t or ct in any case
func ParseTeamFilter(s string) (TeamFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "t":
		return FilterT, nil
	case "ct":
		return FilterCT, nil
	}
	return FilterAll, fmt.Errorf("team filter %q: want all, t or ct", s)
}

func (f TeamFilter) String() string {
	switch f {
	case FilterT:
		return "t"
	case FilterCT:
		return "ct"
	}
	return "all"
}

// Allows reports whether a team passes the filter
func (f TeamFilter) Allows(team protocol.Team) bool {
	switch f {
	case FilterT:
		return team == protocol.TeamT
	case FilterCT:
		return team == protocol.TeamCT
	}
	return true
}

// Settings are the user-facing radar options
type Settings struct {
	DotSize        float64
	BombSize       float64
	ShowAllyNames  bool // CT labels
	ShowEnemyNames bool // T labels
	ShowViewCones  bool
	ShowBomb       bool
	ShowTrails     bool
	TeamFilter     TeamFilter
	ViewRotation   float64 // degrees, about the radar center
}

// DefaultSettings mirrors the stock radar panel
func DefaultSettings() Settings {
	return Settings{
		DotSize:        1,
		BombSize:       0.5,
		ShowEnemyNames: true,
		ShowBomb:       true,
		ShowTrails:     true,
	}
}
