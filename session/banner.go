package session

import (
	"time"

	"github.com/lixenwraith/radarterm/protocol"
)

// BannerSource identifies which rule produced the banner
type BannerSource uint8

const (
	BannerNone BannerSource = iota
	BannerServer
	BannerLocal
	BannerAdvisory
	BannerSurvivor
)

// Banner is the single line of advisory text shown above the radar
type Banner struct {
	Text   string
	Level  string
	Source BannerSource
}

type banner struct {
	text    string
	level   string
	expires time.Time
	sticky  bool
}

func (b banner) active(now time.Time) bool {
	return b.text != "" && (b.sticky || now.Before(b.expires))
}

// Banner resolves the banner at now
// Priority: server status, local status, bomb advisory, sole survivor
func (s *Session) Banner(now time.Time) Banner {
	if s.banner.active(now) {
		return Banner{Text: s.banner.text, Level: s.banner.level, Source: BannerServer}
	}
	if s.local.active(now) {
		return Banner{Text: s.local.text, Level: s.local.level, Source: BannerLocal}
	}
	if text, ok := s.effects.Advisory(now); ok {
		return Banner{Text: text, Level: "info", Source: BannerAdvisory}
	}
	if s.cur != nil {
		if text := soleSurvivor(s.cur.Players); text != "" {
			return Banner{Text: text, Level: "info", Source: BannerSurvivor}
		}
	}
	return Banner{}
}

func soleSurvivor(players []protocol.Player) string {
	var ct, t int
	for _, p := range players {
		if !p.Alive {
			continue
		}
		switch p.Team {
		case protocol.TeamCT:
			ct++
		case protocol.TeamT:
			t++
		}
	}
	switch {
	case ct == 1 && t > 1:
		return "CT Sole Survivor"
	case t == 1 && ct > 1:
		return "T Sole Survivor"
	}
	return ""
}
