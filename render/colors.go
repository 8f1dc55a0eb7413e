package render

// Surface palette
var (
	RgbBackground = RGB{R: 11, G: 16, B: 24}
	RgbGrid       = RGB{R: 255, G: 255, B: 255}
	RgbText       = RGB{R: 220, G: 224, B: 230}
	RgbTextDim    = RGB{R: 120, G: 128, B: 140}
	RgbStatusBg   = RGB{R: 22, G: 28, B: 38}
)

// Team colors
var (
	RgbTeamCT    = MustHex("#4a9eff")
	RgbTeamT     = MustHex("#ffb700")
	RgbTeamOther = RGB{R: 200, G: 200, B: 200}
)

// Markers and overlays
var (
	RgbDead      = MustHex("#ff3860")
	RgbFlash     = RGB{R: 255, G: 255, B: 255}
	RgbShoot     = RGB{R: 255, G: 215, B: 0}
	RgbHurt      = RGB{R: 255, G: 56, B: 96}
	RgbHighRing  = RGB{R: 0, G: 212, B: 255}
	RgbLowRing   = RGB{R: 255, G: 255, B: 255}
	RgbViewCone  = RGB{R: 255, G: 255, B: 255}
	RgbBomb      = MustHex("#ff3860")
	RgbUnknownFx = RGB{R: 255, G: 255, B: 255}
)

// Banner levels
var (
	RgbLevelInfo    = RGB{R: 120, G: 200, B: 255}
	RgbLevelWarning = RGB{R: 255, G: 190, B: 60}
	RgbLevelError   = RGB{R: 255, G: 80, B: 80}
)

// LevelColor maps a status level to its banner color
func LevelColor(level string) RGB {
	switch level {
	case "warning", "warn":
		return RgbLevelWarning
	case "error":
		return RgbLevelError
	}
	return RgbLevelInfo
}
