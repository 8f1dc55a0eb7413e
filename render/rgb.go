package render

import (
	"fmt"
	"strconv"

	"github.com/lixenwraith/radarterm/terminal"
)

// RGB is an alias to terminal.RGB so cells flush without conversion
type RGB = terminal.RGB

// Cell and Attr are aliased for the same reason
type (
	Cell = terminal.Cell
	Attr = terminal.Attr
)

// Blend performs alpha blending: result = src*alpha + c*(1-alpha)
func Blend(c, src RGB, alpha float64) RGB {
	if alpha >= 1.0 {
		return src
	}
	if alpha <= 0.0 {
		return c
	}
	inv := 1.0 - alpha
	return RGB{
		R: uint8(float64(src.R)*alpha + float64(c.R)*inv),
		G: uint8(float64(src.G)*alpha + float64(c.G)*inv),
		B: uint8(float64(src.B)*alpha + float64(c.B)*inv),
	}
}

// Add performs additive blend with clamping
func Add(c, src RGB) RGB {
	return RGB{
		R: uint8(min(int(c.R)+int(src.R), 255)),
		G: uint8(min(int(c.G)+int(src.G), 255)),
		B: uint8(min(int(c.B)+int(src.B), 255)),
	}
}

// Max returns per-channel maximum
func Max(c, src RGB) RGB {
	return RGB{R: max(c.R, src.R), G: max(c.G, src.G), B: max(c.B, src.B)}
}

// Scale multiplies every channel by f, clamped to [0, 1]
func Scale(c RGB, f float64) RGB {
	f = max(0, min(1, f))
	return RGB{R: uint8(float64(c.R) * f), G: uint8(float64(c.G) * f), B: uint8(float64(c.B) * f)}
}

// ParseHex reads "#rrggbb" or "rrggbb"
func ParseHex(s string) (RGB, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustHex is ParseHex for package-level palettes
func MustHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
