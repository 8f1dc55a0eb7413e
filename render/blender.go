package render

// BlendMode defines compositing operations using a bitmask (Flags | Op)
type BlendMode uint8

// Blend operations (low nibble)
const (
	opReplace uint8 = 0x00
	opAlpha   uint8 = 0x01
	opAdd     uint8 = 0x02
	opMax     uint8 = 0x03
)

// Blend targets (high nibble)
const (
	flagBg uint8 = 0x10
	flagFg uint8 = 0x20
)

const (
	BlendReplace = BlendMode(opReplace | flagBg | flagFg)
	BlendAlpha   = BlendMode(opAlpha | flagBg | flagFg)
	BlendAdd     = BlendMode(opAdd | flagBg | flagFg)
	BlendMax     = BlendMode(opMax | flagBg | flagFg)

	BlendFgOnly  = BlendMode(opReplace | flagFg) // Replace Fg, keep Bg
	BlendAlphaFg = BlendMode(opAlpha | flagFg)
	BlendAlphaBg = BlendMode(opAlpha | flagBg) // Tint Bg, keep rune and Fg
	BlendMaxBg   = BlendMode(opMax | flagBg)
)

func apply(op uint8, dst, src RGB, alpha float64) RGB {
	switch op {
	case opAlpha:
		return Blend(dst, src, alpha)
	case opAdd:
		return Add(dst, src)
	case opMax:
		return Max(dst, src)
	}
	return src
}
