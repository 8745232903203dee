// Package cellbuf implements the packed terminal cell grid: glyph plus
// foreground/background color plus attribute bits, with alpha
// compositing, a scissor stack, and text/box blitting primitives.
package cellbuf

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mitchellh/colorstring"
)

// Color is normalized RGBA, each channel in [0,1]. This layout matches the
// native acceleration ABI's four-float32 color representation exactly, so
// a Color slice can be handed to the native package without conversion.
type Color [4]float32

// Default is the zero value: fully transparent black. Writing a Color{} fg
// or bg leaves the existing cell channel untouched under alpha compositing.
var Default = Color{}

// A returns the color's alpha channel.
func (c Color) A() float32 { return c[3] }

// RGBA constructs a color from 8-bit channels, alpha included.
func RGBA(r, g, b, a uint8) Color {
	return Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

// RGB constructs a fully opaque color from 8-bit channels.
func RGB(r, g, b uint8) Color {
	return RGBA(r, g, b, 255)
}

// ParseColor is the single pure-function boundary where dynamic color
// inputs (hex strings, rgb(...) expressions, named ANSI colors) become
// the internal normalized representation; parsing never happens deeper
// in the pipeline.
//
// Recognised forms: "", "#rrggbb", "#rgb", "rgb(r,g,b)", "rgba(r,g,b,a)",
// and any name colorstring understands ("red", "bright_blue", ...).
func ParseColor(s string) (Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, true
	}

	switch {
	case strings.HasPrefix(s, "#"):
		hc, err := colorful.Hex(s)
		if err != nil {
			return Default, false
		}
		r, g, b := hc.RGB255()
		return RGB(r, g, b), true

	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseFunctional(s)

	default:
		return parseNamed(s)
	}
}

func parseFunctional(s string) (Color, bool) {
	open := strings.IndexByte(s, '(')
	close := strings.LastIndexByte(s, ')')
	if open < 0 || close < 0 || close < open {
		return Default, false
	}
	parts := strings.Split(s[open+1:close], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Default, false
	}
	nums := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Default, false
		}
		nums[i] = v
	}
	a := 1.0
	if len(nums) == 4 {
		a = nums[3]
	}
	return Color{
		float32(clamp01(nums[0] / 255)),
		float32(clamp01(nums[1] / 255)),
		float32(clamp01(nums[2] / 255)),
		float32(clamp01(a)),
	}, true
}

// parseNamed resolves an ANSI color name through the fixed namedPalette
// table below. A name missing from that table but known to colorstring
// resolves to Default; any other name fails.
func parseNamed(name string) (Color, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	rgb, ok := namedPalette[key]
	if !ok {
		// colorstring knows more names than we carry RGB values for
		// (reset, bg_ modifiers, light_gray); those resolve to the
		// terminal default rather than failing.
		if _, known := colorstring.DefaultColors[key]; known {
			return Default, true
		}
		return Default, false
	}
	return RGB(rgb[0], rgb[1], rgb[2]), true
}

var namedPalette = map[string][3]uint8{
	"black":          {0, 0, 0},
	"red":            {205, 49, 49},
	"green":          {13, 188, 121},
	"yellow":         {229, 229, 16},
	"blue":           {36, 114, 200},
	"magenta":        {188, 63, 188},
	"cyan":           {17, 168, 205},
	"white":          {229, 229, 229},
	"bright_black":   {102, 102, 102},
	"bright_red":     {241, 76, 76},
	"bright_green":   {35, 209, 139},
	"bright_yellow":  {245, 245, 67},
	"bright_blue":    {59, 142, 234},
	"bright_magenta": {214, 112, 214},
	"bright_cyan":    {41, 184, 219},
	"bright_white":   {255, 255, 255},
	"default":        {229, 229, 229},
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Over composites src over dst using standard Porter-Duff "over", per
// set_cell_alpha contract. Attributes are not blended by this
// function; callers replace attribute bits separately.
func Over(src, dst Color) Color {
	if src[3] >= 1 {
		return src
	}
	if src[3] <= 0 {
		return dst
	}
	sc := colorful.Color{R: float64(src[0]), G: float64(src[1]), B: float64(src[2])}
	dc := colorful.Color{R: float64(dst[0]), G: float64(dst[1]), B: float64(dst[2])}
	sa := float64(src[3])
	da := float64(dst[3])
	outA := sa + da*(1-sa)
	if outA <= 0 {
		return Color{0, 0, 0, 0}
	}
	blend := func(s, d float64) float32 {
		return float32((s*sa + d*da*(1-sa)) / outA)
	}
	return Color{
		blend(sc.R, dc.R),
		blend(sc.G, dc.G),
		blend(sc.B, dc.B),
		float32(outA),
	}
}
