// Package palette parses the color specifications used by halo configs.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned for specs that cannot be parsed.
var ErrInvalidColor = errors.New("palette: invalid color")

// Fallback is used when a color spec cannot be parsed.
var Fallback = color.RGBA{R: 255, G: 255, B: 255, A: 255}

var named = map[string]color.RGBA{
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"gold":        {255, 215, 0, 255},
	"pink":        {255, 192, 203, 255},
	"skyblue":     {135, 206, 235, 255},
	"lavender":    {230, 230, 250, 255},
	"aquamarine":  {127, 255, 212, 255},
	"peachpuff":   {255, 218, 185, 255},
	"transparent": {0, 0, 0, 0},
}

// Parse converts a color spec into RGBA. Accepted forms:
// #rgb, #rrggbb, #rrggbbaa, rgb(r, g, b), rgba(r, g, b, a) and a few names.
// Alpha in rgba() is a fraction in [0, 1].
func Parse(spec string) (color.RGBA, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:], spec)
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgba("):len(s)-1], 4, spec)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgb("):len(s)-1], 3, spec)
	}
	if c, ok := named[s]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, spec)
}

// MustParse is like Parse but returns Fallback on error.
func MustParse(spec string) color.RGBA {
	c, err := Parse(spec)
	if err != nil {
		return Fallback
	}
	return c
}

func parseHex(h, spec string) (color.RGBA, error) {
	alpha := uint8(255)
	if len(h) == 8 {
		a, err := strconv.ParseUint(h[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, spec)
		}
		alpha = uint8(a)
		h = h[:6]
	}

	c, err := colorful.Hex("#" + h)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, spec)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// Shade blends c toward black by t in [0, 1] in Lab space, keeping alpha.
func Shade(c color.RGBA, t float64) color.RGBA {
	col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	r, g, b := col.BlendLab(colorful.Color{}, clamp(t, 0, 1)).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: c.A}
}

func parseFunc(args string, want int, spec string) (color.RGBA, error) {
	parts := strings.Split(args, ",")
	if len(parts) != want {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, spec)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, spec)
		}
		ch[i] = uint8(math.Round(clamp(v, 0, 255)))
	}

	a := uint8(255)
	if want == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, spec)
		}
		a = uint8(math.Round(clamp(v, 0, 1) * 255))
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
