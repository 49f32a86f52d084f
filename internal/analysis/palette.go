package analysis

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// MaxPaletteSize is the largest palette whose 8-bit colors stay distinct and
// strictly darker step by step. Longer palettes keep the order only as far as
// the color depth allows.
const MaxPaletteSize = 300

// GeneratePalette returns n distinct hex colors ordered from lightest to
// darkest. Hues are evenly spaced over a warm sweep (yellow through red to
// magenta) while saturation rises and value falls, so a date-ordered series
// reads as a light to dark progression.
func GeneratePalette(n int) []string {
	if n < 1 {
		return nil
	}

	palette := make([]string, n)
	previous := -1
	for i := range palette {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		hue := math.Mod(50-80*t+360, 360)
		saturation := 0.35 + 0.5*t
		value := 0.98 - 0.6*t

		r, g, b := colorful.Hsv(hue, saturation, value).RGB255()
		// neighbours closer than one 8-bit step are pushed a shade darker
		for previous >= 0 && lightnessSum(r, g, b) >= previous && r|g|b != 0 {
			r, g, b = darker(r), darker(g), darker(b)
		}
		previous = lightnessSum(r, g, b)

		palette[i] = colorful.Color{
			R: float64(r) / 255,
			G: float64(g) / 255,
			B: float64(b) / 255,
		}.Hex()
	}
	return palette
}

// Lightness returns the HSL lightness of a hex color in [0, 1]
func Lightness(hex string) (float64, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, err
	}
	_, _, l := c.Hsl()
	return l, nil
}

// lightnessSum is twice the HSL lightness in 8-bit units
func lightnessSum(r, g, b uint8) int {
	hi := max(r, g, b)
	lo := min(r, g, b)
	return int(hi) + int(lo)
}

func darker(c uint8) uint8 {
	if c == 0 {
		return 0
	}
	return c - 1
}
