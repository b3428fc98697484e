package glass

import colorful "github.com/lucasb-eyer/go-colorful"

// Fresnel and glare highlights are applied in CIE LCh(ab). Lerping RGB
// toward white desaturates hues unevenly; moving lightness (and chroma) in
// LCh keeps the hue fixed.

func toColorful(c RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

func fromColorful(c colorful.Color, alpha float32) RGBA {
	c = c.Clamped()
	return RGBA{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: alpha}
}

// ToLCH returns the hue (degrees), chroma and lightness of c.
func ToLCH(c RGBA) (h, chroma, l float32) {
	hh, cc, ll := toColorful(c).Hcl()
	return float32(hh), float32(cc), float32(ll)
}

// FromLCH builds an RGBA color from hue, chroma and lightness.
func FromLCH(h, chroma, l, alpha float32) RGBA {
	return fromColorful(colorful.Hcl(float64(h), float64(chroma), float64(l)), alpha)
}

// LightenLCH moves lightness toward 1 by amount (0..1), keeping hue and
// chroma.
func LightenLCH(c RGBA, amount float32) RGBA {
	amount = clampf(amount, 0, 1)
	if amount == 0 {
		return c
	}
	h, ch, l := ToLCH(c)
	l += (1 - l) * amount
	return FromLCH(h, ch, l, c.A)
}

// BoostLCH raises lightness toward 1 by lightAmount and scales chroma by
// 1+chromaAmount, keeping hue.
func BoostLCH(c RGBA, lightAmount, chromaAmount float32) RGBA {
	lightAmount = clampf(lightAmount, 0, 1)
	if lightAmount == 0 && chromaAmount == 0 {
		return c
	}
	h, ch, l := ToLCH(c)
	l += (1 - l) * lightAmount
	ch *= 1 + chromaAmount
	return FromLCH(h, ch, l, c.A)
}
