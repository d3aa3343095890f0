package dither

import "math"

// ApplyExposure multiplies the R, G and B channels of every pixel by factor,
// rounding to the nearest integer and clamping to [0,255]. Alpha is untouched.
//
// A factor of exactly 1.0 returns immediately so that unmodified images never
// pick up rounding drift.
func ApplyExposure(pix []byte, factor float64) {
	if factor == 1.0 {
		return
	}
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = clampByte(float64(pix[i]) * factor)
		pix[i+1] = clampByte(float64(pix[i+1]) * factor)
		pix[i+2] = clampByte(float64(pix[i+2]) * factor)
	}
}

// ApplySaturation scales the HSL saturation of every pixel by factor. The new
// saturation is clamped to [0,1]; gray pixels are left as they are.
//
// A factor of exactly 1.0 is a no-op.
func ApplySaturation(pix []byte, factor float64) {
	if factor == 1.0 {
		return
	}
	for i := 0; i+3 < len(pix); i += 4 {
		h, s, l, ok := rgbToHSL(pix[i], pix[i+1], pix[i+2])
		if !ok {
			continue
		}
		s = math.Max(0, math.Min(1, s*factor))
		pix[i], pix[i+1], pix[i+2] = hslToRGB(h, s, l)
	}
}

// rgbToHSL converts 8-bit RGB to HSL with every component in [0,1].
//
// ok is false for gray input (max == min), where hue and saturation are undefined.
func rgbToHSL(r8, g8, b8 uint8) (h, s, l float64, ok bool) {
	hi := max(r8, g8, b8)
	lo := min(r8, g8, b8)

	maxv := float64(hi) / 255
	minv := float64(lo) / 255
	l = (maxv + minv) / 2
	if hi == lo {
		return 0, 0, l, false
	}

	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	d := maxv - minv
	if l > 0.5 {
		s = d / (2 - maxv - minv)
	} else {
		s = d / (maxv + minv)
	}

	switch hi {
	case r8:
		h = (g - b) / d
		if g8 < b8 {
			h += 6
		}
	case g8:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l, true
}

// hslToRGB converts HSL back to 8-bit RGB. Channels are clamped before the byte
// store; for well-formed input the math already lands in range, the clamp only
// absorbs floating point residue at the boundaries.
func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch int(math.Floor(h * 6)) {
	case 0:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return clampByte((r + m) * 255), clampByte((g + m) * 255), clampByte((b + m) * 255)
}

// clampByte rounds v to the nearest integer and clamps it to [0,255].
func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
