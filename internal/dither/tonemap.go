package dither

import "math"

// ToneCurve is a 256-entry lookup table mapping an input channel level to its
// tone-mapped level.
type ToneCurve [256]uint8

// NewToneCurve evaluates the S-curve for every 8-bit level.
//
// Levels at or below midpoint take the shadow branch:
//
//	(v/midpoint)^(1 - strength*shadowBoost) * midpoint
//
// levels above it take the highlight branch:
//
//	midpoint + ((v-midpoint)/(1-midpoint))^(1 + strength*highlightCompress) * (1-midpoint)
//
// where v is the level normalized to [0,1]. Results are clamped to [0,1] before
// scaling back to 8 bits. The midpoint is a fixed point of the curve.
func NewToneCurve(strength, shadowBoost, highlightCompress, midpoint float64) *ToneCurve {
	var lut ToneCurve
	shadowExp := 1.0 - strength*shadowBoost
	highlightExp := 1.0 + strength*highlightCompress

	for level := range lut {
		normalized := float64(level) / 255.0

		var result float64
		if normalized <= midpoint {
			shadowVal := normalized / midpoint
			result = math.Pow(shadowVal, shadowExp) * midpoint
		} else {
			highlightVal := (normalized - midpoint) / (1.0 - midpoint)
			result = midpoint + math.Pow(highlightVal, highlightExp)*(1.0-midpoint)
		}

		lut[level] = clampByte(math.Max(0, math.Min(1, result)) * 255)
	}
	return &lut
}

// Apply maps the R, G and B channels of every pixel through the curve.
func (t *ToneCurve) Apply(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = t[pix[i]]
		pix[i+1] = t[pix[i+1]]
		pix[i+2] = t[pix[i+2]]
	}
}

// ApplyToneMap runs the per-channel S-curve over pix. Each channel is mapped on
// its own rather than through luminance, which can shift hue slightly in
// strongly tinted areas.
//
// strength 0 is a no-op.
func ApplyToneMap(pix []byte, strength, shadowBoost, highlightCompress, midpoint float64) {
	if strength == 0 {
		return
	}
	NewToneCurve(strength, shadowBoost, highlightCompress, midpoint).Apply(pix)
}
