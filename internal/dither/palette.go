package dither

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

const (
	// PaletteSize is the number of slots in a panel palette.
	PaletteSize = 7

	// ReservedIndex is the unused controller slot. Index never returns it.
	ReservedIndex = 4

	// FallbackIndex (white) is returned when no slot is closer than +Inf,
	// which only happens with a degenerate palette.
	FallbackIndex = 1
)

// Ink indices shared by the measured and theoretical palettes.
const (
	InkBlack  = 0
	InkWhite  = 1
	InkYellow = 2
	InkRed    = 3
	InkBlue   = 5
	InkGreen  = 6
)

var inkNames = [PaletteSize]string{"black", "white", "yellow", "red", "reserved", "blue", "green"}

// InkName returns the human readable name of a palette slot.
func InkName(i int) string {
	if i < 0 || i >= PaletteSize {
		return "unknown"
	}
	return inkNames[i]
}

// RGB is an 8-bit color triple.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// Hex formats the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA implements color.Color so palette entries can be handed to image/draw
// and the encoders directly.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Palette is an ordered set of panel inks. Slot ReservedIndex is ignored.
type Palette [PaletteSize]RGB

// Index returns the slot closest to (r, g, b) by squared Euclidean distance.
//
// The reserved slot is skipped and ties resolve to the lowest index. The inputs
// are float64 because the dither stage searches with error-adjusted values that
// are clamped to [0,255] but not rounded.
func (p *Palette) Index(r, g, b float64) int {
	ret, bestSum := FallbackIndex, math.Inf(1)
	for i, v := range p {
		if i == ReservedIndex {
			continue
		}
		dr := r - float64(v.R)
		dg := g - float64(v.G)
		db := b - float64(v.B)
		sum := dr*dr + dg*dg + db*db
		if sum < bestSum {
			ret, bestSum = i, sum
		}
	}
	return ret
}

// ColorPalette returns the palette as a color.Palette, reserved slot included,
// so that slot numbers stay aligned with the controller's ink indices. It is the
// color table of the frames built by Paletted.
func (p *Palette) ColorPalette() color.Palette {
	pal := make(color.Palette, len(p))
	for i, c := range p {
		pal[i] = c
	}
	return pal
}

// Palettes pairs the colors the panel shows with the colors written to the frame.
type Palettes struct {
	// Measured is used for ink selection and error diffusion.
	Measured Palette `json:"measured" yaml:"measured"`

	// Theoretical is written into the output buffer.
	Theoretical Palette `json:"theoretical" yaml:"theoretical"`
}

// Validate reports a measured palette that would leave an ink unreachable: two
// usable slots with the same measured color. The reserved slot is ignored.
func (p Palettes) Validate() error {
	seen := make(map[RGB]int, PaletteSize)
	for i, c := range p.Measured {
		if i == ReservedIndex {
			continue
		}
		if j, ok := seen[c]; ok {
			return fmt.Errorf("%w: measured %s and %s share color %s",
				ErrInvalidInput, InkName(j), InkName(i), c.Hex())
		}
		seen[c] = i
	}
	return nil
}

// Spectra6 returns the calibrated palette pair of the 7.3" six-ink panel.
//
// A fresh value is returned on every call; callers may modify it freely.
func Spectra6() Palettes {
	return Palettes{
		Measured: Palette{
			{2, 2, 2},
			{190, 190, 190},
			{205, 202, 0},
			{135, 19, 0},
			{0, 0, 0},
			{5, 64, 158},
			{39, 102, 60},
		},
		Theoretical: Palette{
			{0, 0, 0},
			{255, 255, 255},
			{255, 255, 0},
			{255, 0, 0},
			{0, 0, 0},
			{0, 0, 255},
			{0, 255, 0},
		},
	}
}

// slots maps each usable color of p to its lowest slot.
func (p *Palette) slots() map[RGB]int {
	lookup := make(map[RGB]int, PaletteSize)
	for i := len(p) - 1; i >= 0; i-- {
		if i == ReservedIndex {
			continue
		}
		lookup[p[i]] = i
	}
	return lookup
}

// Paletted converts a dithered RGBA buffer into an indexed image whose pixel
// values are ink slots of p. Pixels that match no usable slot are written as
// FallbackIndex.
func (p *Palette) Paletted(pix []byte, width, height int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, width, height), p.ColorPalette())
	lookup := p.slots()
	for i := range img.Pix {
		o := i * 4
		if o+3 >= len(pix) {
			img.Pix[i] = FallbackIndex
			continue
		}
		idx, ok := lookup[RGB{pix[o], pix[o+1], pix[o+2]}]
		if !ok {
			idx = FallbackIndex
		}
		img.Pix[i] = uint8(idx)
	}
	return img
}

// CountInks returns how many pixels of a dithered buffer carry each slot of pal.
// Pixels that match no slot are not counted.
func CountInks(pix []byte, pal Palette) [PaletteSize]int {
	var counts [PaletteSize]int
	lookup := pal.slots()
	for i := 0; i+3 < len(pix); i += 4 {
		if idx, ok := lookup[RGB{pix[i], pix[i+1], pix[i+2]}]; ok {
			counts[idx]++
		}
	}
	return counts
}
