package dither

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformPixels(w, h int, r, g, b uint8) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 0xff
	}
	return pix
}

// inkIndices maps every pixel of a dithered buffer back to its theoretical slot.
func inkIndices(t *testing.T, pix []byte, pal Palette) []int {
	t.Helper()
	out := make([]int, 0, len(pix)/4)
	for i := 0; i < len(pix); i += 4 {
		idx := -1
		for slot, c := range pal {
			if slot != ReservedIndex && c == (RGB{pix[i], pix[i+1], pix[i+2]}) {
				idx = slot
				break
			}
		}
		require.NotEqual(t, -1, idx, "pixel %d is not a palette color", i/4)
		out = append(out, idx)
	}
	return out
}

func TestFloydSteinberg_OutputIsPaletteOnly(t *testing.T) {
	pals := Spectra6()
	pix := gradientPixels(37, 23)

	FloydSteinberg(pix, 37, 23, pals)

	for i := 0; i < len(pix); i += 4 {
		assert.Equal(t, uint8(0xff), pix[i+3], "alpha at pixel %d", i/4)
	}
	indices := inkIndices(t, pix, pals.Theoretical)
	assert.NotContains(t, indices, ReservedIndex)
}

func TestFloydSteinberg_DarkGrayIsAllBlack(t *testing.T) {
	pix := uniformPixels(2, 2, 10, 10, 10)

	FloydSteinberg(pix, 2, 2, Spectra6())

	assert.Equal(t, uniformPixels(2, 2, 0, 0, 0), pix)
}

func TestFloydSteinberg_SinglePixel(t *testing.T) {
	pix := []byte{120, 40, 20, 3}

	FloydSteinberg(pix, 1, 1, Spectra6())

	assert.Equal(t, []byte{255, 0, 0, 255}, pix)
}

func TestFloydSteinberg_SingleRowAndColumn(t *testing.T) {
	pals := Spectra6()

	row := gradientPixels(50, 1)
	FloydSteinberg(row, 50, 1, pals)
	inkIndices(t, row, pals.Theoretical)

	col := gradientPixels(1, 50)
	FloydSteinberg(col, 1, 50, pals)
	inkIndices(t, col, pals.Theoretical)
}

func TestFloydSteinberg_Deterministic(t *testing.T) {
	a := gradientPixels(31, 17)
	b := clonePixels(a)

	FloydSteinberg(a, 31, 17, Spectra6())
	FloydSteinberg(b, 31, 17, Spectra6())

	assert.Equal(t, a, b)
}

// The mean measured color of a dithered flat field tracks the input; only the
// error pushed off the right and bottom edges is lost.
func TestFloydSteinberg_ConservesMeanColor(t *testing.T) {
	const w, h = 64, 64
	pals := Spectra6()
	tolerance := 255.0 * float64(2*w+2*h) / float64(w*h)

	inputs := []RGB{
		{120, 120, 120},
		{60, 90, 140},
		{180, 170, 40},
		{100, 40, 20},
		{150, 150, 150},
	}

	for _, in := range inputs {
		t.Run(in.Hex(), func(t *testing.T) {
			pix := uniformPixels(w, h, in.R, in.G, in.B)
			FloydSteinberg(pix, w, h, pals)

			var sumR, sumG, sumB float64
			for _, ink := range inkIndices(t, pix, pals.Theoretical) {
				m := pals.Measured[ink]
				sumR += float64(m.R)
				sumG += float64(m.G)
				sumB += float64(m.B)
			}
			n := float64(w * h)
			assert.InDelta(t, float64(in.R), sumR/n, tolerance)
			assert.InDelta(t, float64(in.G), sumG/n, tolerance)
			assert.InDelta(t, float64(in.B), sumB/n, tolerance)
		})
	}
}

func TestClampChannel(t *testing.T) {
	assert.Equal(t, 0.0, clampChannel(-12.5))
	assert.Equal(t, 255.0, clampChannel(300))
	assert.Equal(t, 17.25, clampChannel(17.25), "no rounding")
}
