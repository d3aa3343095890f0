package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Size is a frame size in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultFrameSize is the landscape resolution of the 7.3" six-ink panel.
var DefaultFrameSize = Size{Width: 800, Height: 480}

// Portrait returns s with its sides swapped so that it is taller than wide.
func (s Size) Portrait() Size {
	if s.Height >= s.Width {
		return s
	}
	return Size{Width: s.Height, Height: s.Width}
}

// TargetSize picks the frame size for a source image.
//
// Sources taller than wide render in portrait (e.g. 480x800); square and wide
// sources use the landscape size unchanged. landscape is expected to be wider
// than tall.
func TargetSize(bounds image.Rectangle, landscape Size) Size {
	if bounds.Dy() > bounds.Dx() {
		return landscape.Portrait()
	}
	return landscape
}

// FitFrame scales img to cover size and crops the overflow around the center,
// the way a photo frame fills its mat.
//
// The result is a fresh *image.NRGBA whose bounds start at (0,0) and whose Pix
// is tightly packed (Stride == 4*width), so it can be handed straight to the
// ditherer as a width*height*4 RGBA buffer. img itself is not modified.
func FitFrame(img image.Image, size Size) *image.NRGBA {
	fitted := imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos)
	return packed(fitted)
}

// Sharpen applies an unsharp mask of the given amount with a 1px radius.
//
// Downscaled photos lose edge contrast that the coarse ink pattern then smears
// further; a light sharpen before dithering keeps outlines readable. An amount
// of 0 returns img untouched. Amounts above 10 are clamped.
func Sharpen(img *image.NRGBA, amount float64) *image.NRGBA {
	if amount <= 0 {
		return img
	}
	return packed(effect.UnsharpMask(img, 1.0, amount))
}

// packed returns img as an *image.NRGBA with origin (0,0) and no row padding,
// copying only when needed.
func packed(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		b := n.Bounds()
		if b.Min == (image.Point{}) && n.Stride == 4*b.Dx() && len(n.Pix) == 4*b.Dx()*b.Dy() {
			return n
		}
	}
	return imaging.Clone(img)
}
