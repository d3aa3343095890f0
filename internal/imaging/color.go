package imaging

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// analysisSize bounds the longest side of the image handed to the quantizer.
// Larger sources are box-filtered down first.
const analysisSize = 256

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
//
// Saturation is the quantity the frame renderer boosts before dithering, so
// reporting it per dominant color shows how much headroom a photo has.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int // Left edge X coordinate (inclusive)
	Y1 int // Top edge Y coordinate (inclusive)
	X2 int // Right edge X coordinate (exclusive)
	Y2 int // Bottom edge Y coordinate (exclusive)
}

// ColorFrequency represents a color and its share of an image.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB"
	Percentage float64  `json:"percentage"` // Percentage of pixels closest to this color (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components
	HSL        HSLColor `json:"hsl"`        // HSL representation
}

// DominantColorsResult contains the most representative colors of an image.
//
// Colors are sorted by frequency in descending order (most common first).
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"` // Colors sorted by frequency (descending)
}

// DominantColors extracts up to count representative colors from an image or
// region.
//
// Parameters:
//   - img: The source image to analyze.
//   - count: Maximum number of colors to return. Must be positive.
//   - region: Optional rectangular region to analyze. If nil, the entire image
//     is analyzed.
//
// # Color Quantization
//
// A median-cut quantizer builds a palette of at most count colors; every pixel
// is then assigned to its nearest palette entry and the shares are counted.
// Palette entries that end up identical are merged and unused ones dropped, so
// a uniform image yields a single color at 100%.
//
// # Performance
//
// Sources larger than 256 pixels on a side are downsampled before analysis,
// which keeps the cost flat for camera-sized photos at the price of slightly
// approximate percentages.
func DominantColors(img image.Image, count int, region *Region) (*DominantColorsResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("color count must be positive, got %d", count)
	}

	src := img
	if region != nil {
		r := image.Rect(region.X1, region.Y1, region.X2, region.Y2)
		if !r.In(img.Bounds()) || r.Empty() {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds %v",
				region.X1, region.Y1, region.X2, region.Y2, img.Bounds())
		}
		src = imaging.Crop(img, r)
	}

	b := src.Bounds()
	if b.Dx() > analysisSize || b.Dy() > analysisSize {
		src = imaging.Fit(src, analysisSize, analysisSize, imaging.Box)
		b = src.Bounds()
	}

	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, count), src)
	if len(palette) == 0 {
		return &DominantColorsResult{Colors: []ColorFrequency{}}, nil
	}

	counts := make([]int, len(palette))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[palette.Index(src.At(x, y))]++
		}
	}
	total := b.Dx() * b.Dy()

	byHex := make(map[string]*ColorFrequency, len(palette))
	colors := make([]*ColorFrequency, 0, len(palette))
	for i, c := range palette {
		if counts[i] == 0 {
			continue
		}
		r, g, bl, _ := c.RGBA()
		rgb := RGBColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8)}
		hex := fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
		pct := float64(counts[i]) / float64(total) * 100

		if existing, ok := byHex[hex]; ok {
			existing.Percentage += pct
			continue
		}
		cf := &ColorFrequency{Hex: hex, Percentage: pct, RGB: rgb, HSL: rgbToHSL(rgb.R, rgb.G, rgb.B)}
		byHex[hex] = cf
		colors = append(colors, cf)
	}

	sort.SliceStable(colors, func(i, j int) bool {
		return colors[i].Percentage > colors[j].Percentage
	})

	result := make([]ColorFrequency, len(colors))
	for i, c := range colors {
		result[i] = *c
	}
	return &DominantColorsResult{Colors: result}, nil
}

// ChannelStats summarizes one channel histogram.
type ChannelStats struct {
	Mean float64 `json:"mean"` // Mean level (0-255)
	Min  int     `json:"min"`  // Lowest level present
	Max  int     `json:"max"`  // Highest level present

	// ClippedLow and ClippedHigh are the percentages of pixels at level 0 and
	// 255. Large values mean detail the tone curve cannot recover.
	ClippedLow  float64 `json:"clipped_low"`
	ClippedHigh float64 `json:"clipped_high"`
}

// HistogramSummary contains per-channel statistics of an image.
type HistogramSummary struct {
	Red   ChannelStats `json:"red"`
	Green ChannelStats `json:"green"`
	Blue  ChannelStats `json:"blue"`
}

// Histogram computes per-channel level statistics, used to judge whether a
// photo needs exposure correction before rendering.
func Histogram(img image.Image) *HistogramSummary {
	h := histogram.NewRGBAHistogram(img)
	return &HistogramSummary{
		Red:   channelStats(h.R.Bins),
		Green: channelStats(h.G.Bins),
		Blue:  channelStats(h.B.Bins),
	}
}

func channelStats(bins []int) ChannelStats {
	var total, weighted int
	lo, hi := -1, -1
	for level, n := range bins {
		if n == 0 {
			continue
		}
		if lo < 0 {
			lo = level
		}
		hi = level
		total += n
		weighted += level * n
	}
	if total == 0 {
		return ChannelStats{}
	}
	return ChannelStats{
		Mean:        float64(weighted) / float64(total),
		Min:         lo,
		Max:         hi,
		ClippedLow:  float64(bins[0]) / float64(total) * 100,
		ClippedHigh: float64(bins[len(bins)-1]) / float64(total) * 100,
	}
}

// rgbToHSL converts 8-bit RGB values to integer HSL with hue in degrees and
// saturation and lightness in percent (truncated).
func rgbToHSL(r, g, b uint8) HSLColor {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	h, s, l := c.Hsl()
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}
