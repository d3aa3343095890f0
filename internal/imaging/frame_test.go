package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          Size
	}{
		{"landscape", 4000, 3000, Size{800, 480}},
		{"portrait", 3000, 4000, Size{480, 800}},
		{"square", 1000, 1000, Size{800, 480}},
		{"panorama", 9000, 1000, Size{800, 480}},
		{"barely portrait", 999, 1000, Size{480, 800}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TargetSize(image.Rect(0, 0, tt.width, tt.height), DefaultFrameSize)
			if got != tt.want {
				t.Errorf("TargetSize(%dx%d): got %v, want %v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestSize_Portrait(t *testing.T) {
	if got := (Size{800, 480}).Portrait(); got != (Size{480, 800}) {
		t.Errorf("Portrait of landscape: got %v", got)
	}
	if got := (Size{480, 800}).Portrait(); got != (Size{480, 800}) {
		t.Errorf("Portrait of portrait: got %v", got)
	}
}

func TestFitFrame_Dimensions(t *testing.T) {
	tests := []struct {
		name   string
		src    image.Rectangle
		target Size
	}{
		{"downscale wide", image.Rect(0, 0, 1600, 900), Size{800, 480}},
		{"downscale tall", image.Rect(0, 0, 900, 1600), Size{480, 800}},
		{"upscale", image.Rect(0, 0, 100, 50), Size{800, 480}},
		{"offset origin", image.Rect(10, 20, 410, 260), Size{200, 120}},
		{"exact", image.Rect(0, 0, 800, 480), Size{800, 480}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(tt.src)
			got := FitFrame(src, tt.target)

			b := got.Bounds()
			if b.Min != (image.Point{}) {
				t.Errorf("bounds must start at origin, got %v", b)
			}
			if b.Dx() != tt.target.Width || b.Dy() != tt.target.Height {
				t.Errorf("size: got %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.target.Width, tt.target.Height)
			}
			if got.Stride != 4*tt.target.Width {
				t.Errorf("stride: got %d, want %d", got.Stride, 4*tt.target.Width)
			}
			if len(got.Pix) != tt.target.Width*tt.target.Height*4 {
				t.Errorf("pix length: got %d, want %d", len(got.Pix), tt.target.Width*tt.target.Height*4)
			}
		})
	}
}

func TestFitFrame_CropsCenter(t *testing.T) {
	// Red | green | blue thirds; a square crop of the wide source keeps
	// only the green middle.
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			c := color.RGBA{0, 255, 0, 255}
			if x < 100 {
				c = color.RGBA{255, 0, 0, 255}
			} else if x >= 200 {
				c = color.RGBA{0, 0, 255, 255}
			}
			src.Set(x, y, c)
		}
	}

	got := FitFrame(src, Size{50, 50})

	for _, p := range []image.Point{{5, 5}, {25, 25}, {44, 44}} {
		c := got.NRGBAAt(p.X, p.Y)
		if c.G < 240 || c.R > 15 || c.B > 15 {
			t.Errorf("pixel %v: got %v, want green", p, c)
		}
	}
}

func TestFitFrame_DoesNotModifySource(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 77
	}

	got := FitFrame(src, Size{8, 8})
	got.Pix[0] = 1

	if src.Pix[0] != 77 {
		t.Error("FitFrame returned a buffer sharing memory with the source")
	}
}

func TestSharpen(t *testing.T) {
	img := FitFrame(createPatternImage(40, 40), Size{40, 40})

	if got := Sharpen(img, 0); got != img {
		t.Error("Sharpen with amount 0 should return the input")
	}

	got := Sharpen(img, 1.5)
	if got == img {
		t.Fatal("Sharpen should return a new image")
	}
	if got.Bounds() != img.Bounds() || got.Stride != img.Stride {
		t.Errorf("Sharpen changed geometry: %v stride %d", got.Bounds(), got.Stride)
	}
	if a := got.NRGBAAt(5, 5).A; a != 255 {
		t.Errorf("Sharpen changed alpha: got %d", a)
	}
}

func TestPacked_SubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	sub := src.SubImage(image.Rect(2, 2, 6, 6))

	got := packed(sub)
	if got.Bounds() != image.Rect(0, 0, 4, 4) || got.Stride != 16 {
		t.Errorf("packed sub-image: bounds %v stride %d", got.Bounds(), got.Stride)
	}

	if packed(src) != src {
		t.Error("packed should not copy an already packed image")
	}
}
