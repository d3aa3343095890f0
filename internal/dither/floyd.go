package dither

// Floyd-Steinberg weights: {weight, dx, dy}.
var floydSteinberg = [4]struct {
	weight float64
	dx, dy int
}{
	{7.0 / 16.0, 1, 0},
	{3.0 / 16.0, -1, 1},
	{5.0 / 16.0, 0, 1},
	{1.0 / 16.0, 1, 1},
}

// FloydSteinberg quantizes pix to the panel inks in place.
//
// Pixels are visited in raster order. Each pixel's value plus the error diffused
// into it so far is clamped to [0,255], matched against pals.Measured, and
// replaced by the theoretical color of the chosen slot with alpha 255. The
// difference between the adjusted value and the measured ink is pushed to the
// unvisited neighbors; weight that would fall outside the image is dropped.
//
// The raster order is load bearing: a pixel's input depends on every neighbor
// above and to its left, so rows cannot be processed independently.
func FloydSteinberg(pix []byte, width, height int, pals Palettes) {
	errs := make([]float64, width*height*3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 4
			errIdx := (y*width + x) * 3

			oldR := clampChannel(float64(pix[idx]) + errs[errIdx])
			oldG := clampChannel(float64(pix[idx+1]) + errs[errIdx+1])
			oldB := clampChannel(float64(pix[idx+2]) + errs[errIdx+2])

			ink := pals.Measured.Index(oldR, oldG, oldB)

			out := pals.Theoretical[ink]
			pix[idx] = out.R
			pix[idx+1] = out.G
			pix[idx+2] = out.B
			pix[idx+3] = 0xff

			measured := pals.Measured[ink]
			errR := oldR - float64(measured.R)
			errG := oldG - float64(measured.G)
			errB := oldB - float64(measured.B)

			for _, k := range floydSteinberg {
				nx, ny := x+k.dx, y+k.dy
				if nx < 0 || nx >= width || ny >= height {
					continue
				}
				n := (ny*width + nx) * 3
				errs[n] += errR * k.weight
				errs[n+1] += errG * k.weight
				errs[n+2] += errB * k.weight
			}
		}
	}
}

func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
