package dither

import "fmt"

// Processor runs the full adjustment and dithering pipeline.
//
// Processor holds configuration only; it is safe to copy and to use from several
// goroutines at once.
type Processor struct {
	Options  Options
	Palettes Palettes
}

// NewProcessor returns a Processor for the six-ink panel with the given options.
func NewProcessor(opts Options) Processor {
	return Processor{Options: opts, Palettes: Spectra6()}
}

// Process adjusts and dithers pix in place and returns the same slice.
//
// Stages run in order: exposure, saturation, tone map, Floyd-Steinberg. Exposure
// and Saturation values of 0 or 1 skip their stage, and Strength 0 skips tone
// mapping, so those pixels reach the ditherer byte for byte.
//
// Returns an error wrapping ErrInvalidInput if the dimensions are not positive,
// len(pix) != width*height*4, or the options fail Validate. pix is not touched
// in that case.
func (p Processor) Process(pix []byte, width, height int) ([]byte, error) {
	if err := ValidateBuffer(pix, width, height); err != nil {
		return nil, err
	}
	if err := p.Options.Validate(); err != nil {
		return nil, err
	}

	opts := p.Options
	if opts.Exposure != 0 && opts.Exposure != 1.0 {
		ApplyExposure(pix, opts.Exposure)
	}
	if opts.Saturation != 0 && opts.Saturation != 1.0 {
		ApplySaturation(pix, opts.Saturation)
	}
	if opts.Strength != 0 {
		ApplyToneMap(pix, opts.Strength, opts.ShadowBoost, opts.HighlightCompress, opts.Midpoint)
	}
	FloydSteinberg(pix, width, height, p.Palettes)

	return pix, nil
}

// Fingerprint identifies the rendering produced by p, for cache keys.
func (p Processor) Fingerprint() string {
	return fmt.Sprintf("%s:%x", p.Options.Fingerprint(), p.Palettes)
}

// ValidateBuffer checks that pix holds exactly width*height RGBA pixels.
func ValidateBuffer(pix []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidInput, width, height)
	}
	if want := width * height * 4; len(pix) != want {
		return fmt.Errorf("%w: buffer holds %d bytes, want %d for %dx%d",
			ErrInvalidInput, len(pix), want, width, height)
	}
	return nil
}
