package dither

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned by Processor.Process for malformed buffers,
// dimensions or options.
var ErrInvalidInput = errors.New("dither: invalid input")

// Options tunes the pre-dither adjustments.
//
// The zero value disables every adjustment: Exposure and Saturation of 0 are
// treated as unset by Processor.Process, and Strength 0 turns the tone curve off.
type Options struct {
	// Exposure multiplies R, G and B. 1.0 (or 0, unset) leaves pixels untouched.
	Exposure float64 `json:"exposure" yaml:"exposure"`

	// Saturation scales HSL saturation. 1.0 (or 0, unset) leaves pixels untouched.
	Saturation float64 `json:"saturation" yaml:"saturation"`

	// Strength scales both halves of the S-curve. 0 disables tone mapping.
	Strength float64 `json:"strength" yaml:"strength"`

	// ShadowBoost lowers the shadow exponent, lifting dark tones.
	ShadowBoost float64 `json:"shadow_boost" yaml:"shadow_boost"`

	// HighlightCompress raises the highlight exponent, compressing bright tones.
	HighlightCompress float64 `json:"highlight_compress" yaml:"highlight_compress"`

	// Midpoint splits the shadow and highlight domains. Must be in (0,1) when
	// Strength is not 0.
	Midpoint float64 `json:"midpoint" yaml:"midpoint"`
}

// DefaultOptions returns the "enhanced" settings tuned for the six-ink panel:
// a saturation boost to survive the panel's muted inks and a strong highlight
// compression.
func DefaultOptions() Options {
	return Options{
		Exposure:          1.0,
		Saturation:        1.5,
		Strength:          0.9,
		ShadowBoost:       0.0,
		HighlightCompress: 1.5,
		Midpoint:          0.5,
	}
}

// Validate reports option values the pipeline cannot apply.
func (o Options) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"exposure", o.Exposure},
		{"saturation", o.Saturation},
		{"strength", o.Strength},
		{"shadow_boost", o.ShadowBoost},
		{"highlight_compress", o.HighlightCompress},
		{"midpoint", o.Midpoint},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidInput, f.name, f.v)
		}
	}
	if o.Exposure < 0 {
		return fmt.Errorf("%w: exposure must not be negative, got %v", ErrInvalidInput, o.Exposure)
	}
	if o.Saturation < 0 {
		return fmt.Errorf("%w: saturation must not be negative, got %v", ErrInvalidInput, o.Saturation)
	}
	if o.Strength != 0 && (o.Midpoint <= 0 || o.Midpoint >= 1) {
		return fmt.Errorf("%w: midpoint must be in (0,1), got %v", ErrInvalidInput, o.Midpoint)
	}
	return nil
}

// Fingerprint is a stable textual identity of the options, used in cache keys.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("e%g:s%g:t%g:b%g:h%g:m%g",
		o.Exposure, o.Saturation, o.Strength, o.ShadowBoost, o.HighlightCompress, o.Midpoint)
}
