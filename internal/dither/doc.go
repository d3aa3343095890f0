// Package dither converts RGBA pixel buffers into the six inks of a Spectra-style
// e-paper panel.
//
// The package implements a fixed four-stage pipeline that operates in place on a
// flat, row-major RGBA buffer (the Pix slice of a tightly packed *image.NRGBA):
//
//  1. Exposure: uniform brightness scaling of R, G and B.
//  2. Saturation: an RGB -> HSL -> RGB round trip that scales chroma.
//  3. Tone map: an independent per-channel S-curve around a midpoint.
//  4. Floyd-Steinberg: nearest-ink quantization with error diffusion.
//
// Each stage finishes the whole image before the next one starts.
//
// # Measured and Theoretical Palettes
//
// Dithering uses two positionally aligned palettes. The measured palette holds the
// colors the panel actually shows and is used to pick inks and compute the
// quantization error. The theoretical palette holds the idealized colors (pure
// black, white, yellow, red, blue, green) written into the output so that the
// encoded frame maps cleanly onto the controller's ink indices.
//
// Index 4 of both palettes is a reserved slot and is never selected.
//
// # Thread Safety
//
// Processor is a value type without mutable state. Concurrent calls on different
// buffers are safe; the error accumulator is allocated per call.
//
// # Error Handling
//
// Only Processor.Process validates its input and reports ErrInvalidInput. The stage
// functions are total and assume a well-formed buffer.
package dither
