// Package imaging provides the image handling around the ink ditherer: decoding
// source photos, fitting them to the panel, encoding frames and analyzing color.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Frame Geometry
//
// The panel is 800x480 in landscape. Sources taller than wide are rendered at
// 480x800 instead (see TargetSize). FitFrame scales a source to cover the frame
// and crops the overflow around the center, returning a tightly packed
// *image.NRGBA whose Pix slice is the width*height*4 RGBA buffer the ditherer
// expects.
//
// # Formats
//
// Decoders are registered for JPEG, PNG, GIF, BMP, TIFF and WebP. Decode applies
// the EXIF orientation tag so phone photos come out upright. Frames are encoded
// as 24-bit BMP for the panel (EncodeBMP) or PNG for previews.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images. Images held
// by the cache are shared and must not be modified.
//
// # Color Representation
//
// Colors are returned in multiple formats for flexibility:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGB: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside image bounds
//   - Unknown output formats
//   - File I/O errors during image loading
//   - Encoding errors during image output
package imaging
