package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// Output formats understood by Encode.
const (
	FormatBMP = "bmp"
	FormatPNG = "png"
)

// EncodedImage contains an encoded frame ready to be embedded in a JSON reply.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeBMP writes img as an uncompressed BMP, the format the panel firmware
// reads. Opaque images are written with 24 bits per pixel and *image.Paletted
// frames as 8-bit palette indices.
func EncodeBMP(w io.Writer, img image.Image) error {
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode bmp: %w", err)
	}
	return nil
}

// Encode encodes img in the named format ("bmp" or "png") and returns it as
// base64.
func Encode(img image.Image, format string) (*EncodedImage, error) {
	var buf bytes.Buffer
	var mime string

	switch format {
	case FormatBMP:
		if err := EncodeBMP(&buf, img); err != nil {
			return nil, err
		}
		mime = "image/bmp"
	case FormatPNG, "":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		mime = "image/png"
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
	}, nil
}

// Save writes img to path in the format named by the file extension (.bmp,
// .png, .jpg, .gif or .tif).
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
