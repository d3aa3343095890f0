// Package render turns source photos into panel-ready BMP frames.
//
// A render decodes the source, picks portrait or landscape from its shape,
// cover-crops it to the frame size, optionally sharpens, dithers to the six
// inks and encodes the result as a BMP (24-bit, or 8-bit indexed when
// Settings.Paletted is set). When a FrameStore is attached
// the output is cached under a key derived from the source bytes and the
// render settings, so repeat requests for the same photo skip the pipeline.
package render

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/epaper-frame/internal/dither"
	"github.com/ironsheep/epaper-frame/internal/imaging"
	"github.com/ironsheep/epaper-frame/internal/store"
)

// FrameStore is the cache a Renderer reads and fills. *store.FrameStore
// satisfies it.
type FrameStore interface {
	Get(ctx context.Context, key string) (*store.Entry, bool, error)
	Put(ctx context.Context, key string, e *store.Entry) error
	Prune(ctx context.Context, max int) (int, error)
}

// Settings selects the frame geometry and the dither configuration.
type Settings struct {
	// Size is the landscape frame size; portrait sources use it rotated.
	Size imaging.Size

	// Sharpen is the unsharp mask amount applied after resizing. 0 disables it.
	Sharpen float64

	// Paletted writes 8-bit BMPs whose pixels index the theoretical palette
	// instead of 24-bit RGB. Slot numbers match the controller's ink codes.
	Paletted bool

	Processor dither.Processor
}

// DefaultSettings renders 800x480 frames with the enhanced dither options.
func DefaultSettings() Settings {
	return Settings{
		Size:      imaging.DefaultFrameSize,
		Processor: dither.NewProcessor(dither.DefaultOptions()),
	}
}

// Fingerprint identifies everything besides the source that affects a render.
func (s Settings) Fingerprint() string {
	fp := fmt.Sprintf("%dx%d:sh%g:%s", s.Size.Width, s.Size.Height, s.Sharpen, s.Processor.Fingerprint())
	if s.Paletted {
		fp += ":p8"
	}
	return fp
}

// Frame is a rendered frame.
type Frame struct {
	BMP    []byte
	Width  int
	Height int

	// Inks counts the pixels of each palette slot. It is zero for frames
	// served from the store.
	Inks [dither.PaletteSize]int

	Cached  bool
	Elapsed time.Duration
}

// Renderer renders frames with fixed settings. It is safe for concurrent use.
type Renderer struct {
	settings   Settings
	store      FrameStore
	maxEntries int
	log        zerolog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStore caches frames in s, keeping at most maxEntries of them
// (0 = unbounded).
func WithStore(s FrameStore, maxEntries int) Option {
	return func(r *Renderer) {
		r.store = s
		r.maxEntries = maxEntries
	}
}

// New returns a Renderer. The settings are validated up front so that bad
// configuration fails at startup rather than on the first request.
func New(settings Settings, logger zerolog.Logger, opts ...Option) (*Renderer, error) {
	if settings.Size.Width <= 0 || settings.Size.Height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", dither.ErrInvalidInput, settings.Size.Width, settings.Size.Height)
	}
	if err := settings.Processor.Options.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Processor.Palettes.Validate(); err != nil {
		return nil, err
	}

	r := &Renderer{
		settings: settings,
		log:      logger.With().Str("component", "render").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Settings returns the renderer's settings.
func (r *Renderer) Settings() Settings {
	return r.settings
}

// Render produces the BMP frame for an encoded source image.
func (r *Renderer) Render(ctx context.Context, src []byte) (*Frame, error) {
	start := time.Now()

	var key string
	if r.store != nil {
		key = r.cacheKey(src)
		e, ok, err := r.store.Get(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Msg("frame store lookup failed")
		} else if ok {
			r.log.Debug().Str("key", key).Msg("frame served from store")
			return &Frame{
				BMP:     e.BMP,
				Width:   e.Width,
				Height:  e.Height,
				Cached:  true,
				Elapsed: time.Since(start),
			}, nil
		}
	}

	img, format, err := imaging.Decode(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, inks, err := r.Dither(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bmp, err := r.encode(frame)
	if err != nil {
		return nil, err
	}

	out := &Frame{
		BMP:     bmp,
		Width:   frame.Rect.Dx(),
		Height:  frame.Rect.Dy(),
		Inks:    inks,
		Elapsed: time.Since(start),
	}

	r.log.Info().
		Str("format", format).
		Int("source_width", img.Bounds().Dx()).
		Int("source_height", img.Bounds().Dy()).
		Int("width", out.Width).
		Int("height", out.Height).
		Dur("elapsed", out.Elapsed).
		Msg("frame rendered")

	if r.store != nil {
		r.save(ctx, key, out)
	}
	return out, nil
}

// RenderFile renders the image stored at path.
func (r *Renderer) RenderFile(ctx context.Context, path string) (*Frame, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return r.Render(ctx, src)
}

// Dither fits img to the frame and quantizes it to the panel inks. The
// returned image holds only theoretical palette colors.
func (r *Renderer) Dither(img image.Image) (*image.NRGBA, [dither.PaletteSize]int, error) {
	size := imaging.TargetSize(img.Bounds(), r.settings.Size)
	frame := imaging.Sharpen(imaging.FitFrame(img, size), r.settings.Sharpen)

	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if _, err := r.settings.Processor.Process(frame.Pix, w, h); err != nil {
		return nil, [dither.PaletteSize]int{}, fmt.Errorf("failed to dither frame: %w", err)
	}
	return frame, dither.CountInks(frame.Pix, r.settings.Processor.Palettes.Theoretical), nil
}

func (r *Renderer) encode(frame *image.NRGBA) ([]byte, error) {
	var img image.Image = frame
	if r.settings.Paletted {
		img = r.settings.Processor.Palettes.Theoretical.Paletted(frame.Pix, frame.Rect.Dx(), frame.Rect.Dy())
	}
	var buf bytes.Buffer
	if err := imaging.EncodeBMP(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) save(ctx context.Context, key string, f *Frame) {
	err := r.store.Put(ctx, key, &store.Entry{Width: f.Width, Height: f.Height, BMP: f.BMP})
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to store frame")
		return
	}
	if r.maxEntries > 0 {
		n, err := r.store.Prune(ctx, r.maxEntries)
		if err != nil {
			r.log.Warn().Err(err).Msg("failed to prune frame store")
		} else if n > 0 {
			r.log.Debug().Int("removed", n).Msg("frame store pruned")
		}
	}
}

func (r *Renderer) cacheKey(src []byte) string {
	sum := sha1.Sum(src)
	return hex.EncodeToString(sum[:]) + ":" + r.settings.Fingerprint()
}
