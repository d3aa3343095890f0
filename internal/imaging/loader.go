package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache provides thread-safe caching of decoded images to avoid redundant
// decoding.
//
// The cache stores decoded image.Image objects keyed by their file path,
// together with the size and modification time the file had when it was
// decoded. Load stats the file on every call and decodes it again when either
// has changed, so a photo edited on disk is never served stale. Cached images
// must be treated as read-only; use FitFrame or imaging.Clone to obtain a
// private, mutable copy.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until their file changes, disappears or is
// removed via Evict(). The MCP server keeps one cache for its lifetime so that
// repeated renders of the same photo decode it once.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/photo.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame := imaging.FitFrame(img, imaging.TargetSize(img.Bounds(), imaging.DefaultFrameSize))
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*cachedImage
}

type cachedImage struct {
	img     image.Image
	format  string
	size    int64
	modTime time.Time
}

func (e *cachedImage) matches(info os.FileInfo) bool {
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*cachedImage),
	}
}

// Load retrieves an image from the cache or loads it from disk if it is not
// cached or the file changed since it was cached.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     JPEG, PNG, GIF, BMP, TIFF and WebP.
//
// Returns:
//   - image.Image: The decoded image with EXIF orientation applied. The concrete
//     type depends on the format and orientation (e.g., *image.NRGBA, *image.YCbCr).
//   - error: Non-nil if the file cannot be opened or decoded. A cached copy of a
//     file that can no longer be read is evicted.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (*cachedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	e, ok := c.images[path]
	c.mu.RUnlock()
	if ok && e.matches(info) {
		return e, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, format, err := Decode(data)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	// The file may have been rewritten between Stat and ReadFile; only the
	// bytes actually decoded count, so take the size from them.
	e = &cachedImage{img: img, format: format, size: int64(len(data)), modTime: info.ModTime()}

	c.mu.Lock()
	c.images[path] = e
	c.mu.Unlock()

	return e, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
// After eviction, the next Load() call for this path will read from disk.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Decode decodes an encoded image held in memory and applies its EXIF
// orientation, so that phone photos come out upright.
//
// Returns the decoded image and the registered format name ("jpeg", "png",
// "gif", "bmp", "tiff" or "webp").
func Decode(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels, after orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels, after orientation is applied.
	Height int `json:"height"`

	// Format is the decoder that recognized the file contents, e.g. "jpeg".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// Orientation is "portrait" when the image is taller than wide, otherwise
	// "landscape". It selects the frame size used when rendering.
	Orientation string `json:"orientation"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// This function loads the image into the cache (if not already cached or
// changed on disk) and extracts dimensions, format, color depth, alpha channel
// presence, orientation and file size. Every field describes the same decoded
// version of the file.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// # Format Detection
//
// The format is sniffed from the file contents rather than the extension, so a
// JPEG saved as "photo.png" reports "jpeg".
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch e.img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := e.img.Bounds()
	orientation := "landscape"
	if bounds.Dy() > bounds.Dx() {
		orientation = "portrait"
	}

	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        e.format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		Orientation:   orientation,
		FileSizeBytes: e.size,
	}, nil
}
