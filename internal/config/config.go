// Package config loads the frame server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/epaper-frame/internal/dither"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Server struct {
	Addr string `yaml:"addr"` // e.g. ":8080"
}

type Display struct {
	Width   int     `yaml:"width"`   // landscape width, e.g. 800
	Height  int     `yaml:"height"`  // landscape height, e.g. 480
	Sharpen float64 `yaml:"sharpen"` // unsharp mask amount, 0 = off

	// PalettedBMP serves 8-bit indexed BMPs instead of 24-bit RGB.
	PalettedBMP bool `yaml:"paletted_bmp"`
}

// Palette holds the two ink palettes as seven "#RRGGBB" strings each. Slot 4
// is the reserved controller slot and is never selected.
type Palette struct {
	Measured    []string `yaml:"measured"`
	Theoretical []string `yaml:"theoretical"`
}

type Source struct {
	AlbumURL     string  `yaml:"album_url"`     // shared album link; empty = local
	LocalPath    string  `yaml:"local_path"`    // file or directory for the local provider
	RefreshHours float64 `yaml:"refresh_hours"` // album rescan period, 0 = never
}

type Cache struct {
	Path       string `yaml:"path"` // sqlite file, empty = no frame cache
	MaxEntries int    `yaml:"max_entries"`
}

type Config struct {
	Server  Server         `yaml:"server"`
	Display Display        `yaml:"display"`
	Dither  dither.Options `yaml:"dither"`
	Palette Palette        `yaml:"palette"`
	Source  Source         `yaml:"source"`
	Cache   Cache          `yaml:"cache"`
}

// Default returns a configuration that serves the bundled local image with the
// enhanced dither settings.
func Default() *Config {
	pals := dither.Spectra6()
	return &Config{
		Server:  Server{Addr: ":8080"},
		Display: Display{Width: 800, Height: 480},
		Dither:  dither.DefaultOptions(),
		Palette: Palette{
			Measured:    paletteHex(pals.Measured),
			Theoretical: paletteHex(pals.Theoretical),
		},
		Source: Source{LocalPath: "images", RefreshHours: 24},
		Cache:  Cache{MaxEntries: 256},
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path as YAML.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ApplyEnv overrides values from the environment: PORT replaces the listen
// port and ALBUM_URL the album link.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("%w: PORT %q is not a port number", ErrInvalid, port)
		}
		host, _, err := net.SplitHostPort(c.Server.Addr)
		if err != nil {
			host = ""
		}
		c.Server.Addr = net.JoinHostPort(host, port)
	}
	if url := getenv("ALBUM_URL"); url != "" {
		c.Source.AlbumURL = url
	}
	return nil
}

// Validate checks every value the server depends on.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	}
	if c.Display.Height > c.Display.Width {
		return fmt.Errorf("%w: display size must be given in landscape, got %dx%d",
			ErrInvalid, c.Display.Width, c.Display.Height)
	}
	if c.Display.Sharpen < 0 {
		return fmt.Errorf("%w: display.sharpen must not be negative", ErrInvalid)
	}
	if err := c.Dither.Validate(); err != nil {
		return fmt.Errorf("%w: dither: %v", ErrInvalid, err)
	}
	if _, err := c.Palettes(); err != nil {
		return err
	}
	if c.Source.RefreshHours < 0 {
		return fmt.Errorf("%w: source.refresh_hours must not be negative", ErrInvalid)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("%w: cache.max_entries must not be negative", ErrInvalid)
	}
	return nil
}

// Palettes parses the configured palettes.
func (c *Config) Palettes() (dither.Palettes, error) {
	var pals dither.Palettes
	var err error
	if pals.Measured, err = parsePalette("palette.measured", c.Palette.Measured); err != nil {
		return pals, err
	}
	if pals.Theoretical, err = parsePalette("palette.theoretical", c.Palette.Theoretical); err != nil {
		return pals, err
	}
	if err := pals.Validate(); err != nil {
		return pals, fmt.Errorf("%w: palette: %v", ErrInvalid, err)
	}
	return pals, nil
}

func parsePalette(key string, hex []string) (dither.Palette, error) {
	var p dither.Palette
	if len(hex) != dither.PaletteSize {
		return p, fmt.Errorf("%w: %s needs %d colors, got %d", ErrInvalid, key, dither.PaletteSize, len(hex))
	}
	for i, s := range hex {
		if len(s) != 7 && len(s) != 4 {
			return p, fmt.Errorf("%w: %s[%d]: %q is not #RGB or #RRGGBB", ErrInvalid, key, i, s)
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return p, fmt.Errorf("%w: %s[%d]: %v", ErrInvalid, key, i, err)
		}
		r, g, b := c.RGB255()
		p[i] = dither.RGB{R: r, G: g, B: b}
	}
	return p, nil
}

func paletteHex(p dither.Palette) []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}
