package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/epaper-frame/internal/config"
	"github.com/ironsheep/epaper-frame/internal/dither"
	"github.com/ironsheep/epaper-frame/internal/imaging"
	"github.com/ironsheep/epaper-frame/internal/render"
	"github.com/ironsheep/epaper-frame/internal/server"
	"github.com/ironsheep/epaper-frame/internal/source"
	"github.com/ironsheep/epaper-frame/internal/store"
	"github.com/ironsheep/epaper-frame/internal/web"
)

// DitherFlags override the dither section of the configuration.
type DitherFlags struct {
	Exposure          *float64 `help:"Brightness multiplier." group:"dither"`
	Saturation        *float64 `help:"HSL saturation multiplier." group:"dither"`
	Strength          *float64 `help:"S-curve strength, 0 disables tone mapping." group:"dither"`
	ShadowBoost       *float64 `help:"Lift dark tones." group:"dither"`
	HighlightCompress *float64 `help:"Compress bright tones." group:"dither"`
	Midpoint          *float64 `help:"Shadow/highlight split in (0,1)." group:"dither"`
	Sharpen           *float64 `help:"Unsharp mask amount after resizing, 0 disables it." group:"dither"`
}

func (f *DitherFlags) apply(cfg *config.Config) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.Dither.Exposure, f.Exposure)
	set(&cfg.Dither.Saturation, f.Saturation)
	set(&cfg.Dither.Strength, f.Strength)
	set(&cfg.Dither.ShadowBoost, f.ShadowBoost)
	set(&cfg.Dither.HighlightCompress, f.HighlightCompress)
	set(&cfg.Dither.Midpoint, f.Midpoint)
	set(&cfg.Display.Sharpen, f.Sharpen)
}

// loadConfig reads path, falling back to the defaults when it does not exist.
func loadConfig(path string, log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", path).Msg("no config file, using defaults")
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func renderSettings(cfg *config.Config) (render.Settings, error) {
	pals, err := cfg.Palettes()
	if err != nil {
		return render.Settings{}, err
	}
	return render.Settings{
		Size:      imaging.Size{Width: cfg.Display.Width, Height: cfg.Display.Height},
		Sharpen:   cfg.Display.Sharpen,
		Paletted:  cfg.Display.PalettedBMP,
		Processor: dither.Processor{Options: cfg.Dither, Palettes: pals},
	}, nil
}

type ServeCmd struct {
	DitherFlags

	Addr      string `help:"HTTP listen address, overrides server.addr and PORT."`
	AlbumURL  string `help:"Shared album link, overrides source.album_url and ALBUM_URL." name:"album-url"`
	LocalPath string `help:"Image file or directory, overrides source.local_path."`
	CachePath string `help:"Frame cache database, overrides cache.path." type:"path"`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	log, err := g.Logger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(g.Config, log)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	c.DitherFlags.apply(cfg)
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.AlbumURL != "" {
		cfg.Source.AlbumURL = c.AlbumURL
	}
	if c.LocalPath != "" {
		cfg.Source.LocalPath = c.LocalPath
	}
	if c.CachePath != "" {
		cfg.Cache.Path = c.CachePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	settings, err := renderSettings(cfg)
	if err != nil {
		return err
	}

	var opts []render.Option
	if cfg.Cache.Path != "" {
		frames, err := store.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer frames.Close()
		if n, err := frames.Len(ctx); err == nil {
			log.Info().Str("path", cfg.Cache.Path).Int("frames", n).Msg("frame cache opened")
		}
		opts = append(opts, render.WithStore(frames, cfg.Cache.MaxEntries))
	}

	renderer, err := render.New(settings, log, opts...)
	if err != nil {
		return err
	}

	src := source.New(source.Config{
		AlbumURL:     cfg.Source.AlbumURL,
		LocalPath:    cfg.Source.LocalPath,
		RefreshHours: cfg.Source.RefreshHours,
	}, log)
	if err := src.Initialize(ctx); err != nil {
		return err
	}
	go func() {
		if err := src.Run(ctx); err != nil {
			log.Error().Err(err).Msg("image refresh stopped")
		}
	}()

	log.Info().
		Str("version", Version).
		Int("width", settings.Size.Width).
		Int("height", settings.Size.Height).
		Str("options", settings.Processor.Options.Fingerprint()).
		Msg("epaper-frame starting")

	return web.New(src, renderer, log).ListenAndServe(ctx, cfg.Server.Addr)
}

type ConvertCmd struct {
	DitherFlags

	Input  string `arg:"" help:"Source photo." type:"existingfile"`
	Output string `arg:"" help:"Frame file to write; the extension picks the format (.bmp for the panel)." type:"path"`
}

func (c *ConvertCmd) Run(ctx context.Context, g *Globals) error {
	log, err := g.Logger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(g.Config, log)
	if err != nil {
		return err
	}
	c.DitherFlags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	settings, err := renderSettings(cfg)
	if err != nil {
		return err
	}
	renderer, err := render.New(settings, log)
	if err != nil {
		return err
	}

	start := time.Now()
	var inks [dither.PaletteSize]int
	if strings.EqualFold(filepath.Ext(c.Output), ".bmp") {
		frame, err := renderer.RenderFile(ctx, c.Input)
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.Output, frame.BMP, 0644); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
		inks = frame.Inks
	} else {
		img, err := imaging.NewImageCache().Load(c.Input)
		if err != nil {
			return err
		}
		frame, counts, err := renderer.Dither(img)
		if err != nil {
			return err
		}
		if err := imaging.Save(c.Output, frame); err != nil {
			return err
		}
		inks = counts
	}

	ev := log.Info().Str("input", c.Input).Str("output", c.Output).Dur("elapsed", time.Since(start))
	for i, n := range inks {
		if i != dither.ReservedIndex {
			ev = ev.Int(dither.InkName(i), n)
		}
	}
	ev.Msg("frame written")
	return nil
}

type InitConfigCmd struct {
	Force bool `help:"Overwrite an existing configuration file."`
}

// Run writes the default configuration to the --config path.
func (c *InitConfigCmd) Run(ctx context.Context, g *Globals) error {
	log, err := g.Logger()
	if err != nil {
		return err
	}
	if _, err := os.Stat(g.Config); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", g.Config)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := config.Save(g.Config, config.Default()); err != nil {
		return fmt.Errorf("failed to write %s: %w", g.Config, err)
	}
	log.Info().Str("path", g.Config).Msg("default configuration written")
	return nil
}

type MCPCmd struct{}

func (c *MCPCmd) Run(ctx context.Context, g *Globals) error {
	log, err := g.Logger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(g.Config, log)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	settings, err := renderSettings(cfg)
	if err != nil {
		return err
	}

	log.Debug().Str("version", Version).Str("commit", GitCommit).Msg("MCP server starting")
	return server.New(settings, Version, log).Run(ctx)
}
