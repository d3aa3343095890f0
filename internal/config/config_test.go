package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/epaper-frame/internal/dither"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 800, c.Display.Width)
	assert.Equal(t, 480, c.Display.Height)
	assert.False(t, c.Display.PalettedBMP)
	assert.Equal(t, dither.DefaultOptions(), c.Dither)
	assert.Equal(t, 24.0, c.Source.RefreshHours)

	pals, err := c.Palettes()
	require.NoError(t, err)
	assert.Equal(t, dither.Spectra6(), pals)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: "127.0.0.1:9000"
dither:
  saturation: 1.2
  shadow_boost: 0.3
display:
  paletted_bmp: true
source:
  album_url: https://photos.app.goo.gl/abc
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, 1.2, c.Dither.Saturation)
	assert.Equal(t, 0.3, c.Dither.ShadowBoost)
	assert.Equal(t, 0.9, c.Dither.Strength, "unset keys keep their defaults")
	assert.Equal(t, 800, c.Display.Width)
	assert.True(t, c.Display.PalettedBMP)
	assert.Equal(t, "https://photos.app.goo.gl/abc", c.Source.AlbumURL)
	require.NoError(t, c.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.yaml")
	want := Default()
	want.Display.Sharpen = 0.8
	want.Palette.Measured[dither.InkRed] = "#801000"
	want.Cache.Path = "/var/cache/frames.db"

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	pals, err := got.Palettes()
	require.NoError(t, err)
	assert.Equal(t, dither.RGB{R: 0x80, G: 0x10, B: 0x00}, pals.Measured[dither.InkRed])
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name string
		addr string
		env  map[string]string
		want string
	}{
		{"no override", ":8080", nil, ":8080"},
		{"port only", ":8080", map[string]string{"PORT": "3000"}, ":3000"},
		{"keeps host", "127.0.0.1:8080", map[string]string{"PORT": "9090"}, "127.0.0.1:9090"},
		{"bare host", "localhost", map[string]string{"PORT": "81"}, ":81"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Server.Addr = tt.addr
			require.NoError(t, c.ApplyEnv(env(tt.env)))
			assert.Equal(t, tt.want, c.Server.Addr)
		})
	}

	c := Default()
	require.NoError(t, c.ApplyEnv(env(map[string]string{"ALBUM_URL": "https://photos.google.com/share/x"})))
	assert.Equal(t, "https://photos.google.com/share/x", c.Source.AlbumURL)

	err := Default().ApplyEnv(env(map[string]string{"PORT": "http"}))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero width", func(c *Config) { c.Display.Width = 0 }, "display size"},
		{"portrait display", func(c *Config) { c.Display.Width, c.Display.Height = 480, 800 }, "landscape"},
		{"negative sharpen", func(c *Config) { c.Display.Sharpen = -1 }, "sharpen"},
		{"bad midpoint", func(c *Config) { c.Dither.Midpoint = 1.5 }, "midpoint"},
		{"short palette", func(c *Config) { c.Palette.Measured = c.Palette.Measured[:6] }, "palette.measured needs 7"},
		{"bad hex", func(c *Config) { c.Palette.Theoretical[2] = "yellow!" }, "palette.theoretical[2]"},
		{"five digit hex", func(c *Config) { c.Palette.Theoretical[2] = "#12345" }, "palette.theoretical[2]"},
		{"duplicate ink", func(c *Config) { c.Palette.Measured[dither.InkGreen] = c.Palette.Measured[dither.InkBlue] }, "share color"},
		{"negative refresh", func(c *Config) { c.Source.RefreshHours = -2 }, "refresh_hours"},
		{"negative cache size", func(c *Config) { c.Cache.MaxEntries = -1 }, "max_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPalettes_ShortHex(t *testing.T) {
	c := Default()
	c.Palette.Theoretical[dither.InkWhite] = "#fff"

	pals, err := c.Palettes()
	require.NoError(t, err)
	assert.Equal(t, dither.RGB{R: 255, G: 255, B: 255}, pals.Theoretical[dither.InkWhite])
}
