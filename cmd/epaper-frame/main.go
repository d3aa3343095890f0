// Command epaper-frame serves photos to a six-ink e-paper frame.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `help:"Path to the YAML configuration file." short:"c" default:"epaper-frame.yaml" type:"path"`
	LogLevel  string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"info" env:"EPAPER_FRAME_LOG_LEVEL"`
	LogFormat string `help:"Log output format (${enum})." enum:"console,json" default:"console"`
}

// Logger builds the root logger. Logs always go to stderr; stdout belongs to
// the MCP protocol.
func (g *Globals) Logger() (zerolog.Logger, error) {
	return newLogger(os.Stderr, g.LogLevel, g.LogFormat)
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

type CLI struct {
	Globals

	Serve      ServeCmd      `cmd:"" default:"withargs" help:"Serve frames over HTTP (default)."`
	Convert    ConvertCmd    `cmd:"" help:"Render a single photo to a frame file."`
	MCP        MCPCmd        `cmd:"" name:"mcp" help:"Run the MCP tuning server on stdio."`
	InitConfig InitConfigCmd `cmd:"" name:"init-config" help:"Write the default configuration file."`
	Version    VersionCmd    `cmd:"" help:"Print version information."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("epaper-frame"),
		kong.Description("Photo frame server for six-ink e-paper displays."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	kctx.FatalIfErrorf(kctx.Run(&cli.Globals))
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("epaper-frame %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	return nil
}
