package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/epaper-frame/internal/dither"
	"github.com/ironsheep/epaper-frame/internal/imaging"
	"github.com/ironsheep/epaper-frame/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "frame_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool done")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": indentJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dominant_colors":
		return s.handleImageDominantColors(args)
	case "frame_render":
		return s.handleFrameRender(ctx, args)
	case "palette_info":
		return s.handlePaletteInfo()
	case "frame_options":
		return s.handleFrameOptions()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// indentJSON returns v as two-space indented JSON, or an empty string if v
// cannot be marshaled.
func indentJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Source Inspection Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	*imaging.ImageInfo
	Histogram *imaging.HistogramSummary `json:"histogram"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return &imageLoadResult{ImageInfo: info, Histogram: imaging.Histogram(img)}, nil
}

type imageDominantColorsArgs struct {
	Path   string `json:"path"`
	Count  int    `json:"count"`
	Region *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region"`
}

func (s *Server) handleImageDominantColors(args json.RawMessage) (interface{}, error) {
	var a imageDominantColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var region *imaging.Region
	if a.Region != nil {
		region = &imaging.Region{X1: a.Region.X1, Y1: a.Region.Y1, X2: a.Region.X2, Y2: a.Region.Y2}
	}
	return imaging.DominantColors(img, a.Count, region)
}

// === Rendering Handlers ===

type frameRenderArgs struct {
	Path              string   `json:"path"`
	Format            string   `json:"format"`
	Exposure          *float64 `json:"exposure"`
	Saturation        *float64 `json:"saturation"`
	Strength          *float64 `json:"strength"`
	ShadowBoost       *float64 `json:"shadow_boost"`
	HighlightCompress *float64 `json:"highlight_compress"`
	Midpoint          *float64 `json:"midpoint"`
	Sharpen           *float64 `json:"sharpen"`
}

// settings applies the overrides present in a to base.
func (a *frameRenderArgs) settings(base render.Settings) render.Settings {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	opts := &base.Processor.Options
	set(&opts.Exposure, a.Exposure)
	set(&opts.Saturation, a.Saturation)
	set(&opts.Strength, a.Strength)
	set(&opts.ShadowBoost, a.ShadowBoost)
	set(&opts.HighlightCompress, a.HighlightCompress)
	set(&opts.Midpoint, a.Midpoint)
	set(&base.Sharpen, a.Sharpen)
	return base
}

// InkUsage is the share of frame pixels printed with one ink.
type InkUsage struct {
	Ink        string  `json:"ink"`
	Hex        string  `json:"hex"`
	Pixels     int     `json:"pixels"`
	Percentage float64 `json:"percentage"`
}

// FrameRenderResult is the frame_render tool output.
type FrameRenderResult struct {
	*imaging.EncodedImage
	Options   dither.Options `json:"options"`
	Sharpen   float64        `json:"sharpen"`
	Inks      []InkUsage     `json:"inks"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

func (s *Server) handleFrameRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = imaging.FormatBMP
	}

	settings := a.settings(s.settings)
	r, err := render.New(settings, s.log)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	frame, counts, err := r.Dither(img)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.Encode(frame, a.Format)
	if err != nil {
		return nil, err
	}

	return &FrameRenderResult{
		EncodedImage: encoded,
		Options:      settings.Processor.Options,
		Sharpen:      settings.Sharpen,
		Inks:         inkUsage(counts, settings.Processor.Palettes.Theoretical),
		ElapsedMS:    time.Since(start).Milliseconds(),
	}, nil
}

func inkUsage(counts [dither.PaletteSize]int, pal dither.Palette) []InkUsage {
	total := 0
	for _, n := range counts {
		total += n
	}

	usage := make([]InkUsage, 0, dither.PaletteSize-1)
	for i, n := range counts {
		if i == dither.ReservedIndex {
			continue
		}
		u := InkUsage{Ink: dither.InkName(i), Hex: pal[i].Hex(), Pixels: n}
		if total > 0 {
			u.Percentage = float64(n) * 100 / float64(total)
		}
		usage = append(usage, u)
	}
	return usage
}

// === Configuration Handlers ===

// InkInfo describes one palette slot.
type InkInfo struct {
	Index       int     `json:"index"`
	Ink         string  `json:"ink"`
	Measured    string  `json:"measured"`
	Theoretical string  `json:"theoretical"`
	DeltaE      float64 `json:"delta_e"`
	Reserved    bool    `json:"reserved,omitempty"`
}

func (s *Server) handlePaletteInfo() (interface{}, error) {
	pals := s.settings.Processor.Palettes

	inks := make([]InkInfo, dither.PaletteSize)
	for i := range inks {
		m, t := pals.Measured[i], pals.Theoretical[i]
		mc, _ := colorful.MakeColor(m)
		tc, _ := colorful.MakeColor(t)
		inks[i] = InkInfo{
			Index:       i,
			Ink:         dither.InkName(i),
			Measured:    m.Hex(),
			Theoretical: t.Hex(),
			DeltaE:      mc.DistanceCIEDE2000(tc),
			Reserved:    i == dither.ReservedIndex,
		}
	}
	return map[string]interface{}{"inks": inks}, nil
}

func (s *Server) handleFrameOptions() (interface{}, error) {
	return map[string]interface{}{
		"width":   s.settings.Size.Width,
		"height":  s.settings.Size.Height,
		"sharpen": s.settings.Sharpen,
		"options": s.settings.Processor.Options,
	}, nil
}
