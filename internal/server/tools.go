package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func numberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Source inspection
		{
			Name:        "image_load",
			Description: "Load a photo and return its dimensions, format, orientation and a per-channel histogram summary (mean, min, max and clipped pixel shares).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dominant_colors",
			Description: "Analyze a photo and return the N most dominant colors using median-cut quantization.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of dominant colors to return (default 5)",
						"default":     5,
					},
					"region": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"description": "Optional region to analyze. If omitted, analyzes entire image.",
					},
				},
				"required": []string{"path"},
			},
		},

		// Rendering
		{
			Name:        "frame_render",
			Description: "Render a photo as an e-paper frame: crop to the panel size, adjust, and dither to the six inks. Options left out use the server defaults. Returns the frame as base64 BMP or PNG and the share of pixels printed with each ink.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"bmp", "png"},
						"description": "Output encoding (default bmp, the panel format)",
						"default":     "bmp",
					},
					"exposure":           numberProperty("Brightness multiplier; 1.0 leaves pixels untouched"),
					"saturation":         numberProperty("HSL saturation multiplier; 1.0 leaves pixels untouched"),
					"strength":           numberProperty("S-curve strength; 0 disables tone mapping"),
					"shadow_boost":       numberProperty("Lifts dark tones"),
					"highlight_compress": numberProperty("Compresses bright tones"),
					"midpoint":           numberProperty("Shadow/highlight split, in (0,1)"),
					"sharpen":            numberProperty("Unsharp mask amount applied after resizing; 0 disables it"),
				},
				"required": []string{"path"},
			},
		},

		// Configuration
		{
			Name:        "palette_info",
			Description: "List the panel inks with their measured (as displayed) and theoretical (as encoded) colors and the CIEDE2000 distance between the two.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "frame_options",
			Description: "Return the frame size, sharpening and dither options that frame_render uses by default.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
