// Package server implements the MCP (Model Context Protocol) server for tuning
// e-paper frames.
//
// It exposes the frame renderer to MCP clients so that an assistant can load a
// photo, inspect its colors, render it with different dither options and look
// at the result, without a panel or the HTTP service.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to the zerolog logger passed to New, which must not write to stdout.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: metadata and per-channel histogram summary of a photo
//   - image_dominant_colors: median-cut palette of a photo or region
//   - frame_render: render a photo as a frame, optionally overriding dither
//     options, returned as base64 BMP or PNG with per-ink pixel shares
//   - palette_info: measured and theoretical inks with their CIEDE2000 distance
//   - frame_options: the render settings tools start from
//
// # Image Caching
//
// Decoded photos are cached by path for the lifetime of the server, so
// rendering the same photo with several option sets decodes it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: the Go error string
package server
