// Package mcp exposes the report normalizer, the score classifier and the narrative sanitizer as
// Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sprite-ai/devpulse/internal/markdown"
)

// NewMCPServer builds the server without starting it.
func NewMCPServer(version string, sanitizer *markdown.Sanitizer) *server.MCPServer {
	s := server.NewMCPServer(
		"DevPulse Report Server",
		version,
		server.WithLogging(),
	)

	if sanitizer == nil {
		sanitizer = markdown.Default()
	}
	h := &toolHandler{sanitizer: sanitizer}

	s.AddTool(mcp.NewTool("normalize_report",
		mcp.WithDescription("Normalize a raw DevPulse analysis payload into the canonical report with score classifications and the complexity chart series."),
		mcp.WithString("payload", mcp.Description("The raw JSON payload returned by the analysis service."), mcp.Required()),
	), h.handleNormalizeReport)

	s.AddTool(mcp.NewTool("classify_score",
		mcp.WithDescription("Classify a score into its tier and color. Risk uses the probability bands with inverted colors."),
		mcp.WithString("scale", mcp.Description("Scale of the value."), mcp.Required(), mcp.Enum("health", "probability", "risk", "lint", "grade")),
		mcp.WithNumber("value", mcp.Description("Numeric score (health 0-100, probability/risk 0-1, lint 0-10).")),
		mcp.WithString("grade", mcp.Description("Complexity grade letter A-F, for the grade scale.")),
	), h.handleClassifyScore)

	s.AddTool(mcp.NewTool("render_narrative",
		mcp.WithDescription("Sanitize an AI narrative written in markdown and render it safely."),
		mcp.WithString("text", mcp.Description("Markdown narrative text."), mcp.Required()),
		mcp.WithString("format", mcp.Description("Rendering: html, text or tree. Defaults to html."), mcp.Enum("html", "text", "tree")),
	), h.handleRenderNarrative)

	return s
}

// StartMCPServer serves the tools on stdin/stdout until the client disconnects.
func StartMCPServer(_ context.Context, version string, sanitizer *markdown.Sanitizer) error {
	return server.ServeStdio(NewMCPServer(version, sanitizer))
}
