package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/output"
	"github.com/sprite-ai/devpulse/internal/report"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	sanitizer *markdown.Sanitizer
}

func (h *toolHandler) handleNormalizeReport(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload := request.GetString("payload", "")
	if strings.TrimSpace(payload) == "" {
		return mcp.NewToolResultError("payload is required"), nil
	}

	r, err := report.Normalize([]byte(payload))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("normalization failed: %v", err)), nil
	}
	return jsonResult(output.NewDocument(r))
}

type classifyResponse struct {
	Scale string         `json:"scale"`
	Value float64        `json:"value"`
	Tier  classify.Tier  `json:"tier"`
	Label string         `json:"label"`
	Color classify.Color `json:"color"`
	Hex   string         `json:"hex"`
}

func (h *toolHandler) handleClassifyScore(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.ToLower(request.GetString("scale", ""))
	scale, err := classify.ParseScale(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var res classify.Result
	switch {
	case scale == classify.ScaleGrade:
		letter := request.GetString("grade", "")
		if letter == "" {
			return mcp.NewToolResultError("grade is required for the grade scale"), nil
		}
		res = classify.ClassifyGrade(model.ParseGrade(letter))
	case name == "risk":
		res = classify.ClassifyRisk(request.GetFloat("value", 0))
	default:
		res = classify.Classify(request.GetFloat("value", 0), scale)
	}

	return jsonResult(classifyResponse{
		Scale: name,
		Value: res.Value,
		Tier:  res.Tier,
		Label: res.Tier.Label(),
		Color: res.Color,
		Hex:   res.Color.Hex(),
	})
}

func (h *toolHandler) handleRenderNarrative(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := h.sanitizer.Narrative(request.GetString("text", ""))

	switch format := request.GetString("format", "html"); format {
	case "html":
		return mcp.NewToolResultText(markdown.HTML(n.Doc)), nil
	case "text":
		return mcp.NewToolResultText(markdown.PlainText(n.Doc)), nil
	case "tree":
		return jsonResult(n)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
