package cli

import (
	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the DevPulse MCP server on stdio",
	Long: `Launch an MCP server that lets AI agents normalize report payloads, classify
scores and render narratives. stdout carries the protocol; logs go to stderr
or --log-file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(cmd.Context(), version, markdown.New(cfg.CodeTheme))
	},
}
