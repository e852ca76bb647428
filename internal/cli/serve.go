package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/api"
	"github.com/sprite-ai/devpulse/internal/markdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the report normalizer and the view session.

Endpoints:
  GET  /health          Health check
  POST /api/normalize   Normalize a raw service payload
  POST /api/render      Sanitize and render a markdown narrative
  GET  /api/ws          WebSocket session (submit, dismiss, select_tab, toggle_narrative)

Browser pages may open the websocket only from the server's own origin unless
listed with --allow-origin.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 6142, "port to listen on")
	serveCmd.Flags().StringSlice("allow-origin", nil, "extra origins allowed to open the websocket (\"*\" for any)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")
	origins, _ := cmd.Flags().GetStringSlice("allow-origin")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listen := fmt.Sprintf("%s:%d", addr, port)
	srv := api.New(listen,
		api.WithAnalyzer(newClient()),
		api.WithSanitizer(markdown.New(cfg.CodeTheme)),
		api.WithLogger(slog.Default()),
		api.WithAllowedOrigins(origins...),
	)
	return srv.ListenAndServe(ctx)
}
