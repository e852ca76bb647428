package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/history"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui [repo-url]",
	Short: "Open the interactive report viewer",
	Long: `Open an interactive terminal UI. Enter a GitHub repository URL to request an
analysis, then browse the scorecard, the complexity, line count and lint tabs,
and the AI summary.

Examples:
  devpulse ui
  devpulse ui https://github.com/owner/repo    # submit immediately`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	opts := tui.Options{Theme: cfg.CodeTheme}
	if len(args) == 1 {
		opts.RepoURL = args[0]
	}

	if cfg.History {
		store, err := openHistory()
		if err != nil {
			slog.Warn("history disabled", "err", err)
		} else {
			defer store.Close()
			opts.OnResult = saveResult(cmd, store)
		}
	}

	return tui.Run(cmd.Context(), newClient(), opts)
}

func saveResult(cmd *cobra.Command, store *history.Store) func(string, []byte, *model.Report) {
	return func(repoURL string, raw []byte, r *model.Report) {
		if _, err := store.Save(cmd.Context(), raw, r); err != nil {
			slog.Warn("could not save history", "repo", repoURL, "err", err)
		}
	}
}
