package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/client"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/output"
	"github.com/sprite-ai/devpulse/internal/report"
	"golang.org/x/term"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url>",
	Short: "Analyze a repository and print the report (non-interactive)",
	Long: `Request an analysis of a GitHub repository and print the normalized report.
Useful for CI and for piping into other tools.

Exit codes:
  0 - report printed
  1 - request failed, or health is below --fail-under`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Float64("fail-under", 0, "exit non-zero when the health score is below this value")
	analyzeCmd.Flags().Bool("no-history", false, "do not record the report in the local history")
	analyzeCmd.Flags().String("save-raw", "", "also write the raw service payload to this file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	repoURL, err := client.ValidateRepoURL(args[0])
	if err != nil {
		return err
	}

	raw, err := fetchWithProgress(cmd, "Analyzing "+repoURL, func(ctx context.Context) ([]byte, error) {
		return newClient().Analyze(ctx, repoURL)
	})
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", repoURL, err)
	}

	r, err := report.Normalize(raw)
	if err != nil {
		return err
	}
	if r.RepoURL == "" {
		r.RepoURL = repoURL
	}

	if path, _ := cmd.Flags().GetString("save-raw"); path != "" {
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("writing raw payload: %w", err)
		}
	}
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory && cfg.History {
		recordHistory(cmd, raw, r)
	}

	if err := output.Write(cmd.OutOrStdout(), cfg.Format, r); err != nil {
		return err
	}
	return checkFailUnder(cmd, r)
}

// recordHistory stores the payload. Failures are reported but do not fail the command.
func recordHistory(cmd *cobra.Command, raw []byte, r *model.Report) {
	store, err := openHistory()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history disabled: %v\n", err)
		return
	}
	defer store.Close()

	e, err := store.Save(cmd.Context(), raw, r)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not save history: %v\n", err)
		return
	}
	slog.Debug("report saved to history", "id", e.ID, "repo", e.RepoURL)
}

// checkFailUnder compares the clamped health score with --fail-under.
func checkFailUnder(cmd *cobra.Command, r *model.Report) error {
	threshold, _ := cmd.Flags().GetFloat64("fail-under")
	if threshold <= 0 {
		return nil
	}
	health := classify.Clamp(r.HealthScore, classify.ScaleHealth)
	if health < threshold {
		return fmt.Errorf("health score %.0f is below --fail-under %.0f", health, threshold)
	}
	return nil
}

// fetchWithProgress runs fetch while an indeterminate spinner runs on stderr. The spinner is only
// shown when stderr is a terminal.
func fetchWithProgress(cmd *cobra.Command, description string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !shouldShowProgress(cmd) {
		return fetch(ctx)
	}

	bar := newSpinner(description, cmd.ErrOrStderr())
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	raw, err := fetch(ctx)
	close(done)
	_ = bar.Finish()
	return raw, err
}

// shouldShowProgress returns true when stderr is an interactive terminal.
func shouldShowProgress(cmd *cobra.Command) bool {
	if errWriter, ok := cmd.ErrOrStderr().(*os.File); ok {
		return term.IsTerminal(int(errWriter.Fd()))
	}
	return false
}

func newSpinner(description string, writer io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetWriter(writer),
		progressbar.OptionClearOnFinish(),
	)
}
