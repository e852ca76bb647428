// Package cli implements the devpulse command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sprite-ai/devpulse/internal/client"
	"github.com/sprite-ai/devpulse/internal/config"
	"github.com/sprite-ai/devpulse/internal/history"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/output"
)

// cfg holds the resolved configuration of the running command.
var cfg = &config.Config{}

// logFile is the open log-file, closed when Execute returns.
var logFile *os.File

var rootCmd = &cobra.Command{
	Use:   "devpulse",
	Short: "Repository health reports from the DevPulse analysis service",
	Long: `devpulse requests code-quality analyses of GitHub repositories and presents the
reports: health score, AI-authorship and historical risk, lint, complexity and
line counts, plus the AI narrative.

Run "devpulse ui" for the interactive view or "devpulse analyze <repo-url>" for
scriptable output.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .devpulse.yaml in . or $HOME)")
	pf.String("service-url", config.DefaultServiceURL, "base URL of the analysis service")
	pf.Duration("timeout", config.DefaultTimeout, "request timeout (0 for none)")
	pf.StringP("format", "f", string(output.FormatText), "output format: text, json, yaml, markdown, html")
	pf.String("color", config.ColorAuto, "color output: auto, always, never")
	pf.String("code-theme", markdown.DefaultTheme, "syntax highlighting style for code in narratives")
	pf.String("history-db", "", "path of the local history database")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.String("log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(analyzeCmd, uiCmd, showCmd, reportsCmd, historyCmd, serveCmd, mcpCmd, versionCmd)
}

// configKeys are the persistent flags that override config file and environment values.
var configKeys = []string{"service-url", "timeout", "format", "color", "code-theme", "history-db", "log-level", "log-file"}

// setup resolves the configuration and installs logging for every command.
func setup(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	configFile, _ := cmd.Flags().GetString("config")
	config.Setup(v, configFile)
	for _, key := range configKeys {
		if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding flag %s: %w", key, err)
			}
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	switch cfg.Color {
	case config.ColorAlways:
		color.NoColor = false
	case config.ColorNever:
		color.NoColor = true
	}

	return setupLogging(cmd.ErrOrStderr(), cmd.Name() == "ui")
}

// setupLogging installs the default slog logger. The interactive UI owns the terminal, so its
// logs are discarded unless a log file is configured.
func setupLogging(stderr io.Writer, interactive bool) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	w := stderr
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logFile = f
		w = f
	case interactive:
		w = io.Discard
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// newClient builds the service client from the configuration.
func newClient() *client.Client {
	return client.New(cfg.ServiceURL, client.WithTimeout(cfg.Timeout))
}

// openHistory opens the history database.
func openHistory() (*history.Store, error) {
	return history.Open(cfg.HistoryDB)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if logFile != nil {
			_ = logFile.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}
