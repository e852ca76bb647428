package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/output"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versionInfo{Version: version, Commit: commit, Built: date}
		w := cmd.OutOrStdout()
		switch cfg.Format {
		case output.FormatJSON:
			return output.WriteJSON(w, info)
		case output.FormatYAML:
			return output.WriteYAML(w, info)
		}
		_, err := fmt.Fprintf(w, "devpulse %s (commit %s, built %s)\n", info.Version, info.Commit, info.Built)
		return err
	},
}
