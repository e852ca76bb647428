package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/output"
	"github.com/sprite-ai/devpulse/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show [file|-]",
	Short: "Render a saved or remote report",
	Long: `Render a report payload without requesting a new analysis. The payload comes
from exactly one source: a file (or - for stdin), a report id on the analysis
service, or an entry of the local history.

Examples:
  devpulse show report.json
  curl -s $SERVICE/reports/4 | devpulse show -
  devpulse show --id 4 --format markdown
  devpulse show --history 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Int("id", 0, "report id on the analysis service")
	showCmd.Flags().Int64("history", 0, "local history entry id")
	showCmd.Flags().Float64("fail-under", 0, "exit non-zero when the health score is below this value")
}

func runShow(cmd *cobra.Command, args []string) error {
	raw, err := loadPayload(cmd, args)
	if err != nil {
		return err
	}

	r, err := report.Normalize(raw)
	if err != nil {
		return err
	}
	if err := output.Write(cmd.OutOrStdout(), cfg.Format, r); err != nil {
		return err
	}
	return checkFailUnder(cmd, r)
}

func loadPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	id, _ := cmd.Flags().GetInt("id")
	entry, _ := cmd.Flags().GetInt64("history")

	sources := 0
	if len(args) == 1 {
		sources++
	}
	if id > 0 {
		sources++
	}
	if entry > 0 {
		sources++
	}
	if sources != 1 {
		return nil, fmt.Errorf("specify exactly one of a file, --id or --history")
	}

	switch {
	case id > 0:
		return fetchWithProgress(cmd, fmt.Sprintf("Fetching report %d", id), func(ctx context.Context) ([]byte, error) {
			return newClient().Report(ctx, id)
		})
	case entry > 0:
		store, err := openHistory()
		if err != nil {
			return nil, err
		}
		defer store.Close()
		e, err := store.Get(cmd.Context(), entry)
		if err != nil {
			return nil, err
		}
		return e.Payload, nil
	case args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading report: %w", err)
		}
		return data, nil
	}
}
