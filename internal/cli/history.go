package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List locally recorded reports, newest first",
	Long: `List the reports recorded by analyze and ui. Re-render one with
"devpulse show --history <id>".`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of entries (0 for all)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch cfg.Format {
	case output.FormatJSON:
		return output.WriteJSON(w, entries)
	case output.FormatYAML:
		return output.WriteYAML(w, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.RepoURL,
			e.Commit,
			strconv.FormatFloat(e.HealthScore, 'f', 0, 64),
			e.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable(w, []string{"ID", "Repository", "Commit", "Health", "Recorded"}, rows)
}
