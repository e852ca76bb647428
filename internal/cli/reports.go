package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/sprite-ai/devpulse/internal/client"
	"github.com/sprite-ai/devpulse/internal/output"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List reports stored by the analysis service",
	Args:  cobra.NoArgs,
	RunE:  runReports,
}

func runReports(cmd *cobra.Command, _ []string) error {
	var list []client.ReportSummary
	_, err := fetchWithProgress(cmd, "Listing reports", func(ctx context.Context) ([]byte, error) {
		var err error
		list, err = newClient().Reports(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}

	w := cmd.OutOrStdout()
	switch cfg.Format {
	case output.FormatJSON:
		return output.WriteJSON(w, list)
	case output.FormatYAML:
		return output.WriteYAML(w, list)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No reports found.")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{strconv.Itoa(r.ID), r.RepoURL, shortSHA(r.GitSHA), r.Timestamp})
	}
	return renderTable(w, []string{"ID", "Repository", "Commit", "Timestamp"}, rows)
}

func shortSHA(sha string) string {
	if len(sha) > 10 {
		return sha[:10]
	}
	return sha
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
