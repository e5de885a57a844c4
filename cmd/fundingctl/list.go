package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/funding-gateway/internal/filter"
	"github.com/david/funding-gateway/internal/ingest"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Fetch opportunities and print them as a table",
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("q", "", "free-text search")
	listCmd.Flags().String("country", "", "country filter")
	listCmd.Flags().String("status", "", "status filter (open, upcoming, closed)")
	listCmd.Flags().Int("min-relevance", 0, "minimum relevance score")
	listCmd.Flags().Int("limit", 20, "maximum rows to print")
}

func runList(cmd *cobra.Command, args []string) error {
	q, _ := cmd.Flags().GetString("q")
	country, _ := cmd.Flags().GetString("country")
	status, _ := cmd.Flags().GetString("status")
	minRelevance, _ := cmd.Flags().GetInt("min-relevance")
	limit, _ := cmd.Flags().GetInt("limit")

	snap, err := fetchSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	results := filter.Sort(filter.Apply(snap.Opportunities, filter.Criteria{
		Query:        q,
		Country:      country,
		Status:       status,
		MinRelevance: minRelevance,
	}))
	page := filter.Paginate(results, 1, limit)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Title", "Country", "Status", "Amount", "Deadline", "Relevance"})
	for _, o := range page.Items {
		relevance := "-"
		if o.HasRelevanceScore() {
			relevance = fmt.Sprint(o.RelevanceScore())
		}
		t.AppendRow(table.Row{o.ID, ingest.TruncateText(o.Title, 50), o.Country, o.Status, o.FundingAmount, o.Deadline, relevance})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d (%s)", len(page.Items), page.Total, snap.Branch)})
	t.Render()
	return nil
}
