package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/funding-gateway/internal/catalog"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetch opportunities and print catalog statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	snap, err := fetchSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	st := catalog.ComputeStats(snap)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendRows([]table.Row{
		{"Branch", st.Branch},
		{"Opportunities", st.TotalOpportunities},
		{"AI enhanced", st.AIEnhancedCount},
		{"Avg relevance", st.AverageRelevanceScore},
		{"Avg quality", st.AverageQualityScore},
	})
	for _, th := range st.TopThemes {
		t.AppendRow(table.Row{"Theme: " + th.Theme, th.Count})
	}
	t.Render()

	a := table.NewWriter()
	a.SetOutputMirror(cmd.OutOrStdout())
	a.AppendHeader(table.Row{"Endpoint", "Outcome", "Records", "Duration", "Error"})
	for _, at := range st.PluginStatus {
		a.AppendRow(table.Row{at.Endpoint, at.Outcome, at.Records, at.Duration.Round(time.Millisecond), at.Err})
	}
	a.Render()
	return nil
}
