package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the configured source endpoints and listing pages",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetTitle("Endpoints")
	t.AppendHeader(table.Row{"ID", "Role", "Priority", "Method", "Kind", "URL"})
	for _, e := range reg.Endpoints {
		t.AppendRow(table.Row{e.ID, e.Role, e.Priority, e.Method, e.Kind, e.URL})
	}
	t.Render()

	if len(reg.Listings) == 0 {
		return nil
	}
	l := table.NewWriter()
	l.SetOutputMirror(cmd.OutOrStdout())
	l.SetTitle("Listings")
	l.AppendHeader(table.Row{"ID", "Name", "Enabled", "URL"})
	for _, s := range reg.Listings {
		l.AppendRow(table.Row{s.ID, s.Name, s.Enabled, s.URL})
	}
	l.Render()
	return nil
}
