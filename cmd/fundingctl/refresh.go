package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask a running server to refresh its catalog",
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().String("server", "http://localhost:8081", "gateway base URL")
	refreshCmd.Flags().Bool("wait", false, "wait for the refresh to finish")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	wait, _ := cmd.Flags().GetBool("wait")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	url := strings.TrimRight(server, "/") + "/api/v1/refresh"
	if wait {
		url += "?wait=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		var e map[string]string
		if json.Unmarshal(body, &e) == nil && e["error"] != "" {
			return fmt.Errorf("refresh failed (%s): %s", resp.Status, e["error"])
		}
		return fmt.Errorf("refresh failed: %s", resp.Status)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Response Status: %s\n%s\n", resp.Status, strings.TrimSpace(string(body)))
	return nil
}
