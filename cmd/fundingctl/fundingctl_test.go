package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("MOCK_DELAY", "0s")
	useMock, sourcesFile = false, ""
	listCmd.Flags().Set("country", "")
	listCmd.Flags().Set("limit", "20")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestSources(t *testing.T) {
	out := execute(t, "sources")
	assert.Contains(t, out, "enhanced_ai")
	assert.Contains(t, out, "enhanced")
}

func TestList_Mock(t *testing.T) {
	out := execute(t, "list", "--mock", "--country", "Kenya")
	assert.Contains(t, out, "Rural Kenya")
	assert.Contains(t, out, "Climate-Smart")
}

func TestStats_Mock(t *testing.T) {
	out := execute(t, "stats", "--mock")
	assert.Contains(t, out, "Opportunities")
	assert.Contains(t, out, "mock")
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/refresh", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"run_id":"job-1","status":"running"}`))
	}))
	defer srv.Close()

	out := execute(t, "refresh", "--server", srv.URL)
	assert.Contains(t, out, "202")
	assert.Contains(t, out, "job-1")
}

func TestRefresh_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"no source"}`))
	}))
	defer srv.Close()

	t.Setenv("MOCK_DELAY", "0s")
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"refresh", "--server", srv.URL, "--wait"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source")
	refreshCmd.Flags().Set("wait", "false")
}
