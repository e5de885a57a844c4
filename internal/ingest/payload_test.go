package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		payloadKey string
		wantTitles []string
		wantErr    bool
	}{
		{"bare array", `[{"title":"A"},{"title":"B"},42]`, "", []string{"A", "B"}, false},
		{"success envelope", `{"status":"success","opportunities":[{"title":"A"}]}`, "", []string{"A"}, false},
		{"payload key", `{"enhanced_opportunities":[{"title":"A"}],"count":1}`, "enhanced_opportunities", []string{"A"}, false},
		{"payload key missing", `{"count":0}`, "results", nil, false},
		{"empty results", `{"results":[]}`, "results", nil, false},
		{"single object", `{"title":"Only one","country":"Togo"}`, "", []string{"Only one"}, false},
		{"error envelope", `{"status":"error","message":"backend down"}`, "", nil, false},
		{"untitled object without key", `{"country":"Togo"}`, "", []string{""}, false},
		{"malformed", `{"title":`, "", nil, true},
		{"scalar", `"hello"`, "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeRecords(strings.NewReader(tt.body), tt.payloadKey)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPayload))
				return
			}
			require.NoError(t, err)

			var titles []string
			for _, r := range records {
				title, _ := r["title"].(string)
				titles = append(titles, title)
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}
}

func TestHasRecentData(t *testing.T) {
	now := time.Date(2026, 2, 12, 12, 0, 0, 0, time.UTC)

	fresh := `{"last_run":"2026-02-12T11:30:00Z"}`
	stale := `{"last_run":"2026-02-12T09:00:00Z"}`
	altKey := `{"last_run_at":"2026-02-12T11:59:00Z"}`

	assert.True(t, hasRecentData(strings.NewReader(fresh), now, time.Hour))
	assert.False(t, hasRecentData(strings.NewReader(stale), now, time.Hour))
	assert.True(t, hasRecentData(strings.NewReader(altKey), now, time.Hour))
	assert.False(t, hasRecentData(strings.NewReader(`{}`), now, time.Hour))
	assert.False(t, hasRecentData(strings.NewReader(`{"last_run":"yesterday"}`), now, time.Hour))
	assert.False(t, hasRecentData(strings.NewReader(`<html>`), now, time.Hour))
}
