package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrInvalidPayload marks a response body that does not contain opportunity
// records in any known shape.
var ErrInvalidPayload = errors.New("invalid payload")

const maxPayloadBytes = 20 << 20

// DecodeRecords extracts opportunity records from a response body. Accepted
// shapes are {status:"success", opportunities:[...]}, an object holding the
// records under payloadKey, a bare array, or a single record object.
func DecodeRecords(r io.Reader, payloadKey string) ([]Record, error) {
	var raw any
	dec := json.NewDecoder(io.LimitReader(r, maxPayloadBytes))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch v := raw.(type) {
	case []any:
		return recordsFromList(v), nil
	case map[string]any:
		if payloadKey != "" {
			if list, ok := v[payloadKey].([]any); ok {
				return recordsFromList(list), nil
			}
		}
		if list, ok := v["opportunities"].([]any); ok {
			return recordsFromList(list), nil
		}
		if _, ok := v["title"]; ok {
			return []Record{Record(v)}, nil
		}
		// an envelope without records is an empty result, not a record
		if _, ok := v["status"]; ok {
			return nil, nil
		}
		if payloadKey == "" {
			return []Record{Record(v)}, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unexpected JSON %T", ErrInvalidPayload, raw)
}

func recordsFromList(list []any) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// automationStatus is the response of the ingestion status endpoint.
type automationStatus struct {
	LastRun   string `json:"last_run"`
	LastRunAt string `json:"last_run_at"`
}

// hasRecentData reports whether the backend ran within window of now.
func hasRecentData(r io.Reader, now time.Time, window time.Duration) bool {
	var st automationStatus
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&st); err != nil {
		return false
	}
	last := st.LastRun
	if last == "" {
		last = st.LastRunAt
	}
	if last == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, last)
	if err != nil {
		return false
	}
	return now.Sub(t) < window
}
