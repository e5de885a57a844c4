package ingest

import (
	"bytes"
	"embed"
	"fmt"
)

//go:embed config/mock_opportunities.json config/curated_eu.json config/foundation_grants.json
var fallbackFS embed.FS

// Static record sets compiled into the binary.
const (
	mockDataFile         = "config/mock_opportunities.json"
	curatedEUFile        = "config/curated_eu.json"
	foundationGrantsFile = "config/foundation_grants.json"
)

func loadStatic(name string) ([]Record, error) {
	data, err := fallbackFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	records, err := DecodeRecords(bytes.NewReader(data), "")
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return records, nil
}

// MockRecords returns the demo dataset in canonical camelCase shape.
func MockRecords() ([]Record, error) { return loadStatic(mockDataFile) }

// CuratedEURecords returns the hand-maintained EU calls substituted when the
// enhanced endpoints answer with policy-page boilerplate.
func CuratedEURecords() ([]Record, error) { return loadStatic(curatedEUFile) }

// FoundationGrantRecords returns private foundation grants appended to every
// result when foundation grants are enabled.
func FoundationGrantRecords() ([]Record, error) { return loadStatic(foundationGrantsFile) }
