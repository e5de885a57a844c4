package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityFilter_IsAcceptable(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		raw       Record
		want      bool
	}{
		{"empty record", 0.9, Record{}, false},
		{"all placeholders", 0.9, Record{"title": "Not found", "country": "dummy data"}, false},
		{"one real field of two", 0.9, Record{"title": "Call", "country": "Not specified"}, true},
		{"one real field of two under strict threshold", 0.4, Record{"title": "Call", "country": "Not specified"}, false},
		{"nested values count as data", 0.5, Record{"title": nil, "documents": []any{}}, true},
		{"whitespace is a placeholder", 0.9, Record{"title": "   ", "summary": ""}, false},
		{"invalid threshold uses default", 0, Record{"title": "Call"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QualityFilter{Threshold: tt.threshold}.IsAcceptable(tt.raw))
		})
	}
}

func TestPlaceholderRatio(t *testing.T) {
	assert.Equal(t, 1.0, PlaceholderRatio(Record{}))
	assert.Equal(t, 0.5, PlaceholderRatio(Record{"a": "N/A", "b": "real"}))
	assert.Equal(t, 0.0, PlaceholderRatio(Record{"a": 12.0, "b": true}))
}

func TestNewQualityFilter_ClampsThreshold(t *testing.T) {
	assert.Equal(t, DefaultQualityThreshold, NewQualityFilter(-1).Threshold)
	assert.Equal(t, DefaultQualityThreshold, NewQualityFilter(1.5).Threshold)
	assert.Equal(t, 0.6, NewQualityFilter(0.6).Threshold)
}
