package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoilerplateClassifier(t *testing.T) {
	c := NewBoilerplateClassifier()

	tests := []struct {
		name    string
		records []Record
		want    bool
	}{
		{"empty response", nil, false},
		{"real calls", []Record{
			{"title": "Support to Sahel resilience", "budget": 5000000.0},
			{"title": "Digital skills in Kenya", "amount": "€2M"},
		}, false},
		{"policy pages", []Record{
			{"title": "Calls for proposals | European Commission", "budget": 1.0},
			{"title": "International Partnerships", "budget": 1.0},
			{"title": "Support to Sahel resilience", "budget": 5000000.0},
		}, true},
		{"no amounts anywhere", []Record{
			{"title": "Support to Sahel resilience", "budget": "Not found"},
			{"title": "Digital skills in Kenya"},
		}, true},
		{"boilerplate words inside a real title", []Record{
			{"title": "Global Europe call for Sahel resilience", "budget": 5000000.0},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsPlaceholderContent(tt.records))
		})
	}
}
