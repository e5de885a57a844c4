package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/david/funding-gateway/internal/models"
)

func numbered(n int) []models.EnhancedOpportunity {
	out := make([]models.EnhancedOpportunity, n)
	for i := range out {
		out[i] = opp(fmt.Sprint(i+1), fmt.Sprintf("Call %02d", i+1), nil)
	}
	return out
}

func TestPaginate(t *testing.T) {
	list := numbered(30)

	tests := []struct {
		name      string
		page      int
		pageSize  int
		wantPage  int
		wantFirst string
		wantLen   int
	}{
		{"default page size", 1, 0, 1, "1", 12},
		{"last partial page", 3, 12, 3, "25", 6},
		{"clamped above", 9, 12, 3, "25", 6},
		{"clamped below", -2, 10, 1, "1", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(list, tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, 30, p.Total)
			assert.Len(t, p.Items, tt.wantLen)
			assert.Equal(t, tt.wantFirst, p.Items[0].ID)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(nil, 3, 12)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}

func TestView_ResetsPageWhenCriteriaChange(t *testing.T) {
	kenya := Criteria{Country: "Kenya"}

	v := View{}.Next(kenya, 3)
	assert.Equal(t, 3, v.Page)

	v = v.Next(kenya, 4)
	assert.Equal(t, 4, v.Page)

	v = v.Next(Criteria{Country: "Mali"}, 4)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, Criteria{Country: "Mali"}.Key(), v.FilterKey)
}
