package filter

import "github.com/david/funding-gateway/internal/models"

// DefaultPageSize is the number of cards shown per page.
const DefaultPageSize = 12

// Page is one slice of a result list.
type Page struct {
	Items      []models.EnhancedOpportunity `json:"items"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"page_size"`
	Total      int                          `json:"total"`
	TotalPages int                          `json:"total_pages"`
}

// Paginate returns page (1-based) of list. The page is clamped into range
// and a non-positive pageSize uses DefaultPageSize.
func Paginate(list []models.EnhancedOpportunity, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(list)
	totalPages := (total + pageSize - 1) / pageSize

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]models.EnhancedOpportunity, end-start)
	copy(items, list[start:end])

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// View is the paging state a client carries between requests.
type View struct {
	FilterKey string
	Page      int
}

// Next returns the view for criteria c at the requested page. A change of
// criteria since the previous view resets paging to the first page.
func (v View) Next(c Criteria, page int) View {
	key := c.Key()
	if v.FilterKey != "" && v.FilterKey != key {
		page = 1
	}
	if page < 1 {
		page = 1
	}
	return View{FilterKey: key, Page: page}
}
