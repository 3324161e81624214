package store

// OffsetPage is the envelope for offset+limit listings.
// Page is derived as skip/limit + 1 (integer division).
type OffsetPage struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func NewOffsetPage(items interface{}, total int64, skip, limit int) *OffsetPage {
	if limit < 1 {
		limit = 1
	}
	return &OffsetPage{
		Items:    items,
		Total:    total,
		Page:     skip/limit + 1,
		PageSize: limit,
	}
}
