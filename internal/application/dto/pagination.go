package dto

// PaginationResponse represents pagination metadata.
type PaginationResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewPaginationResponse fills HasMore from the page window and total.
func NewPaginationResponse(limit, offset, total int) PaginationResponse {
	return PaginationResponse{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: offset+limit < total,
	}
}
