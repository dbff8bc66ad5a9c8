package search

const pageWindow = 5

type Pagination struct {
	TotalPages int   `json:"total_pages"`
	Current    int   `json:"current"`
	Pages      []int `json:"pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

// Paginate computes the page controls for total hits. Pages holds at most
// pageWindow zero-based page numbers centered on current, clamped to the
// valid range. A single page gets no controls at all.
func Paginate(total int, pageSize int, current int) Pagination {
	if pageSize <= 0 || total <= 0 {
		return Pagination{Current: current}
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := Pagination{TotalPages: totalPages, Current: current}
	if totalPages <= 1 {
		return pagination
	}

	start := max(0, current-pageWindow/2)
	end := min(totalPages-1, start+pageWindow-1)
	start = max(0, end-pageWindow+1)

	for page := start; page <= end; page++ {
		pagination.Pages = append(pagination.Pages, page)
	}
	pagination.HasPrev = current > 0
	pagination.HasNext = current < totalPages-1

	return pagination
}
