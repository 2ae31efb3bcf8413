package pagination

import "gorm.io/gorm"

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// PageRequest captures offset pagination parameters from list endpoints.
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// PageInfo is embedded in list responses.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

func (r PageRequest) normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
	return r
}

// Scope applies LIMIT/OFFSET for the requested page.
func Scope(req PageRequest) func(*gorm.DB) *gorm.DB {
	req = req.normalize()
	return func(db *gorm.DB) *gorm.DB {
		offset := (req.Page - 1) * req.PageSize
		return db.Offset(offset).Limit(req.PageSize)
	}
}

// NewPageInfo computes the page metadata for a result set.
func NewPageInfo(req PageRequest, totalRows int64) PageInfo {
	req = req.normalize()
	totalPages := int((totalRows + int64(req.PageSize) - 1) / int64(req.PageSize))
	return PageInfo{
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalRows:  totalRows,
		TotalPages: totalPages,
	}
}
