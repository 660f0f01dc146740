package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	// QueryPage is the query parameter name for the current page index.
	QueryPage = "page"
	// QueryPageSize is the query parameter name for the page size.
	QueryPageSize = "pageSize"

	// DefaultPageSize for pagination.
	DefaultPageSize = 5
	// MaxPageSize clamps the page size upper bound.
	MaxPageSize = 100
)

// Page describes one page of a list.
type Page struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	TotalCount int64 `json:"total_count"`
}

// Paginate counts the rows of tx and returns the page requested by c together with
// tx limited to that page. Pages start at 1 and are clamped to the last page.
func Paginate(c *fiber.Ctx, tx *gorm.DB) (Page, *gorm.DB, error) {
	page := c.QueryInt(QueryPage, 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt(QueryPageSize, DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	var totalCount int64
	if err := tx.Session(&gorm.Session{}).Count(&totalCount).Error; err != nil {
		return Page{}, nil, err //nolint:wrapcheck
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	p := Page{Page: page, PageSize: pageSize, TotalPages: totalPages, TotalCount: totalCount}

	return p, tx.Limit(pageSize).Offset((page - 1) * pageSize), nil
}
