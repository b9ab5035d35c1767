package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kutbudev/cardboard/internal/pagination"
)

// paginate counts query, resolves params against the count and loads the
// requested window ordered by order.
func paginate[T any](query *gorm.DB, params pagination.Params, order string) ([]T, pagination.Page, error) {
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, pagination.Page{}, fmt.Errorf("count: %w", err)
	}

	page, err := params.Resolve(count)
	if err != nil {
		return nil, pagination.Page{}, err
	}

	var rows []T
	if err := query.Order(order).Offset(page.Offset()).Limit(page.Size).Find(&rows).Error; err != nil {
		return nil, pagination.Page{}, fmt.Errorf("find: %w", err)
	}
	return rows, page, nil
}
