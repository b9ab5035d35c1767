package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
)

// Taxonomy stores one kind of card term. Reads are never owner scoped.
type Taxonomy[T models.Taxonomy, PT models.TermPtr[T]] struct {
	db *gorm.DB
}

func NewTaxonomy[T models.Taxonomy, PT models.TermPtr[T]](db *gorm.DB) *Taxonomy[T, PT] {
	return &Taxonomy[T, PT]{db: db}
}

// List returns a page of terms, newest identifier first.
func (r *Taxonomy[T, PT]) List(ctx context.Context, params pagination.Params) ([]T, pagination.Page, error) {
	return paginate[T](r.db.WithContext(ctx).Model(new(T)), params, "id DESC")
}

// Get loads the term with id.
func (r *Taxonomy[T, PT]) Get(ctx context.Context, id uint) (*T, error) {
	t := new(T)
	if err := r.db.WithContext(ctx).First(t, id).Error; err != nil {
		return nil, translate(err, "get term")
	}
	return t, nil
}

// Exists reports whether a term with id exists.
func (r *Taxonomy[T, PT]) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check term: %w", err)
	}
	return count > 0, nil
}

// Create inserts a term named name, attributed to ownerID.
func (r *Taxonomy[T, PT]) Create(ctx context.Context, name string, ownerID uint) (*T, error) {
	t := new(T)
	base := PT(t).Base()
	base.Name = name
	base.OwnerID = ownerID

	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("create term: %w", err)
	}
	return t, nil
}

// Delete removes the term with id together with every card referencing it.
// The cards are removed explicitly so the cascade holds even when the
// driver does not enforce foreign keys.
func (r *Taxonomy[T, PT]) Delete(ctx context.Context, id uint) error {
	column := PT(new(T)).CardColumn()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(column+" = ?", id).Delete(&models.Card{}).Error; err != nil {
			return fmt.Errorf("delete cards: %w", err)
		}

		res := tx.Delete(new(T), id)
		if res.Error != nil {
			return fmt.Errorf("delete term: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.ErrNotFound
		}
		return nil
	})
}
