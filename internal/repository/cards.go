package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
)

// Cards stores cards. Every read takes the access scope decided by the
// caller's policy.
type Cards struct {
	db   *gorm.DB
	mode FilterMode
	now  func() time.Time
}

func NewCards(db *gorm.DB, mode FilterMode) *Cards {
	return &Cards{db: db, mode: mode, now: time.Now}
}

// List returns a page of cards within scope that match filter, by id.
func (r *Cards) List(ctx context.Context, scope Scope, filter CardFilter, params pagination.Params) ([]models.Card, pagination.Page, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Card{}).
		Scopes(scope).
		Scopes(filter.Scopes(r.mode)...)

	return paginate[models.Card](query, params, "id")
}

// Get loads the card with id within scope.
func (r *Cards) Get(ctx context.Context, scope Scope, id uint) (*models.Card, error) {
	var c models.Card
	if err := r.db.WithContext(ctx).Scopes(scope).First(&c, id).Error; err != nil {
		return nil, translate(err, "get card")
	}
	return &c, nil
}

// Create inserts c, stamping CreationDate when unset.
func (r *Cards) Create(ctx context.Context, c *models.Card) error {
	if c.CreationDate.IsZero() {
		c.CreationDate = r.now()
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

// Save writes every column of c. Concurrent saves are last-write-wins.
func (r *Cards) Save(ctx context.Context, c *models.Card) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

// Delete removes c.
func (r *Cards) Delete(ctx context.Context, c *models.Card) error {
	res := r.db.WithContext(ctx).Delete(&models.Card{}, c.ID)
	if res.Error != nil {
		return fmt.Errorf("delete card: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
