package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
)

const duplicateEmail = "user with this email already exists."

// Users stores accounts.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create inserts u. A taken email is a validation error on "email".
func (r *Users) Create(ctx context.Context, u *models.User) error {
	if _, err := r.GetByEmail(ctx, u.Email); err == nil {
		return errors.ValidationError{"email": {duplicateEmail}}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.ValidationError{"email": {duplicateEmail}}
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get loads the user with id.
func (r *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

// GetByEmail loads the user with email, compared exactly.
func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "get user by email")
	}
	return &u, nil
}

// Save writes every column of u.
func (r *Users) Save(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// translate maps a missing row to errors.ErrNotFound and wraps the rest.
func translate(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
