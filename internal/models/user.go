package models

import (
	"time"
)

// User is an account able to authenticate against the API.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex;size:255"`
	Name         string    `json:"name" gorm:"not null;size:255"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	IsStaff      bool      `json:"is_staff" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
