package models

import (
	"time"
)

// Card is a kanban note owned by a single user. Removing any referenced
// taxonomy row removes the card with it.
type Card struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null;size:255"`
	Text         string    `json:"text" gorm:"not null;type:text"`
	CreationDate time.Time `json:"creation_date" gorm:"not null;index"`
	CategoryID   uint      `json:"category" gorm:"not null;index"`
	StatusID     uint      `json:"status" gorm:"not null;index"`
	ColorID      uint      `json:"color" gorm:"not null;index"`
	OwnerID      uint      `json:"user" gorm:"column:user_id;not null;index"`

	// Foreign Key Relations
	Category *CardCategory `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Status   *CardStatus   `json:"-" gorm:"foreignKey:StatusID;constraint:OnDelete:CASCADE"`
	Color    *CardColor    `json:"-" gorm:"foreignKey:ColorID;constraint:OnDelete:CASCADE"`
	Owner    *User         `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

func (Card) TableName() string { return "cards" }

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&CardCategory{},
		&CardColor{},
		&CardStatus{},
		&Card{},
	}
}
