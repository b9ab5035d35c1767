package models

// Term holds the columns shared by the three card taxonomies. Owner records
// who created the row; it is never used to scope reads.
type Term struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:255"`
	OwnerID uint   `json:"-" gorm:"column:user_id;not null;index"`
}

// Base gives generic code access to the shared columns.
func (t *Term) Base() *Term { return t }

// CardCategory classifies cards by subject.
type CardCategory struct {
	Term
}

func (CardCategory) TableName() string  { return "card_categories" }
func (CardCategory) CardColumn() string { return "category_id" }

// CardColor classifies cards by color.
type CardColor struct {
	Term
}

func (CardColor) TableName() string  { return "card_colors" }
func (CardColor) CardColumn() string { return "color_id" }

// CardStatus classifies cards by workflow column.
type CardStatus struct {
	Term
}

func (CardStatus) TableName() string  { return "card_statuses" }
func (CardStatus) CardColumn() string { return "status_id" }

// Taxonomy is satisfied by the three term models.
type Taxonomy interface {
	CardCategory | CardColor | CardStatus
}

// TermPtr lets generic code build a *T, reach its Term and find the card
// column referencing it.
type TermPtr[T Taxonomy] interface {
	*T
	Base() *Term
	CardColumn() string
}
