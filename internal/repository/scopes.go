package repository

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Scope narrows a query. Card access rules are expressed as scopes so the
// same predicate can be applied to every operation.
type Scope = func(*gorm.DB) *gorm.DB

// NoScope leaves the query untouched.
func NoScope(db *gorm.DB) *gorm.DB { return db }

// OwnedBy restricts a query to rows whose user_id is userID.
func OwnedBy(userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// MatchID restricts column to the identifier in raw. Identifiers compare
// as integers, so "07" matches 7; a value that is not an identifier,
// including one too large for a bigint column, matches nothing.
func MatchID(column, raw string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 63)
		if err != nil {
			return db.Where("1 = 0")
		}
		return db.Where(column+" = ?", id)
	}
}

// FilterMode decides how card filters combine.
type FilterMode string

const (
	// FilterLast applies only the last supplied filter, in the order
	// category, status, color.
	FilterLast FilterMode = "last"
	// FilterAll applies every supplied filter.
	FilterAll FilterMode = "all"
)

// CardFilter holds the list query parameters for cards.
type CardFilter struct {
	Category string
	Status   string
	Color    string
	// Search matches against the text form of creation_date.
	Search string
}

// Scopes returns the scopes selected by f under mode.
func (f CardFilter) Scopes(mode FilterMode) []Scope {
	var scopes []Scope
	for _, fk := range []struct{ column, value string }{
		{"category_id", f.Category},
		{"status_id", f.Status},
		{"color_id", f.Color},
	} {
		if fk.value == "" {
			continue
		}
		if mode != FilterAll {
			scopes = scopes[:0]
		}
		scopes = append(scopes, MatchID(fk.column, fk.value))
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("CAST(creation_date AS TEXT) LIKE ?", "%"+term+"%")
		})
	}
	return scopes
}
