// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/repository"
)

// Password is the password of every fixture user.
const Password = "correct horse battery staple"

// NewDatabase returns a migrated in-memory sqlite database closed at the
// end of the test.
func NewDatabase(t *testing.T) *repository.Database {
	t.Helper()

	db, err := repository.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateUser inserts an active user with Password.
func CreateUser(t *testing.T, db *repository.Database, email string, staff bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Email:        email,
		Name:         email,
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      staff,
	}
	require.NoError(t, repository.NewUsers(db.DB).Create(context.Background(), u))
	return u
}

// Terms is one row of each taxonomy.
type Terms struct {
	Category *models.CardCategory
	Color    *models.CardColor
	Status   *models.CardStatus
}

// CreateTerms inserts one category, color and status named after suffix.
func CreateTerms(t *testing.T, db *repository.Database, owner *models.User, suffix string) Terms {
	t.Helper()
	ctx := context.Background()

	category, err := repository.NewTaxonomy[models.CardCategory](db.DB).Create(ctx, "category "+suffix, owner.ID)
	require.NoError(t, err)
	color, err := repository.NewTaxonomy[models.CardColor](db.DB).Create(ctx, "color "+suffix, owner.ID)
	require.NoError(t, err)
	status, err := repository.NewTaxonomy[models.CardStatus](db.DB).Create(ctx, "status "+suffix, owner.ID)
	require.NoError(t, err)

	return Terms{Category: category, Color: color, Status: status}
}

// CreateCard inserts a card owned by owner and classified by terms.
func CreateCard(t *testing.T, db *repository.Database, owner *models.User, terms Terms, title string) *models.Card {
	t.Helper()

	c := &models.Card{
		Title:      title,
		Text:       "text of " + title,
		CategoryID: terms.Category.ID,
		StatusID:   terms.Status.ID,
		ColorID:    terms.Color.ID,
		OwnerID:    owner.ID,
	}
	require.NoError(t, repository.NewCards(db.DB, repository.FilterLast).Create(context.Background(), c))
	return c
}
