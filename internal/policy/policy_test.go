package policy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/repository"
	"github.com/kutbudev/cardboard/internal/testutil"
)

var (
	anonymous = auth.Identity{State: auth.Anonymous}
	invalid   = auth.Identity{State: auth.Invalid, User: nil}
	member    = auth.Identity{State: auth.Authenticated, User: &models.User{ID: 1, IsActive: true}}
	staff     = auth.Identity{State: auth.Authenticated, User: &models.User{ID: 2, IsActive: true, IsStaff: true}}
)

func TestReadOpenWriteStaff(t *testing.T) {
	safe := []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	unsafe := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

	for _, id := range []auth.Identity{anonymous, invalid, member, staff} {
		for _, m := range safe {
			assert.NoError(t, ReadOpenWriteStaff.Check(m, id), "%s by %s", m, id.State)
		}
	}

	for _, m := range unsafe {
		assert.NoError(t, ReadOpenWriteStaff.Check(m, staff))
		for _, id := range []auth.Identity{anonymous, invalid, member} {
			err := ReadOpenWriteStaff.Check(m, id)
			errors.AssertCode(t, err, http.StatusForbidden)
			assert.Equal(t, errors.PermissionDeniedDetail, err.Error())
		}
	}
}

func TestAuthenticated(t *testing.T) {
	assert.NoError(t, Authenticated.Check(http.MethodPost, member))
	assert.NoError(t, Authenticated.Check(http.MethodGet, staff))

	errors.AssertCode(t, Authenticated.Check(http.MethodGet, anonymous), http.StatusUnauthorized)
	errors.AssertCode(t, Authenticated.Check(http.MethodGet, invalid), http.StatusUnauthorized)
}

func TestOwnerScope(t *testing.T) {
	db := testutil.NewDatabase(t)
	alice := testutil.CreateUser(t, db, "alice@example.com", false)
	bob := testutil.CreateUser(t, db, "bob@example.com", false)
	terms := testutil.CreateTerms(t, db, alice, "a")
	card := testutil.CreateCard(t, db, alice, terms, "alice's card")

	asBob := auth.Identity{State: auth.Authenticated, User: bob}
	count := func(scope repository.Scope) int64 {
		var n int64
		require.NoError(t, scope(db.DB.Model(&models.Card{})).Where("id = ?", card.ID).Count(&n).Error)
		return n
	}

	unscoped := OwnerScope{}
	assert.EqualValues(t, 1, count(unscoped.Scope(Retrieve, asBob)))
	for _, a := range []Action{List, Create, Update, Delete, UploadImage} {
		assert.EqualValues(t, 0, count(unscoped.Scope(a, asBob)), string(a))
	}

	scoped := OwnerScope{ScopeRetrieve: true}
	assert.EqualValues(t, 0, count(scoped.Scope(Retrieve, asBob)))
	assert.EqualValues(t, 1, count(scoped.Scope(Retrieve, auth.Identity{State: auth.Authenticated, User: alice})))
}
