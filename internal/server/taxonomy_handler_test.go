package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
	"github.com/kutbudev/cardboard/internal/testutil"
)

func TestTaxonomyReadOpen(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice@example.com", true)
	bob := testutil.CreateUser(t, f.db, "bob@example.com", true)
	testutil.CreateTerms(t, f.db, alice, "a")
	testutil.CreateTerms(t, f.db, bob, "b")

	for _, path := range []string{"/api/v1/categories", "/api/v1/colors", "/api/v1/status"} {
		t.Run(path, func(t *testing.T) {
			rec := f.do(http.MethodGet, path, nil, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			env := decode[pagination.Envelope[models.Term]](t, rec)
			assert.EqualValues(t, 2, env.Count)
			require.Len(t, env.Results, 2)
			assert.True(t, strings.HasSuffix(env.Results[0].Name, " b"), "newest first")
			assert.Nil(t, env.Links.Next)
			assert.Nil(t, env.Links.Previous)
		})
	}
}

func TestTaxonomyWriteStaff(t *testing.T) {
	f := newFixture(t)
	staff := testutil.CreateUser(t, f.db, "staff@example.com", true)
	member := testutil.CreateUser(t, f.db, "member@example.com", false)

	t.Run("member", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "work"}, member)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "You do not have permission to perform this action.", detail(t, rec))
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "work"}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/colors", map[string]string{"name": "red"}, staff)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decode[map[string]interface{}](t, rec)
		assert.Equal(t, "red", body["name"])
		assert.NotZero(t, body["id"])
		assert.Len(t, body, 2)

		list := decode[pagination.Envelope[models.Term]](t, f.do(http.MethodGet, "/api/v1/colors", nil, nil))
		assert.EqualValues(t, 1, list.Count)
	})

	t.Run("missing name", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/status", map[string]string{}, staff)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string][]string{"name": {"This field is required."}}, decode[map[string][]string](t, rec))
	})

	t.Run("blank name", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/status", map[string]string{"name": "  "}, staff)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[map[string][]string](t, rec), "name")
	})

	t.Run("long name", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/status", map[string]string{"name": strings.Repeat("x", 256)}, staff)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"Ensure this field has no more than 255 characters."}, decode[map[string][]string](t, rec)["name"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/status", `{"name":`, staff)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.HasPrefix(detail(t, rec), "JSON parse error"))
	})
}

func TestTaxonomyRetrieveAndDelete(t *testing.T) {
	f := newFixture(t)
	staff := testutil.CreateUser(t, f.db, "staff@example.com", true)
	member := testutil.CreateUser(t, f.db, "member@example.com", false)
	terms := testutil.CreateTerms(t, f.db, staff, "a")
	other := testutil.CreateTerms(t, f.db, staff, "b")
	doomed := testutil.CreateCard(t, f.db, member, terms, "doomed")
	kept := testutil.CreateCard(t, f.db, member, other, "kept")

	path := fmt.Sprintf("/api/v1/categories/%d", terms.Category.ID)

	rec := f.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "category a", decode[models.Term](t, rec).Name)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/categories/999", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/categories/abc", nil, nil).Code)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, path, nil, member).Code)

	rec = f.do(http.MethodDelete, path, nil, staff)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, path, nil, staff).Code)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, fmt.Sprintf("/api/v1/cards/%d", doomed.ID), nil, member).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, fmt.Sprintf("/api/v1/cards/%d", kept.ID), nil, member).Code)
}
