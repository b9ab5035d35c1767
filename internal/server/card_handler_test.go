package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
	"github.com/kutbudev/cardboard/internal/testutil"
)

type cardWorld struct {
	*fixture
	alice, bob *models.User
	terms      testutil.Terms
	other      testutil.Terms
}

func newCardWorld(t *testing.T, opts ...func(*config.Config)) *cardWorld {
	f := newFixture(t, opts...)
	staff := testutil.CreateUser(t, f.db, "staff@example.com", true)
	return &cardWorld{
		fixture: f,
		alice:   testutil.CreateUser(t, f.db, "alice@example.com", false),
		bob:     testutil.CreateUser(t, f.db, "bob@example.com", false),
		terms:   testutil.CreateTerms(t, f.db, staff, "a"),
		other:   testutil.CreateTerms(t, f.db, staff, "b"),
	}
}

func (w *cardWorld) payload(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":    title,
		"text":     "# heading",
		"category": w.terms.Category.ID,
		"status":   w.terms.Status.ID,
		"color":    w.terms.Color.ID,
	}
}

func ids(cards []models.Card) []uint {
	out := make([]uint, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func (w *cardWorld) list(t *testing.T, query string, user *models.User) pagination.Envelope[models.Card] {
	t.Helper()
	rec := w.do(http.MethodGet, "/api/v1/cards"+query, nil, user)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[pagination.Envelope[models.Card]](t, rec)
}

func cardPath(c *models.Card) string {
	return fmt.Sprintf("/api/v1/cards/%d", c.ID)
}

func TestCardsRequireAuthentication(t *testing.T) {
	w := newCardWorld(t)
	card := testutil.CreateCard(t, w.db, w.alice, w.terms, "mine")

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/cards"},
		{http.MethodPost, "/api/v1/cards"},
		{http.MethodGet, cardPath(card)},
		{http.MethodPut, cardPath(card)},
		{http.MethodPatch, cardPath(card)},
		{http.MethodDelete, cardPath(card)},
		{http.MethodPost, cardPath(card) + "/upload-image"},
	} {
		rec := w.do(tt.method, tt.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestCardCreateAndRetrieve(t *testing.T) {
	w := newCardWorld(t)

	rec := w.do(http.MethodPost, "/api/v1/cards", w.payload("groceries"), w.alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Card](t, rec)

	assert.NotZero(t, created.ID)
	assert.Equal(t, "groceries", created.Title)
	assert.Equal(t, "# heading", created.Text)
	assert.Equal(t, w.terms.Category.ID, created.CategoryID)
	assert.Equal(t, w.terms.Status.ID, created.StatusID)
	assert.Equal(t, w.terms.Color.ID, created.ColorID)
	assert.Equal(t, w.alice.ID, created.OwnerID)
	assert.WithinDuration(t, time.Now(), created.CreationDate, time.Minute)

	rec = w.do(http.MethodGet, cardPath(&created), nil, w.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Card](t, rec)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.OwnerID, got.OwnerID)
	assert.WithinDuration(t, created.CreationDate, got.CreationDate, time.Second)

	fields := decode[map[string]interface{}](t, rec)
	for _, k := range []string{"id", "title", "text", "creation_date", "category", "status", "color", "user"} {
		assert.Contains(t, fields, k)
	}
	assert.Len(t, fields, 8)
}

func TestCardCreateIgnoresUser(t *testing.T) {
	w := newCardWorld(t)

	body := w.payload("sneaky")
	body["user"] = w.bob.ID
	rec := w.do(http.MethodPost, "/api/v1/cards", body, w.alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, w.alice.ID, decode[models.Card](t, rec).OwnerID)
}

func TestCardCreationDate(t *testing.T) {
	w := newCardWorld(t)

	body := w.payload("dated")
	body["creation_date"] = "2021-03-14T09:00:00Z"
	rec := w.do(http.MethodPost, "/api/v1/cards", body, w.alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	dated := decode[models.Card](t, rec)
	assert.True(t, dated.CreationDate.Equal(time.Date(2021, 3, 14, 9, 0, 0, 0, time.UTC)))

	rec = w.do(http.MethodPost, "/api/v1/cards", w.payload("today"), w.alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	env := w.list(t, "?search=2021-03-14", w.alice)
	assert.Equal(t, []uint{dated.ID}, ids(env.Results))
}

func TestCardValidation(t *testing.T) {
	w := newCardWorld(t)

	errorsOf := func(t *testing.T, body interface{}) map[string][]string {
		t.Helper()
		rec := w.do(http.MethodPost, "/api/v1/cards", body, w.alice)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		return decode[map[string][]string](t, rec)
	}

	t.Run("missing fields", func(t *testing.T) {
		required := []string{"This field is required."}
		assert.Equal(t, map[string][]string{
			"title":    required,
			"text":     required,
			"category": required,
			"status":   required,
			"color":    required,
		}, errorsOf(t, map[string]interface{}{}))
	})

	t.Run("unknown category", func(t *testing.T) {
		body := w.payload("x")
		body["category"] = 9999
		assert.Equal(t, map[string][]string{
			"category": {`Invalid pk "9999" - object does not exist.`},
		}, errorsOf(t, body))
	})

	t.Run("string identifiers", func(t *testing.T) {
		body := w.payload("x")
		body["status"] = fmt.Sprint(w.terms.Status.ID)
		rec := w.do(http.MethodPost, "/api/v1/cards", body, w.alice)
		assert.Equal(t, http.StatusCreated, rec.Code)

		body["status"] = "abc"
		assert.Equal(t, []string{`Invalid pk "abc" - object does not exist.`}, errorsOf(t, body)["status"])
	})

	t.Run("wrong types", func(t *testing.T) {
		body := w.payload("x")
		body["color"] = true
		body["category"] = nil
		body["title"] = []string{"a"}
		got := errorsOf(t, body)
		assert.Equal(t, []string{"Incorrect type. Expected pk value, received bool."}, got["color"])
		assert.Equal(t, []string{"This field may not be null."}, got["category"])
		assert.Equal(t, []string{"Not a valid string."}, got["title"])
	})

	t.Run("blank and long", func(t *testing.T) {
		body := w.payload(strings.Repeat("t", 256))
		body["text"] = ""
		got := errorsOf(t, body)
		assert.Equal(t, []string{"Ensure this field has no more than 255 characters."}, got["title"])
		assert.Equal(t, []string{"This field may not be blank."}, got["text"])
	})

	t.Run("bad date", func(t *testing.T) {
		body := w.payload("x")
		body["creation_date"] = "yesterday"
		assert.Contains(t, errorsOf(t, body), "creation_date")
	})

	t.Run("not an object", func(t *testing.T) {
		assert.Contains(t, errorsOf(t, `[1, 2]`), "non_field_errors")
	})
}

func TestCardOwnerIsolation(t *testing.T) {
	w := newCardWorld(t)
	a1 := testutil.CreateCard(t, w.db, w.alice, w.terms, "a1")
	a2 := testutil.CreateCard(t, w.db, w.alice, w.other, "a2")
	b1 := testutil.CreateCard(t, w.db, w.bob, w.terms, "b1")

	assert.Equal(t, []uint{a1.ID, a2.ID}, ids(w.list(t, "", w.alice).Results))
	assert.Equal(t, []uint{b1.ID}, ids(w.list(t, "", w.bob).Results))
	assert.Equal(t, []uint{b1.ID}, ids(w.list(t, fmt.Sprintf("?category=%d", w.terms.Category.ID), w.bob).Results))
}

func TestCardRetrieveScope(t *testing.T) {
	t.Run("unscoped by default", func(t *testing.T) {
		w := newCardWorld(t)
		card := testutil.CreateCard(t, w.db, w.alice, w.terms, "shared")

		rec := w.do(http.MethodGet, cardPath(card), nil, w.bob)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("scoped", func(t *testing.T) {
		w := newCardWorld(t, func(cfg *config.Config) { cfg.Cards.ScopeRetrieve = true })
		card := testutil.CreateCard(t, w.db, w.alice, w.terms, "private")

		rec := w.do(http.MethodGet, cardPath(card), nil, w.bob)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Not found.", detail(t, rec))
		assert.Equal(t, http.StatusOK, w.do(http.MethodGet, cardPath(card), nil, w.alice).Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := newCardWorld(t)
		assert.Equal(t, http.StatusNotFound, w.do(http.MethodGet, "/api/v1/cards/42", nil, w.alice).Code)
		assert.Equal(t, http.StatusNotFound, w.do(http.MethodGet, "/api/v1/cards/nope", nil, w.alice).Code)
	})
}

func TestCardFilters(t *testing.T) {
	w := newCardWorld(t)
	onlyCategory := testutil.CreateCard(t, w.db, w.alice, testutil.Terms{Category: w.terms.Category, Status: w.other.Status, Color: w.other.Color}, "c1")
	both := testutil.CreateCard(t, w.db, w.alice, w.terms, "c2")
	onlyStatus := testutil.CreateCard(t, w.db, w.alice, testutil.Terms{Category: w.other.Category, Status: w.terms.Status, Color: w.terms.Color}, "c3")

	category := fmt.Sprintf("category=%d", w.terms.Category.ID)
	status := fmt.Sprintf("status=%d", w.terms.Status.ID)

	assert.Equal(t, []uint{onlyCategory.ID, both.ID}, ids(w.list(t, "?"+category, w.alice).Results))
	assert.Equal(t, []uint{both.ID, onlyStatus.ID}, ids(w.list(t, "?"+status, w.alice).Results))
	assert.Equal(t,
		ids(w.list(t, "?"+status, w.alice).Results),
		ids(w.list(t, "?"+category+"&"+status, w.alice).Results),
		"last filter wins")

	for _, query := range []string{"?category=red", "?category=18446744073709551615", "?status=9223372036854775808"} {
		env := w.list(t, query, w.alice)
		assert.Zero(t, env.Count, query)
		assert.Empty(t, env.Results, query)
	}

	rec := w.do(http.MethodGet, "/api/v1/cards/18446744073709551615", nil, w.alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("all filters", func(t *testing.T) {
		w2 := newCardWorld(t, func(cfg *config.Config) { cfg.Cards.FilterMode = "all" })
		testutil.CreateCard(t, w2.db, w2.alice, testutil.Terms{Category: w2.terms.Category, Status: w2.other.Status, Color: w2.other.Color}, "c1")
		both := testutil.CreateCard(t, w2.db, w2.alice, w2.terms, "c2")

		query := fmt.Sprintf("?category=%d&status=%d", w2.terms.Category.ID, w2.terms.Status.ID)
		assert.Equal(t, []uint{both.ID}, ids(w2.list(t, query, w2.alice).Results))
	})
}

func TestCardPagination(t *testing.T) {
	w := newCardWorld(t, func(cfg *config.Config) {
		cfg.Pagination.PageSize = 2
		cfg.Pagination.MaxPageSize = 3
	})
	for i := 0; i < 5; i++ {
		testutil.CreateCard(t, w.db, w.alice, w.terms, fmt.Sprintf("card %d", i))
	}

	first := w.list(t, "", w.alice)
	assert.EqualValues(t, 5, first.Count)
	assert.Len(t, first.Results, 2)
	require.NotNil(t, first.Links.Next)
	assert.Equal(t, "http://example.com/api/v1/cards?page=2", *first.Links.Next)
	assert.Nil(t, first.Links.Previous)

	second := w.list(t, "?page=2", w.alice)
	require.NotNil(t, second.Links.Previous)
	assert.Equal(t, "http://example.com/api/v1/cards", *second.Links.Previous)

	last := w.list(t, "?page=last", w.alice)
	assert.Len(t, last.Results, 1)
	assert.Nil(t, last.Links.Next)

	capped := w.list(t, "?page_size=5000", w.alice)
	assert.Len(t, capped.Results, 3)

	rec := w.do(http.MethodGet, "/api/v1/cards?page=4", nil, w.alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid page.", detail(t, rec))

	empty := w.list(t, "?page=1", w.bob)
	assert.Zero(t, empty.Count)
	assert.NotNil(t, empty.Results)
}

func TestCardUpdate(t *testing.T) {
	w := newCardWorld(t)
	card := testutil.CreateCard(t, w.db, w.alice, w.terms, "before")

	t.Run("put requires every field", func(t *testing.T) {
		rec := w.do(http.MethodPut, cardPath(card), map[string]string{"title": "after"}, w.alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("put", func(t *testing.T) {
		body := w.payload("after")
		body["status"] = w.other.Status.ID
		rec := w.do(http.MethodPut, cardPath(card), body, w.alice)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decode[models.Card](t, rec)
		assert.Equal(t, "after", got.Title)
		assert.Equal(t, w.other.Status.ID, got.StatusID)
		assert.WithinDuration(t, card.CreationDate, got.CreationDate, time.Second)
	})

	t.Run("patch", func(t *testing.T) {
		rec := w.do(http.MethodPatch, cardPath(card), map[string]string{"text": "patched"}, w.alice)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decode[models.Card](t, w.do(http.MethodGet, cardPath(card), nil, w.alice))
		assert.Equal(t, "after", got.Title)
		assert.Equal(t, "patched", got.Text)
		assert.Equal(t, w.other.Status.ID, got.StatusID)
		assert.Equal(t, w.alice.ID, got.OwnerID)
	})

	t.Run("patch validates present fields", func(t *testing.T) {
		rec := w.do(http.MethodPatch, cardPath(card), map[string]interface{}{"color": 9999}, w.alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non owner", func(t *testing.T) {
		rec := w.do(http.MethodPatch, cardPath(card), map[string]string{"text": "mine now"}, w.bob)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCardDelete(t *testing.T) {
	w := newCardWorld(t)
	card := testutil.CreateCard(t, w.db, w.alice, w.terms, "bye")

	assert.Equal(t, http.StatusNotFound, w.do(http.MethodDelete, cardPath(card), nil, w.bob).Code)

	rec := w.do(http.MethodDelete, cardPath(card), nil, w.alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, w.do(http.MethodGet, cardPath(card), nil, w.alice).Code)
	assert.Equal(t, http.StatusNotFound, w.do(http.MethodDelete, cardPath(card), nil, w.alice).Code)
}

func TestCardUploadImage(t *testing.T) {
	w := newCardWorld(t)
	card := testutil.CreateCard(t, w.db, w.alice, w.terms, "picture")
	path := cardPath(card) + "/upload-image"

	rec := w.do(http.MethodPost, path, w.payload("ignored"), w.alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.Card](t, rec)
	assert.Equal(t, "picture", got.Title)
	assert.Equal(t, card.ID, got.ID)

	rec = w.do(http.MethodPost, path, map[string]string{"title": "partial"}, w.alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = w.do(http.MethodPost, path, w.payload("ignored"), w.bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
