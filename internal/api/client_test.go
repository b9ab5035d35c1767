package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/cardboard/internal/api"
	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/server"
	"github.com/kutbudev/cardboard/internal/testutil"
)

func newTestServer(t *testing.T) (*httptest.Server, func(email string, staff bool)) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Auth.Secret = "client-secret"
	cfg.Pagination.PageSize = 1

	db := testutil.NewDatabase(t)
	srv := httptest.NewServer(server.New(cfg, db, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)

	return srv, func(email string, staff bool) {
		testutil.CreateUser(t, db, email, staff)
	}
}

func login(t *testing.T, srv *httptest.Server, email string) *api.Client {
	t.Helper()
	c := api.New(srv.URL+"/api/v1/", config.Credentials{})
	_, err := c.Login(context.Background(), email, testutil.Password)
	require.NoError(t, err)
	return c
}

func TestClientCardLifecycle(t *testing.T) {
	srv, createUser := newTestServer(t)
	createUser("staff@example.com", true)
	createUser("alice@example.com", false)
	ctx := context.Background()

	staff := login(t, srv, "staff@example.com")
	var ids [3]uint
	for i, kind := range api.Kinds {
		term, err := staff.CreateTaxonomy(ctx, kind, "todo")
		require.NoError(t, err)
		ids[i] = term.ID
	}

	alice := login(t, srv, "alice@example.com")
	me, err := alice.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	_, err = alice.CreateTaxonomy(ctx, api.Colors, "blue")
	assert.True(t, api.IsStatus(err, http.StatusForbidden))

	in := api.CardInput{Title: "first", Text: "body", Category: ids[0], Color: ids[1], Status: ids[2]}
	first, err := alice.CreateCard(ctx, in)
	require.NoError(t, err)
	in.Title = "second"
	second, err := alice.CreateCard(ctx, in)
	require.NoError(t, err)

	page, err := alice.ListCards(ctx, api.CardQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	assert.Len(t, page.Results, 1)

	all, err := alice.ListAllCards(ctx, api.CardQuery{Status: ids[2]})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	got, err := alice.GetCard(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	patched, err := alice.UpdateCard(ctx, first.ID, map[string]interface{}{"title": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", patched.Title)

	in.Title = "replaced"
	replaced, err := alice.ReplaceCard(ctx, second.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "replaced", replaced.Title)

	require.NoError(t, alice.DeleteCard(ctx, first.ID))
	_, err = alice.GetCard(ctx, first.ID)
	assert.True(t, api.IsStatus(err, http.StatusNotFound))

	terms, err := alice.ListTaxonomy(ctx, api.Categories)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "todo", terms[0].Name)

	require.NoError(t, staff.DeleteTaxonomy(ctx, api.Categories, ids[0]))
	all, err = alice.ListAllCards(ctx, api.CardQuery{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestClientValidationError(t *testing.T) {
	srv, createUser := newTestServer(t)
	createUser("alice@example.com", false)

	alice := login(t, srv, "alice@example.com")
	_, err := alice.CreateCard(context.Background(), api.CardInput{Title: "x"})
	require.Error(t, err)

	apiErr, ok := err.(*api.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Fields, "text")
	assert.Contains(t, apiErr.Error(), "text: This field may not be blank.")
}

func TestClientRefreshesExpiredAccess(t *testing.T) {
	srv, createUser := newTestServer(t)
	createUser("alice@example.com", false)

	alice := login(t, srv, "alice@example.com")
	refreshed := false
	alice.OnRefresh = func(config.Credentials) { refreshed = true }
	alice.Creds.Access = "expired"

	_, err := alice.Me(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.NotEqual(t, "expired", alice.Creds.Access)
}

func TestClientLoginFailure(t *testing.T) {
	srv, createUser := newTestServer(t)
	createUser("alice@example.com", false)

	c := api.New(srv.URL+"/api/v1", config.Credentials{})
	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "No active account found")
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]api.Kind{
		"category": api.Categories,
		"Colors":   api.Colors,
		"status":   api.Statuses,
	} {
		got, err := api.ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := api.ParseKind("tags")
	assert.Error(t, err)
}
