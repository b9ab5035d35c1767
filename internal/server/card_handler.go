package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
	"github.com/kutbudev/cardboard/internal/policy"
	"github.com/kutbudev/cardboard/internal/repository"
)

// CardHandler serves the caller's cards. Every route needs an
// authenticated caller; which rows it reaches is decided by Owner.
type CardHandler struct {
	Cards      *repository.Cards
	Categories *repository.Taxonomy[models.CardCategory, *models.CardCategory]
	Statuses   *repository.Taxonomy[models.CardStatus, *models.CardStatus]
	Colors     *repository.Taxonomy[models.CardColor, *models.CardColor]
	Owner      policy.OwnerScope
	Pages      pagination.Config
}

func (h *CardHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/cards", Gate(policy.Authenticated))
	g.GET("", JSONFormatter(h.List))
	g.POST("", JSONFormatter(h.Create))
	g.GET("/:id", JSONFormatter(h.Get))
	g.PUT("/:id", JSONFormatter(h.Update))
	g.PATCH("/:id", JSONFormatter(h.Update))
	g.DELETE("/:id", JSONFormatter(h.Delete))
	g.POST("/:id/upload-image", JSONFormatter(h.UploadImage))
}

// List returns the caller's cards, narrowed by the category, status, color
// and search query parameters.
func (h *CardHandler) List(c *gin.Context) (int, interface{}, error) {
	q := c.Request.URL.Query()
	filter := repository.CardFilter{
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Color:    q.Get("color"),
		Search:   q.Get("search"),
	}

	scope := h.Owner.Scope(policy.List, identity(c))
	cards, page, err := h.Cards.List(c.Request.Context(), scope, filter, h.Pages.Params(q))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, pagination.NewEnvelope(requestURL(c), page, cards), nil
}

func (h *CardHandler) Create(c *gin.Context) (int, interface{}, error) {
	form, err := h.bindForm(c, false)
	if err != nil {
		return 0, nil, err
	}

	card := &models.Card{OwnerID: identity(c).UserID()}
	form.apply(card)
	if err := h.Cards.Create(c.Request.Context(), card); err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, card, nil
}

func (h *CardHandler) Get(c *gin.Context) (int, interface{}, error) {
	card, err := h.load(c, policy.Retrieve)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, card, nil
}

// Update replaces the card on PUT and patches it on PATCH.
func (h *CardHandler) Update(c *gin.Context) (int, interface{}, error) {
	card, err := h.load(c, policy.Update)
	if err != nil {
		return 0, nil, err
	}

	form, err := h.bindForm(c, c.Request.Method == http.MethodPatch)
	if err != nil {
		return 0, nil, err
	}

	form.apply(card)
	if err := h.Cards.Save(c.Request.Context(), card); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, card, nil
}

func (h *CardHandler) Delete(c *gin.Context) (int, interface{}, error) {
	card, err := h.load(c, policy.Delete)
	if err != nil {
		return 0, nil, err
	}

	if err := h.Cards.Delete(c.Request.Context(), card); err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, nil
}

// UploadImage validates the payload as a full card and saves the stored
// card as it is. Images are not stored.
func (h *CardHandler) UploadImage(c *gin.Context) (int, interface{}, error) {
	card, err := h.load(c, policy.UploadImage)
	if err != nil {
		return 0, nil, err
	}

	if _, err := h.bindForm(c, false); err != nil {
		return 0, nil, err
	}

	if err := h.Cards.Save(c.Request.Context(), card); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, card, nil
}

// load finds the card named by the route within the scope of action.
func (h *CardHandler) load(c *gin.Context, action policy.Action) (*models.Card, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	return h.Cards.Get(c.Request.Context(), h.Owner.Scope(action, identity(c)), id)
}

func (h *CardHandler) bindForm(c *gin.Context, partial bool) (cardForm, error) {
	fields := map[string]json.RawMessage{}
	if err := bindJSON(c, &fields); err != nil {
		return cardForm{}, err
	}
	return decodeCardForm(c.Request.Context(), fields, partial, h.termExists)
}

func (h *CardHandler) termExists(ctx context.Context, field string, id uint) (bool, error) {
	switch field {
	case "category":
		return h.Categories.Exists(ctx, id)
	case "status":
		return h.Statuses.Exists(ctx, id)
	default:
		return h.Colors.Exists(ctx, id)
	}
}
