package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
	"github.com/kutbudev/cardboard/internal/policy"
	"github.com/kutbudev/cardboard/internal/repository"
)

// TaxonomyHandler serves one kind of card term under Path. Anyone may read
// terms; only staff may create or delete them.
type TaxonomyHandler[T models.Taxonomy, PT models.TermPtr[T]] struct {
	Path       string
	Repository *repository.Taxonomy[T, PT]
	Pages      pagination.Config
}

func (h *TaxonomyHandler[T, PT]) RegisterRoutes(r gin.IRouter) {
	g := r.Group(h.Path, Gate(policy.ReadOpenWriteStaff))
	g.GET("", JSONFormatter(h.List))
	g.POST("", JSONFormatter(h.Create))
	g.GET("/:id", JSONFormatter(h.Get))
	g.DELETE("/:id", JSONFormatter(h.Delete))
}

func (h *TaxonomyHandler[T, PT]) List(c *gin.Context) (int, interface{}, error) {
	terms, page, err := h.Repository.List(c.Request.Context(), h.Pages.Params(c.Request.URL.Query()))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, pagination.NewEnvelope(requestURL(c), page, terms), nil
}

type termRequest struct {
	Name *string `json:"name" binding:"required,max=255"`
}

func (h *TaxonomyHandler[T, PT]) Create(c *gin.Context) (int, interface{}, error) {
	var req termRequest
	if err := bindJSON(c, &req); err != nil {
		return 0, nil, err
	}
	if strings.TrimSpace(*req.Name) == "" {
		return 0, nil, errors.ValidationError{"name": {errors.BlankMessage}}
	}

	term, err := h.Repository.Create(c.Request.Context(), *req.Name, identity(c).UserID())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, term, nil
}

func (h *TaxonomyHandler[T, PT]) Get(c *gin.Context) (int, interface{}, error) {
	id, err := pathID(c)
	if err != nil {
		return 0, nil, err
	}

	term, err := h.Repository.Get(c.Request.Context(), id)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, term, nil
}

// Delete removes the term and every card classified by it.
func (h *TaxonomyHandler[T, PT]) Delete(c *gin.Context) (int, interface{}, error) {
	id, err := pathID(c)
	if err != nil {
		return 0, nil, err
	}

	if err := h.Repository.Delete(c.Request.Context(), id); err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, nil
}
