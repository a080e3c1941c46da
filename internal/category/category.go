// Package category shows a category together with its articles.
package category

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SergeyParamoshkin/blog/internal/articleresponse"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/store"
	"github.com/SergeyParamoshkin/blog/internal/view"
	"github.com/SergeyParamoshkin/blog/internal/web"
)

type Service struct {
	categories store.CategoryStore
}

func NewService(categories store.CategoryStore) *Service {
	return &Service{categories: categories}
}

// Detail returns the category with its articles. The articles are fetched
// in one batch, never one query per article.
func (s *Service) Detail(ctx context.Context, id int64) (*model.Category, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}

	byCategory, err := s.categories.ArticlesByCategory(ctx, []int64{c.ID})
	if err != nil {
		return nil, fmt.Errorf("articles of category %d: %w", id, err)
	}

	c.ArticleSet = byCategory[c.ID]
	if c.ArticleSet == nil {
		c.ArticleSet = []model.Article{}
	}

	return c, nil
}

type Handler struct {
	service *Service
	resp    *web.Responder
}

func NewHandler(service *Service, resp *web.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

// GetCategory renders the category named by the catID URL parameter.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "catID"), 10, 64)
	if err != nil || id < 1 {
		h.resp.Error(w, r, store.ErrNotFound)
		return
	}

	c, err := h.service.Detail(r.Context(), id)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.Render(w, r, http.StatusOK, view.CategoryDetail, view.Page{Title: c.Name},
		articleresponse.NewCategoryResponse(c))
}
