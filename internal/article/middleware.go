package article

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

type ctxKey int8

const ctxKeyArticle ctxKey = iota

// ParseID reads the articleID URL parameter. Anything but a positive
// integer is reported as not found.
func ParseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "articleID"), 10, 64)
	if err != nil || id < 1 {
		return 0, store.ErrNotFound
	}

	return id, nil
}

// ArticleCtx middleware is used to load an Article object from
// the URL parameters passed through as the request. In case
// the Article could not be found, we stop here and return a 404.
func (h *Handler) ArticleCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := ParseID(r)
		if err != nil {
			h.resp.Error(w, r, err)
			return
		}

		a, err := h.service.Get(r.Context(), id)
		if err != nil {
			h.resp.Error(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyArticle, a)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the article loaded by ArticleCtx. Handlers mounted
// below ArticleCtx may rely on it being present.
func FromContext(ctx context.Context) *model.Article {
	a, _ := ctx.Value(ctxKeyArticle).(*model.Article)
	return a
}
