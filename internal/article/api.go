package article

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SergeyParamoshkin/blog/internal/articlerequest"
	"github.com/SergeyParamoshkin/blog/internal/articleresponse"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/flash"
	"github.com/SergeyParamoshkin/blog/internal/i18n"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/paginate"
	"github.com/SergeyParamoshkin/blog/internal/view"
	"github.com/SergeyParamoshkin/blog/internal/web"
)

// Handler serves the article routes.
type Handler struct {
	service *Service
	resp    *web.Responder
}

func NewHandler(service *Service, resp *web.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

// URL is the detail page of an article.
func URL(id int64) string {
	return "/articles/" + strconv.FormatInt(id, 10)
}

// ListArticles renders one page of articles; the cursor comes from
// paginate.Middleware.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.List(r.Context(), paginate.FromContext(r.Context()))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	page := view.Page{Title: i18n.T(r.Context(), "article.list.title")}
	h.resp.Render(w, r, http.StatusOK, view.ArticleList, page,
		articleresponse.NewArticlePageResponse(res.Articles, res.Page))
}

// GetArticle returns the specific Article, loaded by ArticleCtx.
//
// Last-Modified is the newest of the article's own changes and its comments;
// a client holding a copy at least as new gets 304 Not Modified. The page
// differs per caller, so only private caches may keep it.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	a := FromContext(r.Context())

	comments, err := h.service.Comments(r.Context(), a.ID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	lastModified := LastModified(a, comments)
	w.Header().Set("Cache-Control", "private, no-cache")
	w.Header().Add("Vary", "Cookie")
	w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
	if notModified(r, lastModified) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.resp.Render(w, r, http.StatusOK, view.ArticleDetail, view.Page{Title: a.Title},
		articleresponse.NewArticleDetailResponse(a, comments))
}

// LastModified is the HTTP modification date of the detail page of a.
func LastModified(a *model.Article, comments []model.Comment) time.Time {
	latest := a.Date
	if a.Updated.After(latest) {
		latest = a.Updated
	}
	for _, c := range comments {
		if c.Created.After(latest) {
			latest = c.Created
		}
	}

	return latest.UTC().Truncate(time.Second)
}

// notModified reports whether the client copy is current. A pending flash
// message always gets a fresh page.
func notModified(r *http.Request, lastModified time.Time) bool {
	if _, err := r.Cookie(flash.CookieName); err == nil {
		return false
	}

	since, err := http.ParseTime(r.Header.Get("If-Modified-Since"))

	return err == nil && !lastModified.After(since)
}

// NewArticle shows the empty article form.
func (h *Handler) NewArticle(w http.ResponseWriter, r *http.Request) {
	if err := CanCreate(auth.UserFrom(r.Context())); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.HTML(w, r, http.StatusOK, view.ArticleNew, view.Page{
		Title: i18n.T(r.Context(), "article.new.title"),
		Form:  &articlerequest.ArticleRequest{},
	})
}

// CreateArticle persists the posted Article and sends the client to it.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFrom(r.Context())
	if err := CanCreate(caller); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	data := &articlerequest.ArticleRequest{}
	if err := articlerequest.Decode(r, data); err != nil {
		h.resp.Invalid(w, r, view.ArticleNew, view.Page{
			Title: i18n.T(r.Context(), "article.new.title"),
			Form:  data,
		}, err)

		return
	}

	a, err := h.service.Create(r.Context(), caller, data)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.Done(w, r, http.StatusCreated, URL(a.ID), articleresponse.NewArticleResponse(a))
}

// EditArticle shows the edit form filled with the current article.
func (h *Handler) EditArticle(w http.ResponseWriter, r *http.Request) {
	a := FromContext(r.Context())
	if err := CanChange(auth.UserFrom(r.Context()), a); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.HTML(w, r, http.StatusOK, view.ArticleEdit, view.Page{
		Title: i18n.T(r.Context(), "article.edit.title"),
		Data:  articleresponse.NewArticleResponse(a),
		Form:  &articlerequest.ArticleRequest{Title: a.Title, Body: a.Body},
	})
}

// UpdateArticle updates an existing Article in our persistent store.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	a := FromContext(r.Context())
	caller := auth.UserFrom(r.Context())
	if err := CanChange(caller, a); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	data := &articlerequest.ArticleRequest{}
	if err := articlerequest.Decode(r, data); err != nil {
		h.resp.Invalid(w, r, view.ArticleEdit, view.Page{
			Title: i18n.T(r.Context(), "article.edit.title"),
			Data:  articleresponse.NewArticleResponse(a),
			Form:  data,
		}, err)

		return
	}

	updated, err := h.service.Update(r.Context(), caller, a, data)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.Done(w, r, http.StatusOK, URL(updated.ID), articleresponse.NewArticleResponse(updated))
}

// ConfirmDelete asks before deleting.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	a := FromContext(r.Context())
	if err := CanDelete(auth.UserFrom(r.Context()), a); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.HTML(w, r, http.StatusOK, view.ArticleDelete, view.Page{
		Title: i18n.T(r.Context(), "article.delete.title"),
		Data:  articleresponse.NewArticleResponse(a),
	})
}

// DeleteArticle removes an existing Article from our persistent store.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	a := FromContext(r.Context())
	if err := h.service.Delete(r.Context(), auth.UserFrom(r.Context()), a); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.Done(w, r, http.StatusNoContent, "/", nil)
}

// SearchArticles lists articles containing the keyword parameter.
func (h *Handler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	articles, err := h.service.Search(r.Context(), keyword)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.Render(w, r, http.StatusOK, view.SearchResults, view.Page{Title: i18n.T(r.Context(), "search.title")},
		articleresponse.NewSearchResponse(keyword, articles))
}
