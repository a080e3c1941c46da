package article

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/flash"
	"github.com/SergeyParamoshkin/blog/internal/i18n"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/paginate"
	"github.com/SergeyParamoshkin/blog/internal/user"
	"github.com/SergeyParamoshkin/blog/internal/view"
	"github.com/SergeyParamoshkin/blog/internal/web"
)

// asUser stands in for the session middleware.
func asUser(u *user.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u != nil {
				r = r.WithContext(auth.WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRouter(t *testing.T, f *fixture, caller *user.User) http.Handler {
	t.Helper()

	tmpl, err := view.New()
	require.NoError(t, err)
	cat, err := i18n.Load("en")
	require.NoError(t, err)

	h := NewHandler(f.service, web.NewResponder(tmpl))

	r := chi.NewRouter()
	r.Use(cat.Middleware, asUser(caller))
	r.Route("/articles", func(r chi.Router) {
		r.With(paginate.Middleware).Get("/", h.ListArticles)
		r.Get("/search", h.SearchArticles)
		r.Get("/new", h.NewArticle)
		r.Post("/new", h.CreateArticle)
		r.Route("/{articleID}", func(r chi.Router) {
			r.Use(h.ArticleCtx)
			r.Get("/", h.GetArticle)
			r.Put("/", h.UpdateArticle)
			r.Delete("/", h.DeleteArticle)
			r.Get("/edit", h.EditArticle)
			r.Post("/edit", h.UpdateArticle)
			r.Get("/delete", h.ConfirmDelete)
			r.Post("/delete", h.DeleteArticle)
		})
	})

	return r
}

func do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func jsonGet(target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "application/json")
	return r
}

func form(method, target string, values url.Values) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestListArticlesJSON(t *testing.T) {
	f := newFixture(t)
	for _, title := range []string{"a", "b", "c"} {
		f.article(t, title, "body")
	}
	h := newRouter(t, f, nil)

	rec := do(h, jsonGet("/articles?page=2"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Articles []struct {
			Title  string `json:"title"`
			Author struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"articles"`
		Page paginate.Page `json:"page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Articles, 1)
	assert.Equal(t, "c", body.Articles[0].Title)
	assert.Equal(t, "Peter", body.Articles[0].Author.Name)
	assert.Equal(t, 2, body.Page.NumPages)
	assert.True(t, body.Page.HasPrevious)

	assert.Equal(t, http.StatusNotFound, do(h, jsonGet("/articles?page=3")).Code)
	assert.Equal(t, http.StatusNotFound, do(h, jsonGet("/articles?page=x")).Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/articles?page=last", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page 2 of 2")
}

func TestGetArticle(t *testing.T) {
	f := newFixture(t)
	a := f.article(t, "Hi", "first")
	h := newRouter(t, f, nil)

	rec := do(h, jsonGet(URL(a.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Hi", got.Title)

	lastModified := rec.Header().Get("Last-Modified")
	require.NotEmpty(t, lastModified)

	r := jsonGet(URL(a.ID))
	r.Header.Set("If-Modified-Since", lastModified)
	assert.Equal(t, http.StatusNotModified, do(h, r).Code)

	r = jsonGet(URL(a.ID))
	r.Header.Set("If-Modified-Since", a.Date.Add(-time.Hour).Format(http.TimeFormat))
	assert.Equal(t, http.StatusOK, do(h, r).Code)

	assert.Equal(t, http.StatusNotFound, do(h, jsonGet("/articles/999")).Code)
	assert.Equal(t, http.StatusNotFound, do(h, jsonGet("/articles/abc")).Code)
}

func TestGetArticleRevalidatesAfterChange(t *testing.T) {
	f := newFixture(t)
	a := f.article(t, "Hi", "first")
	h := newRouter(t, f, f.author)

	conditional := func(since string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, URL(a.ID), nil)
		r.Header.Set("If-Modified-Since", since)
		return do(h, r)
	}

	rec := do(h, httptest.NewRequest(http.MethodGet, URL(a.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "private, no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "Cookie", rec.Header().Get("Vary"))
	original := rec.Header().Get("Last-Modified")
	require.Equal(t, http.StatusNotModified, conditional(original).Code)

	// An edit in the same second still moves Last-Modified forward.
	rec = do(h, form(http.MethodPost, URL(a.ID)+"/edit", url.Values{"title": {"Changed"}, "body": {"first"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = conditional(original)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Changed")
	edited := rec.Header().Get("Last-Modified")
	assert.NotEqual(t, original, edited)

	require.NoError(t, f.st.CreateComment(t.Context(), &model.Comment{Body: "fresh comment", AuthorID: f.reader.ID, ArticleID: a.ID}))

	rec = conditional(edited)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fresh comment")
	current := rec.Header().Get("Last-Modified")
	assert.Equal(t, http.StatusNotModified, conditional(current).Code)

	// A pending flash message is never answered from the client's copy.
	r := httptest.NewRequest(http.MethodGet, URL(a.ID), nil)
	r.Header.Set("If-Modified-Since", current)
	r.AddCookie(&http.Cookie{Name: flash.CookieName, Value: "W10"})
	assert.Equal(t, http.StatusOK, do(h, r).Code)
}

func TestLastModified(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 500_000_000, time.UTC)
	a := &model.Article{Date: created, Updated: created}

	assert.Equal(t, created.Truncate(time.Second), LastModified(a, nil))

	a.Updated = created.Add(time.Hour)
	assert.Equal(t, a.Updated.Truncate(time.Second), LastModified(a, nil))

	comment := model.Comment{Created: created.Add(2 * time.Hour)}
	assert.Equal(t, comment.Created.Truncate(time.Second), LastModified(a, []model.Comment{comment}))
}

func TestCreateArticleAnonymousRedirectsToLogin(t *testing.T) {
	f := newFixture(t)
	h := newRouter(t, f, nil)

	rec := do(h, form(http.MethodPost, "/articles/new", url.Values{"title": {"t"}, "body": {"b"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Farticles%2Fnew", rec.Header().Get("Location"))

	rec = do(h, httptest.NewRequest(http.MethodGet, "/articles/new", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, f.count(t))
}

func TestCreateArticleForbidden(t *testing.T) {
	f := newFixture(t)
	h := newRouter(t, f, f.reader)

	rec := do(h, form(http.MethodPost, "/articles/new", url.Values{"title": {"t"}, "body": {"b"}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.count(t))
}

func TestCreateArticle(t *testing.T) {
	f := newFixture(t)
	h := newRouter(t, f, f.author)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/articles/new", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, form(http.MethodPost, "/articles/new", url.Values{"title": {"  "}, "body": {"b"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")
	assert.Zero(t, f.count(t))

	// Client-supplied ids and authors are not part of the form.
	rec = do(h, form(http.MethodPost, "/articles/new", url.Values{
		"title": {"Hello"}, "body": {"World"}, "id": {"77"}, "author": {"999"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, 1, f.count(t))

	articles, err := f.service.Search(t.Context(), "Hello")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, URL(articles[0].ID), rec.Header().Get("Location"))
	assert.Equal(t, f.author.ID, articles[0].AuthorID)
	assert.NotEqual(t, int64(77), articles[0].ID)
}

func TestCreateArticleJSON(t *testing.T) {
	f := newFixture(t)
	h := newRouter(t, f, f.author)

	r := httptest.NewRequest(http.MethodPost, "/articles/new", strings.NewReader(`{"title":"Hello","body":"World"}`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")

	rec := do(h, r)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Location"))

	var got struct {
		Title  string `json:"title"`
		Author struct {
			Self bool `json:"self"`
		} `json:"author"`
		CanEdit bool `json:"can_edit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Hello", got.Title)
	assert.True(t, got.Author.Self)
	assert.True(t, got.CanEdit)
}

func TestUpdateArticle(t *testing.T) {
	f := newFixture(t)
	a := f.article(t, "Hi", "first")
	values := url.Values{"title": {"Changed"}, "body": {"changed"}}

	for _, caller := range []*user.User{nil, f.other, f.reader} {
		h := newRouter(t, f, caller)
		assert.Equal(t, http.StatusForbidden, do(h, form(http.MethodPost, URL(a.ID)+"/edit", values)).Code)
		assert.Equal(t, http.StatusForbidden, do(h, httptest.NewRequest(http.MethodGet, URL(a.ID)+"/edit", nil)).Code)
	}

	h := newRouter(t, f, f.author)
	rec := do(h, httptest.NewRequest(http.MethodGet, URL(a.ID)+"/edit", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Hi"`)

	rec = do(h, form(http.MethodPost, URL(a.ID)+"/edit", values))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, URL(a.ID), rec.Header().Get("Location"))

	stored, err := f.service.Get(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", stored.Title)

	r := httptest.NewRequest(http.MethodPut, URL(a.ID), strings.NewReader(`{"title":"Again","body":"json"}`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	rec = do(h, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Again"`)
}

func TestDeleteArticle(t *testing.T) {
	f := newFixture(t)
	a := f.article(t, "Hi", "first")

	r := httptest.NewRequest(http.MethodDelete, URL(a.ID), nil)
	r.Header.Set("Accept", "application/json")
	assert.Equal(t, http.StatusForbidden, do(newRouter(t, f, f.other), r).Code)
	assert.Equal(t, 1, f.count(t))

	h := newRouter(t, f, f.author)
	rec := do(h, httptest.NewRequest(http.MethodGet, URL(a.ID)+"/delete", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, form(http.MethodPost, URL(a.ID)+"/delete", url.Values{}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Zero(t, f.count(t))
}

func TestSearchArticles(t *testing.T) {
	f := newFixture(t)
	f.article(t, "Category theory", "arrows")
	f.article(t, "Strings", "concatenate")
	f.article(t, "Dogs", "woof")
	h := newRouter(t, f, nil)

	rec := do(h, jsonGet("/articles/search?keyword=CAT"))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Keyword  string          `json:"keyword"`
		Articles []model.Article `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "CAT", got.Keyword)
	assert.Len(t, got.Articles, 2)

	// Blank and missing keywords list every article.
	for _, target := range []string{"/articles/search?keyword=", "/articles/search"} {
		rec = do(h, jsonGet(target))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "", got.Keyword)
		require.Len(t, got.Articles, 3)
		assert.Equal(t, "Category theory", got.Articles[0].Title)
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/articles/search?keyword=zebra", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nothing found.")
}
