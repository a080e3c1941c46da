package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/metrics"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

const password = "secret1"

type testServer struct {
	t   *testing.T
	srv *Server
	st  *store.Memory
	// cookies plays the browser's cookie jar.
	cookies map[string]*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.LoadFrom(map[string]string{"BLOG_STORAGE": config.StorageMemory})
	require.NoError(t, err)

	st := store.NewMemory()
	require.NoError(t, article.Seed(context.Background(), st, password))

	m, err := metrics.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	srv, err := New(cfg, zaptest.NewLogger(t).Sugar(), st, m)
	require.NoError(t, err)

	return &testServer{t: t, srv: srv, st: st, cookies: map[string]*http.Cookie{}}
}

func (ts *testServer) do(r *http.Request) *httptest.ResponseRecorder {
	for _, c := range ts.cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, r)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(ts.cookies, c.Name)
			continue
		}
		ts.cookies[c.Name] = c
	}

	return rec
}

func (ts *testServer) get(target string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (ts *testServer) post(target string, values url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(r)
}

func (ts *testServer) login(name string) {
	ts.t.Helper()

	rec := ts.post("/login", url.Values{"username": {name}, "password": {password}, "next": {"/articles"}})
	require.Equal(ts.t, http.StatusSeeOther, rec.Code)
	require.Equal(ts.t, "/articles", rec.Header().Get("Location"))
}

func (ts *testServer) firstArticle() model.Article {
	ts.t.Helper()

	list, err := ts.st.ListArticles(context.Background(), 1, 0)
	require.NoError(ts.t, err)
	require.NotEmpty(ts.t, list)

	return list[0]
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestHomeListsFirstPage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hi")
	assert.Contains(t, rec.Body.String(), "sup")
	assert.NotContains(t, rec.Body.String(), "bonjour", "third article is on page 2")
	assert.Contains(t, rec.Body.String(), "Page 1 of 3")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.get("/nope").Code)
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/articles/new")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Farticles%2Fnew", rec.Header().Get("Location"))

	rec = ts.get("/login?next=%2Farticles%2Fnew")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="/articles/new"`)

	rec = ts.post("/login", url.Values{"username": {"Peter"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")

	ts.login("Peter")

	rec = ts.post("/articles/new", url.Values{"title": {"Fresh"}, "body": {"news"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.get(rec.Header().Get("Location"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fresh")
	assert.Contains(t, rec.Body.String(), "Edit", "author sees the edit link")

	rec = ts.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusSeeOther, ts.get("/articles/new").Code)
}

func TestLoginRejectsOpenRedirect(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.post("/login", url.Values{"username": {"Peter"}, "password": {password}, "next": {"//evil.example"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestOtherAuthorCannotEdit(t *testing.T) {
	ts := newTestServer(t)
	a := ts.firstArticle() // written by Peter

	ts.login("Julia")

	id := article.URL(a.ID)
	assert.Equal(t, http.StatusForbidden, ts.get(id+"/edit").Code)
	assert.Equal(t, http.StatusForbidden, ts.post(id+"/edit", url.Values{"title": {"x"}, "body": {"y"}}).Code)
	assert.Equal(t, http.StatusForbidden, ts.post(id+"/delete", nil).Code)

	stored, err := ts.st.GetArticle(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Title, stored.Title)
}

func TestCommentFlashShownOnce(t *testing.T) {
	ts := newTestServer(t)
	a := ts.firstArticle()
	ts.login("Julia")

	rec := ts.post(article.URL(a.ID)+"/comments/new", url.Values{"body": {"great read"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.get(rec.Header().Get("Location"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your comment has been added to the article")
	assert.Contains(t, rec.Body.String(), "great read")

	rec = ts.get(article.URL(a.ID))
	assert.NotContains(t, rec.Body.String(), "Your comment has been added to the article")
}

func TestCommentFlashRussian(t *testing.T) {
	ts := newTestServer(t)
	a := ts.firstArticle()
	ts.login("Julia")

	r := httptest.NewRequest(http.MethodPost, article.URL(a.ID)+"/comments/new", strings.NewReader("body=%D0%BE%D0%BA"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	rec := ts.do(r)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	r = httptest.NewRequest(http.MethodGet, article.URL(a.ID), nil)
	r.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	rec = ts.do(r)
	assert.Contains(t, rec.Body.String(), "Ваш комментарий добавлен к статье")
}

func TestCommentFlashFollowsViewerLanguage(t *testing.T) {
	ts := newTestServer(t)
	a := ts.firstArticle()
	ts.login("Julia")

	rec := ts.post(article.URL(a.ID)+"/comments/new", url.Values{"body": {"great read"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.get(article.URL(a.ID) + "?lang=ru")
	assert.Contains(t, rec.Body.String(), "Ваш комментарий добавлен к статье")
	assert.NotContains(t, rec.Body.String(), "Your comment has been added")
}

func TestCategoryAndSearch(t *testing.T) {
	ts := newTestServer(t)
	a := ts.firstArticle()
	require.NotNil(t, a.CategoryID)

	r := httptest.NewRequest(http.MethodGet, "/categories/"+strconv.FormatInt(*a.CategoryID, 10), nil)
	r.Header.Set("Accept", "application/json")
	rec := ts.do(r)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Hi"`)

	rec = ts.get("/articles/search?keyword=BONJOUR")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bonjour")
}

func TestDiagnostics(t *testing.T) {
	ts := newTestServer(t)
	ts.get("/ping")

	rec := httptest.NewRecorder()
	ts.srv.DiagHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blog_http_requests")
	assert.Contains(t, rec.Body.String(), `route="/ping"`)
}

func TestRoutesDoc(t *testing.T) {
	ts := newTestServer(t)

	md := ts.srv.RoutesDoc()
	assert.Contains(t, md, "/articles/{articleID}")
	assert.Contains(t, md, "/categories/{catID}")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(ts.srv.RoutesJSON()), &doc))
}
