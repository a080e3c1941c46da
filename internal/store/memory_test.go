package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

func newFixture(t *testing.T) (*Memory, *user.User) {
	t.Helper()

	m := NewMemory()
	author := &user.User{Name: "Peter"}
	require.NoError(t, m.CreateUser(context.Background(), author))

	return m, author
}

func TestMemoryArticleLifecycle(t *testing.T) {
	ctx := context.Background()
	m, author := newFixture(t)

	a := &model.Article{Title: "Hi", Body: "first", AuthorID: author.ID}
	require.NoError(t, m.CreateArticle(ctx, a))
	assert.NotZero(t, a.ID)
	assert.False(t, a.Date.IsZero())
	assert.Equal(t, "Peter", a.AuthorName)

	a.Title = "Hello"
	a.AuthorID = 999
	require.NoError(t, m.UpdateArticle(ctx, a))

	got, err := m.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, author.ID, got.AuthorID, "author is immutable")

	require.NoError(t, m.DeleteArticle(ctx, a.ID))
	_, err = m.GetArticle(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteArticle(ctx, a.ID), ErrNotFound)
}

func TestMemoryCreateArticleRequiresAuthor(t *testing.T) {
	m := NewMemory()
	err := m.CreateArticle(context.Background(), &model.Article{Title: "x", Body: "y", AuthorID: 42})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListArticlesPages(t *testing.T) {
	ctx := context.Background()
	m, author := newFixture(t)
	for _, title := range []string{"one", "two", "three", "four", "five"} {
		require.NoError(t, m.CreateArticle(ctx, &model.Article{Title: title, Body: title, AuthorID: author.ID}))
	}

	n, err := m.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	page, err := m.ListArticles(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "five", page[0].Title)

	page, err = m.ListArticles(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemorySearchArticles(t *testing.T) {
	ctx := context.Background()
	m, author := newFixture(t)
	for _, a := range []model.Article{
		{Title: "Category theory", Body: "arrows"},
		{Title: "Strings", Body: "how to CONCATENATE them"},
		{Title: "Dogs", Body: "woof"},
	} {
		a := a
		a.AuthorID = author.ID
		require.NoError(t, m.CreateArticle(ctx, &a))
	}

	got, err := m.SearchArticles(ctx, "cat")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Category theory", got[0].Title)
	assert.Equal(t, "Strings", got[1].Title)

	got, err = m.SearchArticles(ctx, "zebra")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = m.SearchArticles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMemoryArticlesByCategory(t *testing.T) {
	ctx := context.Background()
	m, author := newFixture(t)

	news := &model.Category{Name: "news"}
	other := &model.Category{Name: "other"}
	require.NoError(t, m.CreateCategory(ctx, news))
	require.NoError(t, m.CreateCategory(ctx, other))

	for i, cat := range []*model.Category{news, news, other, nil} {
		a := &model.Article{Title: "t", Body: "b", AuthorID: author.ID}
		if cat != nil {
			a.CategoryID = &cat.ID
		}
		require.NoError(t, m.CreateArticle(ctx, a), i)
	}

	got, err := m.ArticlesByCategory(ctx, []int64{news.ID})
	require.NoError(t, err)
	assert.Len(t, got[news.ID], 2)
	assert.NotContains(t, got, other.ID)
}

func TestMemoryComments(t *testing.T) {
	ctx := context.Background()
	m, author := newFixture(t)
	a := &model.Article{Title: "t", Body: "b", AuthorID: author.ID}
	require.NoError(t, m.CreateArticle(ctx, a))

	c := &model.Comment{Body: "nice", AuthorID: author.ID, ArticleID: a.ID}
	require.NoError(t, m.CreateComment(ctx, c))
	assert.Equal(t, "Peter", c.AuthorName)

	err := m.CreateComment(ctx, &model.Comment{Body: "x", AuthorID: author.ID, ArticleID: 12345})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := m.ListComments(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "nice", list[0].Body)

	require.NoError(t, m.DeleteArticle(ctx, a.ID))
	list, err = m.ListComments(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	m, author := newFixture(t)

	assert.ErrorIs(t, m.CreateUser(ctx, &user.User{Name: "Peter"}), ErrConflict)

	u, err := m.GetUserByName(ctx, "Peter")
	require.NoError(t, err)
	assert.Equal(t, author.ID, u.ID)

	_, err = m.GetUser(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.CreateSession(ctx, Session{ID: "sid", UserID: author.ID}))
	assert.ErrorIs(t, m.CreateSession(ctx, Session{ID: "sid"}), ErrConflict)

	s, err := m.GetSession(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, author.ID, s.UserID)

	require.NoError(t, m.DeleteSession(ctx, "sid"))
	_, err = m.GetSession(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdatedAdvances(t *testing.T) {
	ctx := context.Background()
	m, author := newFixture(t)
	clock := time.Date(2024, 3, 1, 10, 0, 0, 200_000_000, time.UTC)
	m.now = func() time.Time { return clock }

	a := &model.Article{Title: "Hi", Body: "first", AuthorID: author.ID}
	require.NoError(t, m.CreateArticle(ctx, a))
	assert.Equal(t, a.Date, a.Updated)

	clock = clock.Add(100 * time.Millisecond)
	a.Title = "Hello"
	require.NoError(t, m.UpdateArticle(ctx, a))
	edited, err := m.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 1, 0, time.UTC), edited.Updated)
	assert.Equal(t, edited.Updated, a.Updated)
	assert.Equal(t, a.Date, edited.Date, "creation date is immutable")

	require.NoError(t, m.CreateComment(ctx, &model.Comment{Body: "nice", AuthorID: author.ID, ArticleID: a.ID}))
	commented, err := m.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 2, 0, time.UTC), commented.Updated)
}
