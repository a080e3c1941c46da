// Package store persists articles, categories, comments, users and sessions.
//
// Two implementations share the interfaces below: Memory, used by tests and
// the demo mode of the server, and Postgres, backed by a pgx connection pool.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

var (
	// ErrNotFound is returned when no record has the requested identifier.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("record already exists")
)

type ArticleStore interface {
	CountArticles(ctx context.Context) (int, error)
	// ListArticles returns articles ordered by id.
	ListArticles(ctx context.Context, limit, offset int) ([]model.Article, error)
	GetArticle(ctx context.Context, id int64) (*model.Article, error)
	// CreateArticle assigns ID and Date on a.
	CreateArticle(ctx context.Context, a *model.Article) error
	// UpdateArticle writes the title and body of a; nothing else is mutable.
	UpdateArticle(ctx context.Context, a *model.Article) error
	DeleteArticle(ctx context.Context, id int64) error
	// SearchArticles matches keyword as a case-insensitive substring of
	// title or body.
	SearchArticles(ctx context.Context, keyword string) ([]model.Article, error)
}

type CategoryStore interface {
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	// ArticlesByCategory loads the articles of all given categories in a
	// single round trip, keyed by category id.
	ArticlesByCategory(ctx context.Context, categoryIDs []int64) (map[int64][]model.Article, error)
}

type CommentStore interface {
	// CreateComment assigns ID and Created on c.
	CreateComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, articleID int64) ([]model.Comment, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*user.User, error)
	GetUserByName(ctx context.Context, name string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
}

// Session binds an opaque cookie value to a user until Expires.
type Session struct {
	ID      string
	UserID  int64
	Expires time.Time
}

type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Store is everything the blog needs from persistence.
type Store interface {
	ArticleStore
	CategoryStore
	CommentStore
	UserStore
	SessionStore
	Close()
}

// Touch returns the modification time that follows prev for a change made
// at now. It is at least one whole second after prev, so two versions of an
// article never share an HTTP Last-Modified date.
func Touch(prev, now time.Time) time.Time {
	next := prev.Truncate(time.Second).Add(time.Second)
	if now.After(next) {
		return now
	}

	return next
}
