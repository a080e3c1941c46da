// Package article lists, shows, creates, edits, deletes and searches
// articles.
//
// Service methods receive the caller explicitly; a nil caller is anonymous.
// Guards run before any write.
package article

import (
	"context"
	"fmt"

	"github.com/SergeyParamoshkin/blog/internal/applog"
	"github.com/SergeyParamoshkin/blog/internal/articlerequest"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/metrics"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/paginate"
	"github.com/SergeyParamoshkin/blog/internal/store"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

// PageSize is the number of articles on one list page.
const PageSize = 2

type Service struct {
	articles store.ArticleStore
	comments store.CommentStore
	events   metrics.Recorder
}

func NewService(articles store.ArticleStore, comments store.CommentStore, events metrics.Recorder) *Service {
	if events == nil {
		events = metrics.Nop{}
	}

	return &Service{articles: articles, comments: comments, events: events}
}

// ListResult is one page of articles.
type ListResult struct {
	Articles []model.Article
	Page     paginate.Page
}

// List returns the page c points at, ordered by id.
func (s *Service) List(ctx context.Context, c paginate.Cursor) (*ListResult, error) {
	count, err := s.articles.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	page, err := paginate.New(c, count, PageSize)
	if err != nil {
		return nil, err
	}

	articles, err := s.articles.ListArticles(ctx, PageSize, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	return &ListResult{Articles: articles, Page: page}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Article, error) {
	a, err := s.articles.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}

	return a, nil
}

// Comments returns the comments of an article, oldest first.
func (s *Service) Comments(ctx context.Context, articleID int64) ([]model.Comment, error) {
	comments, err := s.comments.ListComments(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list comments of article %d: %w", articleID, err)
	}

	return comments, nil
}

// CanCreate admits callers holding the add permission.
func CanCreate(caller *user.User) error {
	return auth.Require(caller, auth.PermissionRequired(user.AddArticle))
}

// CanChange admits the author holding the change permission.
func CanChange(caller *user.User, a *model.Article) error {
	return auth.Require(caller, auth.OwnerOnly(a.AuthorID), auth.PermissionRequired(user.ChangeArticle))
}

// CanDelete admits the author holding the delete permission.
func CanDelete(caller *user.User, a *model.Article) error {
	return auth.Require(caller, auth.OwnerOnly(a.AuthorID), auth.PermissionRequired(user.DeleteArticle))
}

// Create stores a new article written by caller.
func (s *Service) Create(ctx context.Context, caller *user.User, req *articlerequest.ArticleRequest) (*model.Article, error) {
	if err := CanCreate(caller); err != nil {
		return nil, err
	}

	a := &model.Article{
		Title:      req.Title,
		Body:       req.Body,
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
	}
	if err := s.articles.CreateArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.events.Event(ctx, metrics.ArticleCreated)
	applog.From(ctx).Infow("article created", "article_id", a.ID, "user_id", caller.ID)

	return a, nil
}

// Update replaces the title and body of a. The author and date never change.
func (s *Service) Update(ctx context.Context, caller *user.User, a *model.Article, req *articlerequest.ArticleRequest) (*model.Article, error) {
	if err := CanChange(caller, a); err != nil {
		return nil, err
	}

	updated := *a
	updated.Title = req.Title
	updated.Body = req.Body
	if err := s.articles.UpdateArticle(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update article %d: %w", a.ID, err)
	}

	s.events.Event(ctx, metrics.ArticleUpdated)
	applog.From(ctx).Infow("article updated", "article_id", a.ID, "user_id", caller.ID)

	return &updated, nil
}

// Delete removes a together with its comments.
func (s *Service) Delete(ctx context.Context, caller *user.User, a *model.Article) error {
	if err := CanDelete(caller, a); err != nil {
		return err
	}

	if err := s.articles.DeleteArticle(ctx, a.ID); err != nil {
		return fmt.Errorf("delete article %d: %w", a.ID, err)
	}

	s.events.Event(ctx, metrics.ArticleDeleted)
	applog.From(ctx).Infow("article deleted", "article_id", a.ID, "user_id", caller.ID)

	return nil
}

// Search returns the articles whose title or body contains keyword, ignoring
// case, in id order. Every article contains the empty keyword.
func (s *Service) Search(ctx context.Context, keyword string) ([]model.Article, error) {
	articles, err := s.articles.SearchArticles(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}

	return articles, nil
}
