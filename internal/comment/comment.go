// Package comment lets authenticated callers comment on articles.
package comment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SergeyParamoshkin/blog/internal/applog"
	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/articlerequest"
	"github.com/SergeyParamoshkin/blog/internal/articleresponse"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/flash"
	"github.com/SergeyParamoshkin/blog/internal/i18n"
	"github.com/SergeyParamoshkin/blog/internal/metrics"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/store"
	"github.com/SergeyParamoshkin/blog/internal/user"
	"github.com/SergeyParamoshkin/blog/internal/view"
	"github.com/SergeyParamoshkin/blog/internal/web"
)

// AddedMessage is the catalog key of the confirmation shown after posting.
const AddedMessage = "comment.added"

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

// CanComment admits any authenticated caller.
func CanComment(caller *user.User) error {
	return auth.Require(caller, auth.LoginRequired())
}

// Target returns the article caller is about to comment on.
func (s *Service) Target(ctx context.Context, caller *user.User, articleID int64) (*model.Article, error) {
	if err := CanComment(caller); err != nil {
		return nil, err
	}

	a, err := s.articles.GetArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", articleID, err)
	}

	return a, nil
}

// Create adds a comment by caller to the article articleID. The author and
// the article never come from the request body.
func (s *Service) Create(ctx context.Context, caller *user.User, articleID int64, req *articlerequest.CommentRequest) (*model.Comment, error) {
	a, err := s.Target(ctx, caller, articleID)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{
		Body:      req.Body,
		AuthorID:  caller.ID,
		ArticleID: a.ID,
	}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment on article %d: %w", a.ID, err)
	}

	s.events.Event(ctx, metrics.CommentCreated)
	applog.From(ctx).Infow("comment created", "comment_id", c.ID, "article_id", a.ID, "user_id", caller.ID)

	return c, nil
}

type Handler struct {
	service *Service
	resp    *web.Responder
}

func NewHandler(service *Service, resp *web.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

// target resolves the article of the request after the login check, so an
// anonymous caller is sent to log in even for a missing article.
func (h *Handler) target(r *http.Request) (*model.Article, error) {
	caller := auth.UserFrom(r.Context())
	if err := CanComment(caller); err != nil {
		return nil, err
	}

	id, err := article.ParseID(r)
	if err != nil {
		return nil, err
	}

	return h.service.Target(r.Context(), caller, id)
}

func (h *Handler) page(r *http.Request, a *model.Article, form *articlerequest.CommentRequest) view.Page {
	return view.Page{
		Title: i18n.T(r.Context(), "comment.new.title"),
		Data:  articleresponse.NewArticleResponse(a),
		Form:  form,
	}
}

// NewComment shows the comment form.
func (h *Handler) NewComment(w http.ResponseWriter, r *http.Request) {
	a, err := h.target(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.HTML(w, r, http.StatusOK, view.CommentNew, h.page(r, a, &articlerequest.CommentRequest{}))
}

// CreateComment stores the posted comment and sends the client back to the
// article with a confirmation.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	a, err := h.target(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	data := &articlerequest.CommentRequest{}
	if err := articlerequest.Decode(r, data); err != nil {
		h.resp.Invalid(w, r, view.CommentNew, h.page(r, a, data), err)
		return
	}

	c, err := h.service.Create(r.Context(), auth.UserFrom(r.Context()), a.ID, data)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	if !web.WantsJSON(r) {
		flash.Add(w, r, AddedMessage)
	}
	h.resp.Done(w, r, http.StatusCreated, article.URL(a.ID), articleresponse.NewCommentResponse(c))
}
