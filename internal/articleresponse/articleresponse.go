package articleresponse

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/paginate"
	"github.com/SergeyParamoshkin/blog/internal/user"
	"github.com/SergeyParamoshkin/blog/internal/userpayload"
)

// ArticleResponse is the response payload for the Article data model.
//
// In the ArticleResponse object, first a Render() is called on itself,
// then the next field, and so on, all the way down the tree.
// Render is called in top-down order, like a http handler middleware chain.
type ArticleResponse struct {
	*model.Article

	Author   *userpayload.UserPayload `json:"author"`
	Comments []*CommentResponse       `json:"comments,omitempty"`

	// Computed per caller in Render.
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func NewArticleResponse(article *model.Article) *ArticleResponse {
	return &ArticleResponse{
		Article: article,
		Author:  userpayload.NewUserPayloadResponse(article.AuthorID, article.AuthorName),
	}
}

// NewArticleDetailResponse carries the article together with its comments.
func NewArticleDetailResponse(article *model.Article, comments []model.Comment) *ArticleResponse {
	resp := NewArticleResponse(article)
	resp.Comments = make([]*CommentResponse, 0, len(comments))
	for i := range comments {
		resp.Comments = append(resp.Comments, NewCommentResponse(&comments[i]))
	}

	return resp
}

func (rd *ArticleResponse) Render(w http.ResponseWriter, r *http.Request) error {
	caller := auth.UserFrom(r.Context())
	owner := auth.OwnerOnly(rd.AuthorID)
	rd.CanEdit = auth.Check(caller, owner, auth.PermissionRequired(user.ChangeArticle)) == auth.Authorized
	rd.CanDelete = auth.Check(caller, owner, auth.PermissionRequired(user.DeleteArticle)) == auth.Authorized

	if err := rd.Author.Render(w, r); err != nil {
		return err
	}
	for _, c := range rd.Comments {
		if err := c.Render(w, r); err != nil {
			return err
		}
	}

	return nil
}

func NewArticleListResponse(articles []model.Article) []render.Renderer {
	list := make([]render.Renderer, 0, len(articles))
	for i := range articles {
		list = append(list, NewArticleResponse(&articles[i]))
	}

	return list
}

// ArticlePageResponse is one page of the article list.
type ArticlePageResponse struct {
	Articles []render.Renderer `json:"articles"`
	Page     paginate.Page     `json:"page"`
}

func NewArticlePageResponse(articles []model.Article, page paginate.Page) *ArticlePageResponse {
	return &ArticlePageResponse{
		Articles: NewArticleListResponse(articles),
		Page:     page,
	}
}

func (rd *ArticlePageResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return renderAll(w, r, rd.Articles)
}

// SearchResponse lists the articles matching a keyword.
type SearchResponse struct {
	Keyword  string            `json:"keyword"`
	Articles []render.Renderer `json:"articles"`
}

func NewSearchResponse(keyword string, articles []model.Article) *SearchResponse {
	return &SearchResponse{Keyword: keyword, Articles: NewArticleListResponse(articles)}
}

func (rd *SearchResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return renderAll(w, r, rd.Articles)
}

// CategoryResponse is a category with its articles.
type CategoryResponse struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Articles []render.Renderer `json:"articles"`
}

func NewCategoryResponse(c *model.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Articles: NewArticleListResponse(c.ArticleSet),
	}
}

func (rd *CategoryResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return renderAll(w, r, rd.Articles)
}

// CommentResponse is the response payload for the Comment data model.
type CommentResponse struct {
	*model.Comment

	Author *userpayload.UserPayload `json:"author"`
}

func NewCommentResponse(c *model.Comment) *CommentResponse {
	return &CommentResponse{
		Comment: c,
		Author:  userpayload.NewUserPayloadResponse(c.AuthorID, c.AuthorName),
	}
}

func (rd *CommentResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return rd.Author.Render(w, r)
}

// renderAll runs Render down a list nested inside another payload. The
// render package only walks struct fields that are Renderers themselves, so
// each payload renders its own children.
func renderAll(w http.ResponseWriter, r *http.Request, list []render.Renderer) error {
	for _, item := range list {
		if err := item.Render(w, r); err != nil {
			return err
		}
	}

	return nil
}
