package model

import "time"

// Article data model. AuthorName is filled from the users table on read.
// Date is the creation time; Updated moves forward on every edit and every
// new comment.
type Article struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AuthorID   int64     `json:"author_id"` // the author
	AuthorName string    `json:"author_name,omitempty"`
	CategoryID *int64    `json:"category_id,omitempty"`
	Date       time.Time `json:"date"`
	Updated    time.Time `json:"updated"`
}

// Category groups articles; ArticleSet is only populated by category detail.
type Category struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ArticleSet []Article `json:"articles"`
}

// Comment belongs to one article and one author, both set server-side.
type Comment struct {
	ID         int64     `json:"id"`
	Body       string    `json:"body"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	ArticleID  int64     `json:"article_id"`
	Created    time.Time `json:"created"`
}
