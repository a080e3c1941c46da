// Package client is a small Go client for the blog JSON API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Client struct {
	http.Client
	Addr string
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Self bool   `json:"self"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	ArticleID int64     `json:"article_id"`
	Created   time.Time `json:"created"`
	Author    User      `json:"author"`
}

type Article struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CategoryID *int64    `json:"category_id,omitempty"`
	Date       time.Time `json:"date"`
	Updated    time.Time `json:"updated"`
	Author     User      `json:"author"`
	Comments   []Comment `json:"comments,omitempty"`
	CanEdit    bool      `json:"can_edit"`
	CanDelete  bool      `json:"can_delete"`
}

type Page struct {
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	PerPage     int  `json:"per_page"`
	Count       int  `json:"count"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

type ArticlePage struct {
	Articles []Article `json:"articles"`
	Page     Page      `json:"page"`
}

type SearchResult struct {
	Keyword  string    `json:"keyword"`
	Articles []Article `json:"articles"`
}

type Category struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Articles []Article `json:"articles"`
}

// APIError is a non-2xx answer of the API.
type APIError struct {
	StatusCode int
	Status     string `json:"status"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Status, e.Message)
	}

	return fmt.Sprintf("%d %s", e.StatusCode, e.Status)
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Addr+"/ping", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), err
}

// Articles fetches one page of the article list. page is a number or "last".
func (c *Client) Articles(ctx context.Context, page string) (*ArticlePage, error) {
	q := url.Values{}
	if page != "" {
		q.Set("page", page)
	}

	var out ArticlePage
	if err := c.getJSON(ctx, "/articles", q, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Article(ctx context.Context, id int64) (*Article, error) {
	var out Article
	if err := c.getJSON(ctx, "/articles/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Category(ctx context.Context, id int64) (*Category, error) {
	var out Category
	if err := c.getJSON(ctx, "/categories/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Search(ctx context.Context, keyword string) (*SearchResult, error) {
	var out SearchResult
	if err := c.getJSON(ctx, "/articles/search", url.Values{"keyword": {keyword}}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	target := c.Addr + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
