// Package articlerequest binds article and comment forms.
//
// Payloads name the fields a client may set and nothing else: the id, the
// author and the article of a comment are always decided by the server.
// Both JSON bodies and url-encoded forms are accepted.
package articlerequest

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/render"
)

const MaxTitleLength = 255

// ValidationError lists the invalid fields of a bound form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}

	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}

	return e
}

// FormBinder is a payload that can also be filled from form values.
type FormBinder interface {
	render.Binder
	FromForm(values url.Values)
}

// Decode fills v from the request body and validates it with v.Bind.
func Decode(r *http.Request, v FormBinder) error {
	if render.GetRequestContentType(r) == render.ContentTypeJSON {
		return render.Bind(r, v)
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	v.FromForm(r.PostForm)

	return v.Bind(r)
}

// ArticleRequest is the request payload for creating or editing an Article.
type ArticleRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (a *ArticleRequest) FromForm(values url.Values) {
	a.Title = values.Get("title")
	a.Body = values.Get("body")
}

// Bind on ArticleRequest runs after decoding: it trims and validates.
func (a *ArticleRequest) Bind(r *http.Request) error {
	a.Title = strings.TrimSpace(a.Title)
	a.Body = strings.TrimSpace(a.Body)

	verr := &ValidationError{}
	switch {
	case a.Title == "":
		verr.add("title", "This field is required.")
	case utf8.RuneCountInString(a.Title) > MaxTitleLength:
		verr.add("title", fmt.Sprintf("Ensure this value has at most %d characters.", MaxTitleLength))
	}
	if a.Body == "" {
		verr.add("body", "This field is required.")
	}

	return verr.orNil()
}

// CommentRequest carries only the comment body.
type CommentRequest struct {
	Body string `json:"body"`
}

func (c *CommentRequest) FromForm(values url.Values) {
	c.Body = values.Get("body")
}

func (c *CommentRequest) Bind(r *http.Request) error {
	c.Body = strings.TrimSpace(c.Body)

	verr := &ValidationError{}
	if c.Body == "" {
		verr.add("body", "This field is required.")
	}

	return verr.orNil()
}
