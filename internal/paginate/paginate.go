// Package paginate turns the ?page query parameter into page-number
// slicing over a counted result set.
package paginate

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

const (
	Param     = "page"
	LastPage  = "last"
	firstPage = 1
)

// ErrInvalidPage is a page that is not a number or lies past the end.
var ErrInvalidPage = fmt.Errorf("invalid page: %w", store.ErrNotFound)

// Cursor is the page a client asked for.
type Cursor struct {
	Number int
	Last   bool
}

// Parse reads a page parameter: empty means the first page.
func Parse(raw string) (Cursor, error) {
	switch raw {
	case "":
		return Cursor{Number: firstPage}, nil
	case LastPage:
		return Cursor{Last: true}, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < firstPage {
		return Cursor{}, ErrInvalidPage
	}

	return Cursor{Number: n}, nil
}

type ctxKey struct{}

// Middleware parses the page parameter and sends the cursor down the chain.
// Malformed values stop here with a 404.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Parse(r.URL.Query().Get(Param))
		if err != nil {
			_ = render.Render(w, r, errresponse.ErrNotFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
	})
}

// FromContext returns the cursor set by Middleware, or the first page.
func FromContext(ctx context.Context) Cursor {
	if c, ok := ctx.Value(ctxKey{}).(Cursor); ok {
		return c
	}

	return Cursor{Number: firstPage}
}

// Page describes one slice of a result set of Count items.
type Page struct {
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	PerPage     int  `json:"per_page"`
	Count       int  `json:"count"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// New resolves c against count items. The first page always exists, even
// when count is zero.
func New(c Cursor, count, perPage int) (Page, error) {
	if perPage < 1 {
		return Page{}, fmt.Errorf("per page must be positive, got %d", perPage)
	}

	numPages := (count + perPage - 1) / perPage
	if numPages < firstPage {
		numPages = firstPage
	}

	number := c.Number
	if c.Last {
		number = numPages
	}
	if number < firstPage || number > numPages {
		return Page{}, ErrInvalidPage
	}

	return Page{
		Number:      number,
		NumPages:    numPages,
		PerPage:     perPage,
		Count:       count,
		HasNext:     number < numPages,
		HasPrevious: number > firstPage,
	}, nil
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Page) NextNumber() int     { return p.Number + 1 }
func (p Page) PreviousNumber() int { return p.Number - 1 }
