// Package view renders pages from the embedded html/template files.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"time"

	"golang.org/x/text/message"

	"github.com/SergeyParamoshkin/blog/internal/user"
)

// Template names.
const (
	ArticleList    = "article_list.html"
	ArticleDetail  = "article_detail.html"
	ArticleNew     = "article_new.html"
	ArticleEdit    = "article_edit.html"
	ArticleDelete  = "article_delete.html"
	CategoryDetail = "category_detail.html"
	CommentNew     = "comment_new.html"
	SearchResults  = "search_results.html"
	Login          = "login.html"
	Error          = "error.html"
)

// shared files are parsed into every page.
var shared = []string{"base.html", "article_form.html"}

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer executes the template name with data.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// Page is the data every template receives.
type Page struct {
	Title  string
	Lang   string
	User   *user.User
	Flash  []string
	Data   any
	Form   any
	Errors map[string]string

	Printer *message.Printer
}

// Tr translates key for the page language.
func (p Page) Tr(key string, args ...any) string {
	if p.Printer == nil {
		if len(args) == 0 {
			return key
		}
		return fmt.Sprintf(key, args...)
	}

	return p.Printer.Sprintf(key, args...)
}

// Templates is the parsed set of pages.
type Templates struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
}

// New parses the embedded templates.
func New() (*Templates, error) {
	return Parse(templatesFS, "templates")
}

// Parse reads every page under dir of fsys together with the shared layout.
func Parse(fsys fs.FS, dir string) (*Templates, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}

	isShared := map[string]bool{}
	sharedPaths := make([]string, 0, len(shared))
	for _, name := range shared {
		isShared[name] = true
		sharedPaths = append(sharedPaths, path.Join(dir, name))
	}

	t := &Templates{pages: map[string]*template.Template{}}
	for _, file := range files {
		name := path.Base(file)
		if isShared[name] {
			continue
		}

		page, err := template.New(name).Funcs(funcs).ParseFS(fsys, append(sharedPaths, file)...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.pages[name] = page
	}

	return t, nil
}

// Render executes the page name. Nothing is written to w on failure.
func (t *Templates) Render(w io.Writer, name string, data any) error {
	page, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	_, err := buf.WriteTo(w)

	return err
}
