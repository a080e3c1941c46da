// Package i18n loads the embedded message catalogs and picks a language
// for each request.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "lang"
)

//go:embed locales/*.yaml
var localesFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog holds the messages of every supported language.
type Catalog struct {
	builder  *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// Load reads the embedded catalogs; defaultLang answers requests that match
// no supported language.
func Load(defaultLang string) (*Catalog, error) {
	return LoadFS(localesFS, defaultLang)
}

// LoadFS reads locales/*.yaml from fsys.
func LoadFS(fsys fs.FS, defaultLang string) (*Catalog, error) {
	fallback, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLang, err)
	}

	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	c := &Catalog{
		builder:  catalog.NewBuilder(catalog.Fallback(fallback)),
		fallback: fallback,
	}

	haveFallback := false
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}

		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if len(file.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: no messages", path)
		}

		tag, err := language.Parse(strings.TrimSpace(file.Locale))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: locale: %w", path, err)
		}

		for key, msg := range file.Messages {
			if err := c.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s: key %q: %w", path, key, err)
			}
		}

		if tag == fallback {
			haveFallback = true
			// The matcher returns its first tag when nothing matches.
			c.tags = append([]language.Tag{tag}, c.tags...)
		} else {
			c.tags = append(c.tags, tag)
		}
	}

	if !haveFallback {
		return nil, fmt.Errorf("default language %s has no catalog", fallback)
	}

	c.matcher = language.NewMatcher(c.tags)

	return c, nil
}

// Tags returns the supported languages, default first.
func (c *Catalog) Tags() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

// Default returns the fallback language.
func (c *Catalog) Default() language.Tag {
	return c.fallback
}

// Match returns the supported language closest to any of tags.
func (c *Catalog) Match(tags ...language.Tag) (language.Tag, bool) {
	if len(tags) == 0 {
		return c.fallback, false
	}

	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.fallback, false
	}

	return c.tags[idx], true
}

// ResolveTag determines the best language for the request from the lang
// parameter, the language cookie and Accept-Language, in that order. The bool
// reports whether the lang parameter should be persisted as a cookie.
func (c *Catalog) ResolveTag(r *http.Request) (language.Tag, bool) {
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if parsed, err := language.Parse(v); err == nil {
			if tag, ok := c.Match(parsed); ok {
				return tag, true
			}
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if parsed, err := language.Parse(cookie.Value); err == nil {
			if tag, ok := c.Match(parsed); ok {
				return tag, false
			}
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			tag, _ := c.Match(tags...)
			return tag, false
		}
	}

	return c.fallback, false
}

// Printer returns a message printer for tag.
func (c *Catalog) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(c.builder))
}

type ctxKey struct{}

type locale struct {
	tag     language.Tag
	printer *message.Printer
}

// Middleware puts the printer of the request language on the context.
func (c *Catalog) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, persist := c.ResolveTag(r)
		if persist {
			SetLanguageCookie(w, tag)
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, locale{tag: tag, printer: c.Printer(tag)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// PrinterFrom returns the printer set by Middleware. Without one, keys are
// printed as they are.
func PrinterFrom(ctx context.Context) *message.Printer {
	if l, ok := ctx.Value(ctxKey{}).(locale); ok {
		return l.printer
	}

	return message.NewPrinter(language.Und)
}

// LangFrom returns the request language, or language.Und outside Middleware.
func LangFrom(ctx context.Context) language.Tag {
	if l, ok := ctx.Value(ctxKey{}).(locale); ok {
		return l.tag
	}

	return language.Und
}

// T translates key with args using the request printer.
func T(ctx context.Context, key string, args ...any) string {
	return PrinterFrom(ctx).Sprintf(key, args...)
}
