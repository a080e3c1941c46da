// Package server wires the blog handlers into a chi router and runs the
// public and diagnostics listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/docgen"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SergeyParamoshkin/blog/internal/applog"
	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/category"
	"github.com/SergeyParamoshkin/blog/internal/comment"
	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/i18n"
	"github.com/SergeyParamoshkin/blog/internal/metrics"
	"github.com/SergeyParamoshkin/blog/internal/paginate"
	"github.com/SergeyParamoshkin/blog/internal/store"
	"github.com/SergeyParamoshkin/blog/internal/view"
	"github.com/SergeyParamoshkin/blog/internal/web"
)

const (
	ServiceName     = "blog"
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	cfg     config.Config
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	sessions *auth.Sessions
	resp     *web.Responder

	router chi.Router
}

// New builds the router over st. m may be nil, which disables metrics.
func New(cfg config.Config, logger *zap.SugaredLogger, st store.Store, m *metrics.Metrics) (*Server, error) {
	tmpl, err := view.New()
	if err != nil {
		return nil, err
	}

	catalog, err := i18n.Load(cfg.DefaultLang)
	if err != nil {
		return nil, err
	}

	var events metrics.Recorder = metrics.Nop{}
	if m != nil {
		events = m
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		sessions: auth.NewSessions(st, st, cfg.SessionTTL, cfg.CookieSecure),
		resp:     web.NewResponder(tmpl),
	}

	articles := article.NewHandler(article.NewService(st, st, events), s.resp)
	categories := category.NewHandler(category.NewService(st), s.resp)
	comments := comment.NewHandler(comment.NewService(st, st, events), s.resp)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.Logger)
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(catalog.Middleware)
	r.Use(s.sessions.Middleware)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		applog.From(r.Context()).Debugw("ping")
		if _, err := w.Write([]byte("pong")); err != nil {
			applog.From(r.Context()).Errorw(err.Error())
		}
	})

	r.With(paginate.Middleware).Get("/", articles.ListArticles)

	// RESTy routes for "articles" resource
	r.Route("/articles", func(r chi.Router) {
		r.With(paginate.Middleware).Get("/", articles.ListArticles) // GET /articles?page=2
		r.Post("/", articles.CreateArticle)                         // POST /articles
		r.Get("/search", articles.SearchArticles)                   // GET /articles/search?keyword=cat
		r.Get("/new", articles.NewArticle)
		r.Post("/new", articles.CreateArticle)

		r.Route("/{articleID}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(articles.ArticleCtx)            // Load the *Article on the request context
				r.Get("/", articles.GetArticle)       // GET /articles/123
				r.Put("/", articles.UpdateArticle)    // PUT /articles/123
				r.Delete("/", articles.DeleteArticle) // DELETE /articles/123
				r.Get("/edit", articles.EditArticle)
				r.Post("/edit", articles.UpdateArticle)
				r.Get("/delete", articles.ConfirmDelete)
				r.Post("/delete", articles.DeleteArticle)
			})

			// The login check comes before the article lookup.
			r.Get("/comments/new", comments.NewComment)
			r.Post("/comments/new", comments.CreateComment)
		})
	})

	r.Get("/categories/{catID}", categories.GetCategory)

	r.Get(auth.LoginPath, s.LoginPage)
	r.Post(auth.LoginPath, s.Login)
	r.Post("/logout", s.Logout)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.resp.Error(w, r, store.ErrNotFound)
	})

	s.router = r

	return s, nil
}

// Handler is the public router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// DiagHandler serves liveness and, when enabled, metrics.
func (s *Server) DiagHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// Logger middleware puts a request-scoped logger on the context and writes
// one access log line per request.
func (s *Server) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(applog.With(r.Context(), logger)))

		logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// RoutesDoc documents the router as markdown.
func (s *Server) RoutesDoc() string {
	return docgen.MarkdownRoutesDoc(s.router, docgen.MarkdownOpts{
		ProjectPath: "github.com/SergeyParamoshkin/blog",
		Intro:       "Routes of the blog service.",
	})
}

// RoutesJSON documents the router as JSON.
func (s *Server) RoutesJSON() string {
	return docgen.JSONRoutesDoc(s.router)
}

// Run serves the public and diagnostics listeners until ctx is done or one
// of them fails, then shuts both down.
func (s *Server) Run(ctx context.Context) error {
	public := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	diag := &http.Server{
		Addr:              s.cfg.DiagAddr,
		Handler:           s.DiagHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range []*http.Server{public, diag} {
		g.Go(func() error {
			s.logger.Infow("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Infow("shutting down")
		return errors.Join(public.Shutdown(shutdownCtx), diag.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
