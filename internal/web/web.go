// Package web answers requests either as JSON payloads or as rendered
// pages, depending on what the client accepts.
package web

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/applog"
	"github.com/SergeyParamoshkin/blog/internal/articlerequest"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/flash"
	"github.com/SergeyParamoshkin/blog/internal/i18n"
	"github.com/SergeyParamoshkin/blog/internal/view"
)

const defaultLang = "en"

// WantsJSON reports whether the client asked for a JSON payload.
func WantsJSON(r *http.Request) bool {
	return render.GetAcceptedContentType(r) == render.ContentTypeJSON
}

// Responder writes payloads and pages.
type Responder struct {
	view view.Renderer
}

func NewResponder(v view.Renderer) *Responder {
	return &Responder{view: v}
}

// Render answers with payload as JSON, or with the page name showing it.
func (rs *Responder) Render(w http.ResponseWriter, r *http.Request, status int, name string, p view.Page, payload render.Renderer) {
	if WantsJSON(r) {
		render.Status(r, status)
		if err := render.Render(w, r, payload); err != nil {
			rs.Error(w, r, errresponse.ErrRender(err))
		}

		return
	}

	if payload != nil {
		if err := payload.Render(w, r); err != nil {
			rs.Error(w, r, errresponse.ErrRender(err))
			return
		}
		if p.Data == nil {
			p.Data = payload
		}
	}

	rs.HTML(w, r, status, name, p)
}

// HTML renders the page name. The template runs before anything is
// written, so a failing template still yields a clean 500.
func (rs *Responder) HTML(w http.ResponseWriter, r *http.Request, status int, name string, p view.Page) {
	ctx := r.Context()

	p.User = auth.UserFrom(ctx)
	p.Printer = i18n.PrinterFrom(ctx)
	p.Lang = defaultLang
	if tag := i18n.LangFrom(ctx); !tag.IsRoot() {
		p.Lang = tag.String()
	}

	// Flash messages are catalog keys, shown in the language of this request.
	for _, key := range flash.Pop(w, r) {
		p.Flash = append(p.Flash, i18n.T(ctx, key))
	}

	var buf bytes.Buffer
	if err := rs.view.Render(&buf, name, p); err != nil {
		applog.From(ctx).Errorw("render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		applog.From(ctx).Warnw("write response", "error", err)
	}
}

// Done finishes a successful mutation: JSON clients get status and
// payload, browsers are redirected to location.
func (rs *Responder) Done(w http.ResponseWriter, r *http.Request, status int, location string, payload render.Renderer) {
	if !WantsJSON(r) {
		Redirect(w, r, location)
		return
	}

	if status == http.StatusCreated {
		w.Header().Set("Location", location)
	}
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	render.Status(r, status)
	if err := render.Render(w, r, payload); err != nil {
		applog.From(r.Context()).Errorw("render payload", "error", err)
	}
}

// Invalid re-renders the form name with the field errors of err. Any other
// error is handled by Error.
func (rs *Responder) Invalid(w http.ResponseWriter, r *http.Request, name string, p view.Page, err error) {
	var verr *articlerequest.ValidationError
	if !errors.As(err, &verr) || WantsJSON(r) {
		rs.Error(w, r, err)
		return
	}

	p.Errors = verr.Fields
	rs.HTML(w, r, http.StatusUnprocessableEntity, name, p)
}

// Error maps err onto a response. Browsers are sent to the login page when
// authentication is required.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	resp := errresponse.FromError(err)

	logger := applog.From(r.Context())
	if resp.HTTPStatusCode >= http.StatusInternalServerError {
		logger.Errorw("request failed", "path", r.URL.Path, "error", err)
	} else {
		logger.Debugw("request refused", "path", r.URL.Path, "status", resp.HTTPStatusCode, "error", err)
	}

	if WantsJSON(r) {
		if err := render.Render(w, r, resp); err != nil {
			logger.Errorw("render error payload", "error", err)
		}

		return
	}

	if resp.HTTPStatusCode == http.StatusUnauthorized {
		Redirect(w, r, auth.LoginURL(r.URL.RequestURI()))
		return
	}

	rs.HTML(w, r, resp.HTTPStatusCode, view.Error, view.Page{Title: resp.StatusText, Data: resp})
}

// Redirect sends the client to location with 303 See Other, so a POST is
// followed by a GET.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
