package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/SergeyParamoshkin/blog/internal/applog"
	"github.com/SergeyParamoshkin/blog/internal/articlerequest"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/i18n"
	"github.com/SergeyParamoshkin/blog/internal/view"
	"github.com/SergeyParamoshkin/blog/internal/web"
)

// loginRequest is the login form.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

func (l *loginRequest) FromForm(values url.Values) {
	l.Username = values.Get("username")
	l.Password = values.Get("password")
	l.Next = values.Get("next")
}

func (l *loginRequest) Bind(r *http.Request) error {
	l.Username = strings.TrimSpace(l.Username)
	l.Next = auth.SafeNext(l.Next)

	return nil
}

func (s *Server) loginPage(r *http.Request, form *loginRequest, failed bool) view.Page {
	p := view.Page{
		Title: i18n.T(r.Context(), "login.title"),
		Form:  form,
	}
	if failed {
		p.Errors = map[string]string{"login": auth.ErrInvalidLogin.Error()}
	}

	return p
}

// LoginPage shows the login form; logged in callers go straight to next.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := auth.SafeNext(r.URL.Query().Get("next"))
	if auth.UserFrom(r.Context()) != nil {
		web.Redirect(w, r, next)
		return
	}

	s.resp.HTML(w, r, http.StatusOK, view.Login, s.loginPage(r, &loginRequest{Next: next}, false))
}

// Login opens a session and sends the client to next.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	form := &loginRequest{}
	if err := articlerequest.Decode(r, form); err != nil {
		s.resp.Error(w, r, errresponse.ErrInvalidRequest(err))
		return
	}

	u, err := s.sessions.Login(r.Context(), w, form.Username, form.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidLogin):
		applog.From(r.Context()).Infow("login failed", "username", form.Username)
		if web.WantsJSON(r) {
			s.resp.Error(w, r, errresponse.ErrUnauthenticated)
			return
		}
		form.Password = ""
		s.resp.HTML(w, r, http.StatusUnauthorized, view.Login, s.loginPage(r, form, true))

		return
	case err != nil:
		s.resp.Error(w, r, err)
		return
	}

	applog.From(r.Context()).Infow("logged in", "user_id", u.ID)
	s.resp.Done(w, r, http.StatusNoContent, form.Next, nil)
}

// Logout closes the caller's session.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), w, r); err != nil {
		s.resp.Error(w, r, err)
		return
	}

	s.resp.Done(w, r, http.StatusNoContent, "/", nil)
}
