package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SergeyParamoshkin/blog/internal/applog"
	"github.com/SergeyParamoshkin/blog/internal/store"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

const (
	CookieName = "session_id"
	LoginPath  = "/login"
)

var ErrInvalidLogin = errors.New("invalid username or password")

type ctxKeyUser struct{}

// WithUser stores the authenticated caller on ctx.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

// UserFrom returns the caller stored on ctx, nil when anonymous.
func UserFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(ctxKeyUser{}).(*user.User)
	return u
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	if len(password) < 6 {
		return "", errors.New("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// LoginURL is the login page that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}

	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext keeps only local absolute paths, falling back to "/".
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}

	return next
}

// Sessions issues and resolves cookie sessions.
type Sessions struct {
	users    store.UserStore
	sessions store.SessionStore
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

func NewSessions(users store.UserStore, sessions store.SessionStore, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		secure:   secure,
		now:      time.Now,
	}
}

// Login verifies credentials, opens a session and sets its cookie on w.
func (s *Sessions) Login(ctx context.Context, w http.ResponseWriter, name, password string) (*user.User, error) {
	u, err := s.users.GetUserByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}

	sess := store.Session{
		ID:      uuid.NewString(),
		UserID:  u.ID,
		Expires: s.now().Add(s.ttl).UTC(),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.Expires,
	})

	return u, nil
}

// Logout deletes the session named by the request cookie and expires it.
func (s *Sessions) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	return s.sessions.DeleteSession(ctx, c.Value)
}

// Resolve returns the caller of r, or nil for an anonymous request.
// Expired sessions are removed.
func (s *Sessions) Resolve(ctx context.Context, r *http.Request) (*user.User, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	sess, err := s.sessions.GetSession(ctx, c.Value)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if !sess.Expires.After(s.now()) {
		return nil, s.sessions.DeleteSession(ctx, sess.ID)
	}

	u, err := s.users.GetUser(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}

	return u, nil
}

// Middleware puts the resolved caller on the request context. Session
// lookup failures leave the request anonymous.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.Resolve(r.Context(), r)
		if err != nil {
			applog.From(r.Context()).Warnw("session lookup failed", "error", err)
		}
		if u != nil {
			ctx := WithUser(r.Context(), u)
			ctx = applog.With(ctx, applog.From(ctx).With("user_id", u.ID))
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}
