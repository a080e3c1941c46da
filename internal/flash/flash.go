// Package flash carries one-shot messages across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const CookieName = "flash"

// Add queues msg for the next page the client loads. Messages already
// queued by r are kept.
func Add(w http.ResponseWriter, r *http.Request, msg string) {
	msgs := append(read(r), msg)

	raw, err := json.Marshal(msgs)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the queued messages and clears the cookie.
func Pop(w http.ResponseWriter, r *http.Request) []string {
	msgs := read(r)
	if len(msgs) == 0 {
		return nil
	}

	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	return msgs
}

func read(r *http.Request) []string {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}

	var msgs []string
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil
	}

	return msgs
}
