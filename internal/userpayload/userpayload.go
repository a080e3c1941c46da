package userpayload

import (
	"net/http"

	"github.com/SergeyParamoshkin/blog/internal/auth"
)

//--
// Response payload for the author of an article or comment.
//
// Only the id and the display name leave the server; password hashes and
// permissions stay on user.User.
//--

type UserPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Self is true when the payload describes the caller.
	Self bool `json:"self"`
}

func NewUserPayloadResponse(id int64, name string) *UserPayload {
	return &UserPayload{ID: id, Name: name}
}

// Render on UserPayload marks the caller's own records before marshalling.
func (u *UserPayload) Render(w http.ResponseWriter, r *http.Request) error {
	u.Self = auth.UserFrom(r.Context()).Is(u.ID)

	return nil
}
