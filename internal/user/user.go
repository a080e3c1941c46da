package user

// Permission is a codename granted to a user, in "app.action_model" form.
type Permission string

const (
	AddArticle    Permission = "articles.add_article"
	ChangeArticle Permission = "articles.change_article"
	DeleteArticle Permission = "articles.delete_article"
)

// User data model. The password hash never leaves the storage and auth layers.
type User struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	Permissions  []Permission `json:"-"`
}

// HasPerm reports whether u holds perm. A nil user holds nothing.
func (u *User) HasPerm(perm Permission) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}

	return false
}

// Is reports whether u is the user identified by id.
func (u *User) Is(id int64) bool {
	return u != nil && u.ID != 0 && u.ID == id
}

// ParsePermissions converts stored codenames, dropping blanks.
func ParsePermissions(names []string) []Permission {
	perms := make([]Permission, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		perms = append(perms, Permission(n))
	}

	return perms
}
