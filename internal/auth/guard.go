package auth

import (
	"errors"

	"github.com/SergeyParamoshkin/blog/internal/user"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
)

// Decision is the outcome of evaluating guards for a caller.
type Decision int

const (
	Authorized Decision = iota
	Forbidden
	Unauthenticated
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Forbidden:
		return "forbidden"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for d, or nil when Authorized.
func (d Decision) Err() error {
	switch d {
	case Authorized:
		return nil
	case Unauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

// Guard decides whether caller may proceed. A nil caller is anonymous.
type Guard func(caller *user.User) Decision

// LoginRequired admits any authenticated caller.
func LoginRequired() Guard {
	return func(caller *user.User) Decision {
		if caller == nil {
			return Unauthenticated
		}
		return Authorized
	}
}

// PermissionRequired sends anonymous callers to login and refuses
// authenticated callers lacking perm.
func PermissionRequired(perm user.Permission) Guard {
	return func(caller *user.User) Decision {
		switch {
		case caller == nil:
			return Unauthenticated
		case !caller.HasPerm(perm):
			return Forbidden
		default:
			return Authorized
		}
	}
}

// OwnerOnly refuses everyone but the owner, anonymous callers included.
func OwnerOnly(ownerID int64) Guard {
	return func(caller *user.User) Decision {
		if !caller.Is(ownerID) {
			return Forbidden
		}
		return Authorized
	}
}

// Check evaluates guards in order and returns the first refusal.
func Check(caller *user.User, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(caller); d != Authorized {
			return d
		}
	}

	return Authorized
}

// Require is Check returning the decision's error.
func Require(caller *user.User, guards ...Guard) error {
	return Check(caller, guards...).Err()
}
