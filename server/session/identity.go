package session

import (
	"context"
	"net/http"

	"github.com/meetandfeat/web/server/platform"
)

type State int

const (
	// StateUnknown means the identity has not been resolved yet.
	StateUnknown State = iota
	StateGuest
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Identity is the viewer of a request.
type Identity struct {
	State State
	Token string
	User  *platform.User
}

func Guest() Identity {
	return Identity{State: StateGuest}
}

func Authenticated(token string, user platform.User) Identity {
	return Identity{
		State: StateAuthenticated,
		Token: token,
		User:  &user,
	}
}

func (i Identity) Known() bool {
	return i.State != StateUnknown
}

func (i Identity) Authenticated() bool {
	return i.State == StateAuthenticated && i.User != nil
}

func (i Identity) UserID() platform.ID {
	if !i.Authenticated() {
		return ""
	}
	return i.User.ID
}

// Is reports whether the viewer is the user with the given id.
func (i Identity) Is(id platform.ID) bool {
	return id != "" && i.UserID() == id
}

type identityKey struct{}

var identityContextKey = &identityKey{}

func Set(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// Get returns the identity stored in ctx or an unknown identity.
func Get(ctx context.Context) Identity {
	identity, _ := ctx.Value(identityContextKey).(Identity)
	return identity
}

func FromRequest(r *http.Request) Identity {
	return Get(r.Context())
}
