package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/platform"
)

const defaultCacheTTL = time.Minute

// IdentityProvider validates a session token against the auth service.
type IdentityProvider interface {
	ValidateSession(ctx context.Context, token string) (*platform.User, error)
}

// Claims are the claims of a session token issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	ID       platform.ID `json:"id,omitempty"`
	UserID   platform.ID `json:"user_id,omitempty"`
	FullName string      `json:"fullName,omitempty"`
	Name     string      `json:"name,omitempty"`
	Email    string      `json:"email,omitempty"`
}

func (c Claims) User() platform.User {
	id := c.ID
	if id == "" {
		id = c.UserID
	}
	if id == "" {
		id = platform.ID(c.Subject)
	}
	name := c.FullName
	if name == "" {
		name = c.Name
	}
	return platform.User{
		ID:       id,
		FullName: name,
		Email:    c.Email,
	}
}

func NewResolver(cfg Config, cookieName string, provider IdentityProvider, store Store) *Resolver {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = xtime.Duration(defaultCacheTTL)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Resolver{
		cfg:        cfg,
		cookieName: cookieName,
		provider:   provider,
		store:      store,
	}
}

// Resolver turns a session cookie into an Identity.
type Resolver struct {
	cfg        Config
	cookieName string
	provider   IdentityProvider
	store      Store
	group      singleflight.Group
}

func (r *Resolver) CookieName() string {
	return r.cookieName
}

// Token returns the session token of the request, if any.
func (r *Resolver) Token(req *http.Request) string {
	cookie, err := req.Cookie(r.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Resolve returns the identity for token. It never fails, any error resolves to a guest.
func (r *Resolver) Resolve(ctx context.Context, token string) Identity {
	if token == "" {
		return Guest()
	}

	user, err := r.resolve(ctx, token)
	if err != nil {
		slog.WarnContext(ctx, "failed to resolve session", slog.Any("err", err))
		return Guest()
	}
	return Authenticated(token, *user)
}

func (r *Resolver) resolve(ctx context.Context, token string) (*platform.User, error) {
	if r.cfg.JWTSecret != "" {
		user, err := r.verify(token)
		if err == nil {
			return user, nil
		}
		slog.DebugContext(ctx, "local session verification failed, asking auth service", slog.Any("err", err))
	}

	if user, ok, err := r.store.Get(ctx, token); err != nil {
		slog.WarnContext(ctx, "failed to read cached session", slog.Any("err", err))
	} else if ok {
		return user, nil
	}

	v, err, _ := r.group.Do(tokenKey(token), func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		user, err := r.provider.ValidateSession(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to validate session: %w", err)
		}
		if err = r.store.Set(ctx, token, *user, r.cfg.CacheTTL.Std()); err != nil {
			slog.WarnContext(ctx, "failed to cache session", slog.Any("err", err))
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*platform.User), nil
}

func (r *Resolver) verify(tokenString string) (*platform.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(r.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	user := claims.User()
	if user.ID == "" {
		return nil, errors.New("token has no user id")
	}
	return &user, nil
}

// Clear forgets the cached identity of token.
func (r *Resolver) Clear(ctx context.Context, token string) {
	if token == "" {
		return
	}
	r.group.Forget(tokenKey(token))
	if err := r.store.Delete(ctx, token); err != nil {
		slog.WarnContext(ctx, "failed to clear session", slog.Any("err", err))
	}
}

// Middleware resolves the identity of every request and stores it in the request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		identity := r.Resolve(req.Context(), r.Token(req))
		next.ServeHTTP(w, req.WithContext(Set(req.Context(), identity)))
	})
}
