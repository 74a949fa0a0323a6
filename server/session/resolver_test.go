package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/platform"
)

type fakeProvider struct {
	calls   atomic.Int32
	delay   time.Duration
	users   map[string]platform.User
	failure error
}

func (p *fakeProvider) ValidateSession(_ context.Context, token string) (*platform.User, error) {
	p.calls.Add(1)
	time.Sleep(p.delay)
	if p.failure != nil {
		return nil, p.failure
	}
	user, ok := p.users[token]
	if !ok {
		return nil, platform.ErrAuthorization
	}
	return &user, nil
}

func newTestResolver(provider IdentityProvider, jwtSecret string) *Resolver {
	return NewResolver(Config{
		CacheTTL:  xtime.Duration(time.Minute),
		JWTSecret: jwtSecret,
	}, "token", provider, NewMemoryStore())
}

func TestGetWithoutIdentityIsUnknown(t *testing.T) {
	identity := Get(context.Background())
	assert.Equal(t, StateUnknown, identity.State)
	assert.False(t, identity.Known())
	assert.False(t, identity.Authenticated())
}

func TestResolveWithoutTokenIsGuest(t *testing.T) {
	r := newTestResolver(&fakeProvider{}, "")
	identity := r.Resolve(context.Background(), "")
	assert.Equal(t, StateGuest, identity.State)
}

func TestResolveFailureIsGuest(t *testing.T) {
	provider := &fakeProvider{failure: platform.ErrNetwork}
	r := newTestResolver(provider, "")

	identity := r.Resolve(context.Background(), "abc")
	assert.Equal(t, StateGuest, identity.State)
	assert.Nil(t, identity.User)
}

func TestResolveCachesIdentity(t *testing.T) {
	provider := &fakeProvider{users: map[string]platform.User{
		"abc": {ID: "1", FullName: "Somchai", Email: "somchai@example.com"},
	}}
	r := newTestResolver(provider, "")

	for range 3 {
		identity := r.Resolve(context.Background(), "abc")
		require.True(t, identity.Authenticated())
		assert.Equal(t, platform.ID("1"), identity.UserID())
		assert.Equal(t, "abc", identity.Token)
	}
	assert.EqualValues(t, 1, provider.calls.Load())

	r.Clear(context.Background(), "abc")
	r.Resolve(context.Background(), "abc")
	assert.EqualValues(t, 2, provider.calls.Load())
}

func TestResolveCollapsesConcurrentLookups(t *testing.T) {
	provider := &fakeProvider{
		delay: 50 * time.Millisecond,
		users: map[string]platform.User{"abc": {ID: "1"}},
	}
	r := newTestResolver(provider, "")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, r.Resolve(context.Background(), "abc").Authenticated())
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, provider.calls.Load())
}

func TestResolveVerifiesJWTLocally(t *testing.T) {
	secret := "secret"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		FullName: "Nida",
		Email:    "nida@example.com",
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	provider := &fakeProvider{failure: errors.New("should not be called")}
	r := newTestResolver(provider, secret)

	identity := r.Resolve(context.Background(), signed)
	require.True(t, identity.Authenticated())
	assert.Equal(t, platform.ID("42"), identity.UserID())
	assert.Equal(t, "Nida", identity.User.FullName)
	assert.EqualValues(t, 0, provider.calls.Load())
}

func TestResolveFallsBackForForeignJWT(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
	})
	signed, err := token.SignedString([]byte("other"))
	require.NoError(t, err)

	provider := &fakeProvider{users: map[string]platform.User{signed: {ID: "42"}}}
	r := newTestResolver(provider, "secret")

	identity := r.Resolve(context.Background(), signed)
	assert.True(t, identity.Authenticated())
	assert.EqualValues(t, 1, provider.calls.Load())
}

func TestMiddlewareSetsIdentity(t *testing.T) {
	provider := &fakeProvider{users: map[string]platform.User{"abc": {ID: "7"}}}
	r := newTestResolver(provider, "")

	var got Identity
	handler := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = FromRequest(req)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, got.Is("7"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, StateGuest, got.State)
}
