package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SessionTTL is how long the auth service keeps a session token valid.
const SessionTTL = 3 * 24 * time.Hour

// ValidateSession resolves the user owning token. An unknown or expired token fails with ErrAuthorization.
func (c *Client) ValidateSession(ctx context.Context, token string) (*User, error) {
	var user item[User]
	if _, err := c.do(ctx, http.MethodGet, endpoint(c.cfg.AuthURL, "auth", "validate"), token, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}
	if user.Value.ID == "" {
		return nil, fmt.Errorf("failed to validate session: %w", ErrAuthorization)
	}
	return &user.Value, nil
}

// LoginURL is where browsers are sent to log in with the auth service.
// The auth service redirects back to callbackURL once the session cookie is set.
func (c *Client) LoginURL(callbackURL string) string {
	return endpoint(c.cfg.AuthURL, "auth", "login") + "?" + url.Values{"callbackUrl": {callbackURL}}.Encode()
}

func (c *Client) Logout(ctx context.Context, token string) error {
	if _, err := c.do(ctx, http.MethodGet, endpoint(c.cfg.AuthURL, "auth", "logout"), token, nil, nil); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// ExchangeToken trades an OAuth provider token for a session token.
// The auth service answers with the session cookie or a json body carrying the token.
func (c *Client) ExchangeToken(ctx context.Context, providerToken string) (string, time.Time, error) {
	var body tokenResponse
	rs, err := c.do(ctx, http.MethodPost, c.cfg.AuthURL+c.cfg.ExchangePath, "", tokenRequest{Token: providerToken}, &body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to exchange token: %w", err)
	}

	expiration := time.Now().Add(SessionTTL)
	for _, cookie := range rs.Cookies() {
		if cookie.Name != c.cfg.CookieName || cookie.Value == "" {
			continue
		}
		if !cookie.Expires.IsZero() {
			expiration = cookie.Expires
		}
		return cookie.Value, expiration, nil
	}

	if body.Token == "" {
		return "", time.Time{}, fmt.Errorf("failed to exchange token: no session in response: %w", ErrAuthorization)
	}
	return body.Token, expiration, nil
}
