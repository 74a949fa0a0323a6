package auth

import (
	"fmt"
	"strings"
)

type Mode string

const (
	// ModeRedirect sends browsers to the auth service, which runs the OAuth flow and sets the session cookie.
	ModeRedirect Mode = "redirect"
	// ModeOAuth2 runs the Google authorization code flow here and trades the result for a session.
	ModeOAuth2 Mode = "oauth2"
)

type Config struct {
	Mode         Mode     `toml:"mode"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n Mode: %s\n ClientID: %s\n ClientSecret: %s\n Scopes: %s",
		c.Mode,
		c.ClientID,
		strings.Repeat("*", len(c.ClientSecret)),
		strings.Join(c.Scopes, ", "),
	)
}
