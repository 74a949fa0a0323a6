package session

import (
	"fmt"
	"strings"

	"github.com/meetandfeat/web/internal/xtime"
)

type Config struct {
	CacheTTL xtime.Duration `toml:"cache_ttl"`
	// JWTSecret enables local verification of HS256 session tokens.
	JWTSecret string `toml:"jwt_secret"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n  CacheTTL: %s\n  JWTSecret: %s",
		c.CacheTTL,
		strings.Repeat("*", len(c.JWTSecret)),
	)
}

type RedisConfig struct {
	URL       string `toml:"url"`
	Password  string `toml:"password"`
	KeyPrefix string `toml:"key_prefix"`
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

func (c RedisConfig) String() string {
	return fmt.Sprintf("\n  URL: %s\n  Password: %s\n  KeyPrefix: %s",
		c.URL,
		strings.Repeat("*", len(c.Password)),
		c.KeyPrefix,
	)
}
