package platform

import (
	"fmt"

	"github.com/meetandfeat/web/internal/xtime"
)

type Config struct {
	AuthURL      string         `toml:"auth_url"`
	EventsURL    string         `toml:"events_url"`
	ClubsURL     string         `toml:"clubs_url"`
	CookieName   string         `toml:"cookie_name"`
	ExchangePath string         `toml:"exchange_path"`
	Timeout      xtime.Duration `toml:"timeout"`
	Every        xtime.Duration `toml:"every"`
	Burst        int            `toml:"burst"`
	MaxRetries   int            `toml:"max_retries"`
	RetryDelay   xtime.Duration `toml:"retry_delay"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n AuthURL: %s\n EventsURL: %s\n ClubsURL: %s\n CookieName: %s\n ExchangePath: %s\n Timeout: %s\n Every: %s\n Burst: %d\n MaxRetries: %d\n RetryDelay: %s",
		c.AuthURL,
		c.EventsURL,
		c.ClubsURL,
		c.CookieName,
		c.ExchangePath,
		c.Timeout,
		c.Every,
		c.Burst,
		c.MaxRetries,
		c.RetryDelay,
	)
}
