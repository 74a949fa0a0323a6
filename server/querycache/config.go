package querycache

import (
	"fmt"

	"github.com/meetandfeat/web/internal/xtime"
)

type Config struct {
	StaleTime    xtime.Duration `toml:"stale_time"`
	GCTime       xtime.Duration `toml:"gc_time"`
	FetchTimeout xtime.Duration `toml:"fetch_timeout"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n StaleTime: %s\n GCTime: %s\n FetchTimeout: %s",
		c.StaleTime,
		c.GCTime,
		c.FetchTimeout,
	)
}
