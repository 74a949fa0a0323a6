package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/auth"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
)

const envPrefix = "MNF_"

func LoadConfig(cfgPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	file, err := os.Open(cfgPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cfg := defaultConfig()
	if _, err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)

	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:     slog.LevelInfo,
			Format:    LogFormatText,
			AddSource: false,
		},
		Server: ServerConfig{
			Addr:      ":8085",
			PublicURL: "http://localhost:8085",
			Timezone:  "Asia/Bangkok",
		},
		Platform: platform.Config{
			AuthURL:      "http://localhost:3001",
			EventsURL:    "http://localhost:3002",
			ClubsURL:     "http://localhost:3003",
			CookieName:   "token",
			ExchangePath: "/auth/google/callback",
			Timeout:      xtime.Duration(10 * time.Second),
			Every:        xtime.Duration(20 * time.Millisecond),
			Burst:        20,
			MaxRetries:   2,
			RetryDelay:   xtime.Duration(250 * time.Millisecond),
		},
		Cache: querycache.Config{
			StaleTime:    xtime.Duration(30 * time.Second),
			GCTime:       xtime.Duration(5 * time.Minute),
			FetchTimeout: xtime.Duration(10 * time.Second),
		},
		Session: session.Config{
			CacheTTL: xtime.Duration(time.Minute),
		},
		Auth: auth.Config{
			Mode: auth.ModeRedirect,
		},
	}
}

type Config struct {
	Dev           bool                `toml:"dev"`
	Log           LogConfig           `toml:"log"`
	Server        ServerConfig        `toml:"server"`
	Platform      platform.Config     `toml:"platform"`
	Cache         querycache.Config   `toml:"cache"`
	Session       session.Config      `toml:"session"`
	Redis         session.RedisConfig `toml:"redis"`
	Auth          auth.Config         `toml:"auth"`
	Notifications NotificationsConfig `toml:"notifications"`
}

func (c Config) String() string {
	return fmt.Sprintf("Dev: %t\nLog: %s\nServer: %s\nPlatform: %s\nCache: %s\nSession: %s\nRedis: %s\nAuth: %s\nNotifications: %s",
		c.Dev,
		c.Log,
		c.Server,
		c.Platform,
		c.Cache,
		c.Session,
		c.Redis,
		c.Auth,
		c.Notifications,
	)
}

// applyEnv overrides secrets from the environment so they can stay out of the config file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"AUTH_CLIENT_SECRET":        &c.Auth.ClientSecret,
		"SESSION_JWT_SECRET":        &c.Session.JWTSecret,
		"SERVER_COOKIE_SECRET":      &c.Server.CookieSecret,
		"REDIS_PASSWORD":            &c.Redis.Password,
		"NOTIFICATIONS_WEBHOOK_URL": &c.Notifications.WebhookURL,
	}
	for name, field := range overrides {
		if value, ok := lookup(envPrefix + name); ok && value != "" {
			*field = value
		}
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Platform.AuthURL == "" || c.Platform.EventsURL == "" || c.Platform.ClubsURL == "" {
		errs = append(errs, errors.New("platform auth_url, events_url and clubs_url are required"))
	}
	if c.Platform.CookieName == "" {
		errs = append(errs, errors.New("platform cookie_name is required"))
	}
	switch c.Auth.Mode {
	case auth.ModeRedirect:
	case auth.ModeOAuth2:
		if c.Auth.ClientID == "" || c.Auth.ClientSecret == "" {
			errs = append(errs, errors.New("auth client_id and client_secret are required in oauth2 mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth mode %q", c.Auth.Mode))
	}
	if c.Notifications.Enabled && c.Notifications.WebhookURL == "" {
		errs = append(errs, errors.New("notifications webhook_url is required when notifications are enabled"))
	}
	return errors.Join(errs...)
}

type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    LogFormat  `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

func (c LogConfig) String() string {
	return fmt.Sprintf("\n Level: %s\n Format: %s\n AddSource: %t",
		c.Level,
		c.Format,
		c.AddSource,
	)
}

type ServerConfig struct {
	Addr         string   `toml:"addr"`
	PublicURL    string   `toml:"public_url"`
	CookieSecret string   `toml:"cookie_secret"`
	SecureCookie bool     `toml:"secure_cookie"`
	Timezone     string   `toml:"timezone"`
	CORSOrigins  []string `toml:"cors_origins"`
}

func (c ServerConfig) String() string {
	return fmt.Sprintf("\n Address: %s\n PublicURL: %s\n CookieSecret: %s\n SecureCookie: %t\n Timezone: %s\n CORSOrigins: %s",
		c.Addr,
		c.PublicURL,
		strings.Repeat("*", len(c.CookieSecret)),
		c.SecureCookie,
		c.Timezone,
		strings.Join(c.CORSOrigins, ", "),
	)
}

type NotificationsConfig struct {
	Enabled    bool   `toml:"enabled"`
	WebhookURL string `toml:"webhook_url"`
}

func (c NotificationsConfig) String() string {
	return fmt.Sprintf("\n Enabled: %t\n WebhookURL: %s",
		c.Enabled,
		strings.Repeat("*", len(c.WebhookURL)),
	)
}
