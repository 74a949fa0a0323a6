package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/auth"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/queries"
	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
)

var (
	//go:embed static
	static embed.FS

	//go:embed templates/*.gohtml
	templates embed.FS
)

func New(cfg Config) (*Server, error) {
	if cfg.Server.Timezone != "" {
		location, err := time.LoadLocation(cfg.Server.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone: %w", err)
		}
		xtime.Location = location
	}

	var (
		staticFS       http.FileSystem
		t              func() *template.Template
		reloadNotifier *ReloadNotifier
		stopDevWatcher context.CancelFunc
	)
	if cfg.Dev {
		root, err := os.OpenRoot("server/")
		if err != nil {
			return nil, fmt.Errorf("failed to open server directory: %w", err)
		}
		staticFS = http.FS(root.FS())
		t = func() *template.Template {
			return template.Must(template.New("templates").
				Funcs(templateFuncs).
				ParseFS(root.FS(), "templates/*.gohtml"))
		}
		reloadNotifier = NewReloadNotifier()
		stopDevWatcher = startDevWatcher([]string{"server/templates", "server/static"}, reloadNotifier)
	} else {
		staticFS = http.FS(static)

		st := template.Must(template.New("templates").
			Funcs(templateFuncs).
			ParseFS(templates, "templates/*.gohtml"),
		)

		t = func() *template.Template {
			return st
		}
	}

	httpClient := &http.Client{
		Timeout: cfg.Platform.Timeout.Std(),
	}
	platformClient := platform.New(cfg.Platform, httpClient)

	var store session.Store
	if cfg.Redis.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err := session.NewRedisStore(ctx, cfg.Redis)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session store: %w", err)
		}
		store = redisStore
	} else {
		store = session.NewMemoryStore()
	}

	hashKey := []byte(cfg.Server.CookieSecret)
	if len(hashKey) == 0 {
		slog.Warn("No cookie secret configured, flash messages will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(32)
	}

	send, err := newSender(cfg.Notifications)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notifications: %w", err)
	}

	cache := querycache.New(cfg.Cache)

	return &Server{
		Cfg: cfg,
		Server: &http.Server{
			Addr: cfg.Server.Addr,
		},
		HttpClient:     httpClient,
		Platform:       platformClient,
		Cache:          cache,
		Queries:        queries.New(cache, platformClient),
		Sessions:       session.NewResolver(cfg.Session, cfg.Platform.CookieName, platformClient, store),
		Store:          store,
		Auth:           auth.New(cfg.Auth, cfg.Server.PublicURL),
		Cookies:        securecookie.New(hashKey, nil),
		StaticFS:       staticFS,
		Templates:      t,
		ReloadNotifier: reloadNotifier,
		stopDevWatcher: stopDevWatcher,
		send:           send,
	}, nil
}

type Server struct {
	Cfg            Config
	Server         *http.Server
	HttpClient     *http.Client
	Platform       *platform.Client
	Cache          *querycache.Cache
	Queries        *queries.Queries
	Sessions       *session.Resolver
	Store          session.Store
	Auth           *auth.Auth
	Cookies        *securecookie.SecureCookie
	StaticFS       http.FileSystem
	Templates      func() *template.Template
	ReloadNotifier *ReloadNotifier
	stopDevWatcher context.CancelFunc
	send           sendFunc
}

// PublicURL resolves path against the public url of the server.
func (s *Server) PublicURL(path string) string {
	return strings.TrimSuffix(s.Cfg.Server.PublicURL, "/") + path
}

func (s *Server) Start(handler http.Handler) {
	s.Server.Handler = handler
	go func() {
		if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", slog.Any("err", err))
		}
	}()
}

func (s *Server) Stop() {
	if s.stopDevWatcher != nil {
		s.stopDevWatcher()
	}
	if s.ReloadNotifier != nil {
		s.ReloadNotifier.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", slog.Any("err", err))
	}

	s.Cache.Close()
	if closer, ok := s.Store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Error("Failed to close session store", slog.Any("err", err))
		}
	}
}
