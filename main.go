package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meetandfeat/web/internal/xslog"
	"github.com/meetandfeat/web/server"
	"github.com/meetandfeat/web/server/web"
)

func main() {
	cfgPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	setupLogger(cfg.Log)
	slog.Info("Starting Meet and Feat", slog.String("config", *cfgPath))
	slog.Debug("Config loaded", slog.String("config", cfg.String()))

	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srv.Start(web.Routes(srv))
	defer srv.Stop()

	slog.Info("Server started", slog.String("addr", cfg.Server.Addr), slog.String("public_url", cfg.Server.PublicURL))

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGTERM, syscall.SIGINT)
	<-s
}

func setupLogger(cfg server.LogConfig) {
	opts := &slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     cfg.Level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case server.LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(xslog.NewFilterHandler(handler, xslog.DropDebugPaths("path", "/static/", "/live"))))
}
