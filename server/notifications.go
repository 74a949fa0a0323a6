package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"

	"github.com/meetandfeat/web/server/platform"
)

const notificationTimeout = 10 * time.Second

type sendFunc func(ctx context.Context, content string) error

func newSender(cfg NotificationsConfig) (sendFunc, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := webhook.NewWithURL(cfg.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook client: %w", err)
	}

	return func(ctx context.Context, content string) error {
		_, err := client.CreateContent(content, rest.WithCtx(ctx))
		return err
	}, nil
}

// SendNotification posts content to the configured Discord webhook. It is a no-op when
// notifications are disabled.
func (s *Server) SendNotification(ctx context.Context, content string) {
	if s.send == nil {
		return
	}

	if err := s.send(ctx, content); err != nil {
		slog.ErrorContext(ctx, "Failed to send notification", slog.Any("err", err))
	}
}

// AnnounceEvent tells the webhook channel about a new event without blocking the request.
func (s *Server) AnnounceEvent(ctx context.Context, event platform.Event) {
	content := fmt.Sprintf("New event **%s** by %s", event.Title, event.CreatedByName)
	if !event.Datetime.IsZero() {
		content += " on " + discord.NewTimestamp(discord.TimestampStyleShortDateTime, event.Datetime.Time).String()
	}
	if event.Location != "" {
		content += " at " + event.Location
	}
	if event.ID != "" {
		content += "\n" + s.PublicURL("/events/"+event.ID.String())
	}
	s.notifyAsync(ctx, content)
}

func (s *Server) AnnounceClub(ctx context.Context, club platform.Club) {
	content := fmt.Sprintf("New club **%s** by %s", club.Name, club.CreatedByName)
	if club.ID != "" {
		content += "\n" + s.PublicURL("/clubs/"+club.ID.String())
	}
	s.notifyAsync(ctx, content)
}

func (s *Server) notifyAsync(ctx context.Context, content string) {
	if s.send == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
		defer cancel()
		s.SendNotification(ctx, content)
	}()
}
