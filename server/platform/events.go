package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
)

// ListEvents returns the events selected by filter. It returns an empty slice when none match.
func (c *Client) ListEvents(ctx context.Context, token string, filter EventFilter) ([]Event, error) {
	var (
		events list[Event]
		err    error
	)
	switch {
	case filter.ClubID != "":
		_, err = c.do(ctx, http.MethodGet, endpoint(c.cfg.EventsURL, "club", filter.ClubID.String(), "events"), token, nil, &events)
	case filter.MemberOf != nil:
		_, err = c.do(ctx, http.MethodPost, endpoint(c.cfg.EventsURL, "events"), token, scopeRequest{ClubIDs: filter.MemberOf}, &events)
	default:
		_, err = c.do(ctx, http.MethodGet, endpoint(c.cfg.EventsURL, "events"), token, nil, &events)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if events == nil {
		return []Event{}, nil
	}
	return events, nil
}

// GetEvent resolves a single event from the list it is visible in.
// The events service has no single event read.
func (c *Client) GetEvent(ctx context.Context, token string, id ID, filter EventFilter) (*Event, error) {
	events, err := c.ListEvents(ctx, token, filter)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(events, func(e Event) bool {
		return e.ID == id
	})
	if i == -1 {
		return nil, fmt.Errorf("failed to get event %q: %w", id, ErrNotFound)
	}
	return &events[i], nil
}

func (c *Client) CreateEvent(ctx context.Context, token string, input EventInput) (*Event, error) {
	var created item[Event]
	if _, err := c.do(ctx, http.MethodPost, endpoint(c.cfg.EventsURL, "event"), token, input, &created); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if created.Value.ID == "" {
		event := input.Event("")
		return &event, nil
	}
	return &created.Value, nil
}

func (c *Client) UpdateEvent(ctx context.Context, token string, id ID, input EventInput) (*Event, error) {
	var updated item[Event]
	if _, err := c.do(ctx, http.MethodPut, endpoint(c.cfg.EventsURL, "event", id.String()), token, input, &updated); err != nil {
		return nil, fmt.Errorf("failed to update event %q: %w", id, err)
	}

	if updated.Value.ID == "" {
		event := input.Event(id)
		return &event, nil
	}
	return &updated.Value, nil
}

func (c *Client) DeleteEvent(ctx context.Context, token string, id ID) error {
	if _, err := c.do(ctx, http.MethodDelete, endpoint(c.cfg.EventsURL, "event", id.String()), token, nil, nil); err != nil {
		return fmt.Errorf("failed to delete event %q: %w", id, err)
	}
	return nil
}

// JoinEvent adds userID to the participants. A full event fails with ErrCapacity.
func (c *Client) JoinEvent(ctx context.Context, token string, id ID, userID ID) error {
	slog.DebugContext(ctx, "Joining event", slog.String("event_id", id.String()), slog.String("user_id", userID.String()))
	if _, err := c.do(ctx, http.MethodPost, endpoint(c.cfg.EventsURL, "event", id.String(), "join"), token, membershipRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("failed to join event %q: %w", id, capacityError(err))
	}
	return nil
}

func (c *Client) LeaveEvent(ctx context.Context, token string, id ID, userID ID) error {
	slog.DebugContext(ctx, "Leaving event", slog.String("event_id", id.String()), slog.String("user_id", userID.String()))
	if _, err := c.do(ctx, http.MethodPost, endpoint(c.cfg.EventsURL, "event", id.String(), "leave"), token, membershipRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("failed to leave event %q: %w", id, err)
	}
	return nil
}

// HostedEvents returns the events created by userID.
func (c *Client) HostedEvents(ctx context.Context, token string, userID ID) ([]Event, error) {
	var events list[Event]
	if _, err := c.do(ctx, http.MethodGet, endpoint(c.cfg.EventsURL, "user", userID.String(), "events"), token, nil, &events); err != nil {
		return nil, fmt.Errorf("failed to get hosted events: %w", err)
	}
	if events == nil {
		return []Event{}, nil
	}
	return events, nil
}

// ParticipatedEvents returns the events userID has joined.
func (c *Client) ParticipatedEvents(ctx context.Context, token string, userID ID) ([]Event, error) {
	var events list[Event]
	if _, err := c.do(ctx, http.MethodGet, endpoint(c.cfg.EventsURL, "user", userID.String(), "participated-events"), token, nil, &events); err != nil {
		return nil, fmt.Errorf("failed to get participated events: %w", err)
	}
	if events == nil {
		return []Event{}, nil
	}
	return events, nil
}

// SearchEvents filters the events selected by filter by query.
func (c *Client) SearchEvents(ctx context.Context, token string, query string, filter EventFilter) ([]Event, error) {
	events, err := c.ListEvents(ctx, token, filter)
	if err != nil {
		return nil, err
	}
	return FilterEvents(events, query), nil
}
