package platform

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ListClubs(ctx context.Context, token string) ([]Club, error) {
	var clubs list[Club]
	if _, err := c.do(ctx, http.MethodGet, endpoint(c.cfg.ClubsURL, "clubs"), token, nil, &clubs); err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	if clubs == nil {
		return []Club{}, nil
	}
	return clubs, nil
}

func (c *Client) GetClub(ctx context.Context, token string, id ID) (*Club, error) {
	var club item[Club]
	if _, err := c.do(ctx, http.MethodGet, endpoint(c.cfg.ClubsURL, "club", id.String()), token, nil, &club); err != nil {
		return nil, fmt.Errorf("failed to get club %q: %w", id, err)
	}
	if club.Value.ID == "" {
		return nil, fmt.Errorf("failed to get club %q: %w", id, ErrNotFound)
	}
	return &club.Value, nil
}

func (c *Client) CreateClub(ctx context.Context, token string, input ClubInput) (*Club, error) {
	var created item[Club]
	if _, err := c.do(ctx, http.MethodPost, endpoint(c.cfg.ClubsURL, "club"), token, input, &created); err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}

	if created.Value.ID == "" {
		club := input.Club("")
		return &club, nil
	}
	return &created.Value, nil
}

func (c *Client) UpdateClub(ctx context.Context, token string, id ID, update ClubUpdate) (*Club, error) {
	var updated item[Club]
	if _, err := c.do(ctx, http.MethodPatch, endpoint(c.cfg.ClubsURL, "club", id.String()), token, update, &updated); err != nil {
		return nil, fmt.Errorf("failed to update club %q: %w", id, err)
	}

	if updated.Value.ID == "" {
		return &Club{
			ID:          id,
			Name:        update.Name.Value,
			Description: update.Description.Value,
		}, nil
	}
	return &updated.Value, nil
}

func (c *Client) DeleteClub(ctx context.Context, token string, id ID) error {
	if _, err := c.do(ctx, http.MethodDelete, endpoint(c.cfg.ClubsURL, "club", id.String()), token, nil, nil); err != nil {
		return fmt.Errorf("failed to delete club %q: %w", id, err)
	}
	return nil
}

func (c *Client) JoinClub(ctx context.Context, token string, id ID, userID ID) error {
	if _, err := c.do(ctx, http.MethodPost, endpoint(c.cfg.ClubsURL, "clubs", id.String(), "join"), token, membershipRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("failed to join club %q: %w", id, err)
	}
	return nil
}

func (c *Client) LeaveClub(ctx context.Context, token string, id ID, userID ID) error {
	if _, err := c.do(ctx, http.MethodPost, endpoint(c.cfg.ClubsURL, "clubs", id.String(), "leave"), token, membershipRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("failed to leave club %q: %w", id, err)
	}
	return nil
}

// UserClubs returns the clubs the owner of token is a member of.
func (c *Client) UserClubs(ctx context.Context, token string) ([]Club, error) {
	var clubs list[Club]
	if _, err := c.do(ctx, http.MethodGet, endpoint(c.cfg.ClubsURL, "clubs", "user"), token, nil, &clubs); err != nil {
		return nil, fmt.Errorf("failed to get user clubs: %w", err)
	}
	if clubs == nil {
		return []Club{}, nil
	}
	return clubs, nil
}

func (c *Client) SearchClubs(ctx context.Context, token string, query string) ([]Club, error) {
	clubs, err := c.ListClubs(ctx, token)
	if err != nil {
		return nil, err
	}
	return FilterClubs(clubs, query), nil
}
