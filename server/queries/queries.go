package queries

import (
	"context"
	"fmt"

	"github.com/meetandfeat/web/internal/tsync"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
)

// Service is the subset of the platform client the queries read from and write to.
type Service interface {
	ListEvents(ctx context.Context, token string, filter platform.EventFilter) ([]platform.Event, error)
	GetEvent(ctx context.Context, token string, id platform.ID, filter platform.EventFilter) (*platform.Event, error)
	CreateEvent(ctx context.Context, token string, input platform.EventInput) (*platform.Event, error)
	UpdateEvent(ctx context.Context, token string, id platform.ID, input platform.EventInput) (*platform.Event, error)
	DeleteEvent(ctx context.Context, token string, id platform.ID) error
	JoinEvent(ctx context.Context, token string, id platform.ID, userID platform.ID) error
	LeaveEvent(ctx context.Context, token string, id platform.ID, userID platform.ID) error
	HostedEvents(ctx context.Context, token string, userID platform.ID) ([]platform.Event, error)
	ParticipatedEvents(ctx context.Context, token string, userID platform.ID) ([]platform.Event, error)

	ListClubs(ctx context.Context, token string) ([]platform.Club, error)
	GetClub(ctx context.Context, token string, id platform.ID) (*platform.Club, error)
	CreateClub(ctx context.Context, token string, input platform.ClubInput) (*platform.Club, error)
	UpdateClub(ctx context.Context, token string, id platform.ID, update platform.ClubUpdate) (*platform.Club, error)
	DeleteClub(ctx context.Context, token string, id platform.ID) error
	JoinClub(ctx context.Context, token string, id platform.ID, userID platform.ID) error
	LeaveClub(ctx context.Context, token string, id platform.ID, userID platform.ID) error
	UserClubs(ctx context.Context, token string) ([]platform.Club, error)
}

func New(cache *querycache.Cache, service Service) *Queries {
	return &Queries{
		cache:   cache,
		service: service,
	}
}

// Queries reads entities through the cache and runs mutations which invalidate it.
type Queries struct {
	cache   *querycache.Cache
	service Service
}

func (q *Queries) Cache() *querycache.Cache {
	return q.cache
}

// Events returns the timeline of the viewer: public events plus the events of the clubs
// the viewer is a member of, filtered by search and sorted by date.
func (q *Queries) Events(ctx context.Context, identity session.Identity, search string) ([]platform.Event, error) {
	membership, err := q.Membership(ctx, identity)
	if err != nil {
		return nil, err
	}
	return q.ScopedEvents(ctx, identity, membership, search)
}

// ScopedEvents returns public events plus the events of the clubs in membership, filtered by search.
// membership must have been loaded for identity.
func (q *Queries) ScopedEvents(ctx context.Context, identity session.Identity, membership Membership, search string) ([]platform.Event, error) {
	key := EventsKey(Scope(membership.ClubIDs()), search)
	fetcher, err := q.fetcher(identity, key)
	if err != nil {
		return nil, err
	}
	return load[[]platform.Event](ctx, q, key, fetcher)
}

// Event returns a single event as visible to the viewer.
func (q *Queries) Event(ctx context.Context, identity session.Identity, id platform.ID) (*platform.Event, error) {
	membership, err := q.Membership(ctx, identity)
	if err != nil {
		return nil, err
	}
	key := EventKey(id, Scope(membership.ClubIDs()))
	fetcher, err := q.fetcher(identity, key)
	if err != nil {
		return nil, err
	}
	return load[*platform.Event](ctx, q, key, fetcher)
}

// ClubEvents returns the events of a club, filtered by search and sorted by date.
func (q *Queries) ClubEvents(ctx context.Context, identity session.Identity, clubID platform.ID, search string) ([]platform.Event, error) {
	return get[[]platform.Event](ctx, q, identity, ClubEventsKey(clubID, Viewer(identity), search))
}

// Clubs returns all clubs filtered by search.
func (q *Queries) Clubs(ctx context.Context, identity session.Identity, search string) ([]platform.Club, error) {
	return get[[]platform.Club](ctx, q, identity, ClubsKey(search))
}

func (q *Queries) Club(ctx context.Context, identity session.Identity, id platform.ID) (*platform.Club, error) {
	return get[*platform.Club](ctx, q, identity, ClubKey(id))
}

// UserClubs returns the clubs the viewer is a member of. Guests are a member of none.
func (q *Queries) UserClubs(ctx context.Context, identity session.Identity) ([]platform.Club, error) {
	if !identity.Authenticated() {
		return []platform.Club{}, nil
	}
	return get[[]platform.Club](ctx, q, identity, UserClubsKey(identity.UserID()))
}

// ParticipatedEvents returns the events the viewer has joined.
func (q *Queries) ParticipatedEvents(ctx context.Context, identity session.Identity) ([]platform.Event, error) {
	if !identity.Authenticated() {
		return []platform.Event{}, nil
	}
	return get[[]platform.Event](ctx, q, identity, UserEventsKey(identity.UserID()))
}

// HostedEvents returns the events the viewer has created.
func (q *Queries) HostedEvents(ctx context.Context, identity session.Identity) ([]platform.Event, error) {
	if !identity.Authenticated() {
		return []platform.Event{}, nil
	}
	return get[[]platform.Event](ctx, q, identity, HostedEventsKey(identity.UserID()))
}

// get loads key on behalf of identity once identity is allowed to read it.
func get[T any](ctx context.Context, q *Queries, identity session.Identity, key querycache.Key) (T, error) {
	fetcher, err := q.Fetcher(ctx, identity, key)
	if err != nil {
		var zero T
		return zero, err
	}
	return load[T](ctx, q, key, fetcher)
}

func load[T any](ctx context.Context, q *Queries, key querycache.Key, fetcher querycache.Fetcher) (T, error) {
	var zero T
	data, err := q.cache.Get(ctx, key, fetcher)
	if err != nil {
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cached type %T for %s", data, key)
	}
	return v, nil
}

func typed[T any](fetch func(ctx context.Context) (T, error)) querycache.Fetcher {
	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Fetcher returns the function loading key on behalf of identity. Keys holding data
// identity may not see are refused.
func (q *Queries) Fetcher(ctx context.Context, identity session.Identity, key querycache.Key) (querycache.Fetcher, error) {
	if err := q.authorize(ctx, identity, key); err != nil {
		return nil, err
	}
	return q.fetcher(identity, key)
}

func (q *Queries) authorize(ctx context.Context, identity session.Identity, key querycache.Key) error {
	switch key.Kind {
	case KindEvents, KindEvent:
		clubIDs := ScopeIDs(key.Scope)
		if len(clubIDs) == 0 {
			return nil
		}
		membership, err := q.Membership(ctx, identity)
		if err != nil {
			return err
		}
		for _, clubID := range clubIDs {
			if !membership.IsMember(clubID) {
				return fmt.Errorf("failed to load %s: not a member of club %s: %w", key, clubID, platform.ErrAuthorization)
			}
		}
	case KindClubEvents:
		if key.Scope != Viewer(identity) {
			return fmt.Errorf("failed to load %s: %w", key, platform.ErrAuthorization)
		}
	case KindUserClubs, KindUserEvents, KindHostedEvents:
		if !identity.Is(platform.ID(key.ID)) {
			return fmt.Errorf("failed to load %s: %w", key, platform.ErrAuthorization)
		}
	}
	return nil
}

func (q *Queries) fetcher(identity session.Identity, key querycache.Key) (querycache.Fetcher, error) {
	id := platform.ID(key.ID)
	switch key.Kind {
	case KindEvents:
		clubIDs := ScopeIDs(key.Scope)
		base := EventsKey(key.Scope, "")
		fetchBase := func(ctx context.Context) ([]platform.Event, error) {
			filter := platform.EventFilter{}
			if len(clubIDs) > 0 {
				filter.MemberOf = clubIDs
			}
			events, err := q.service.ListEvents(ctx, identity.Token, filter)
			if err != nil {
				return nil, err
			}
			return platform.SortEventsByDate(events), nil
		}
		return searchFetcher(q.cache, key, base, fetchBase, platform.FilterEvents), nil

	case KindEvent:
		clubIDs := ScopeIDs(key.Scope)
		return typed(func(ctx context.Context) (*platform.Event, error) {
			filter := platform.EventFilter{}
			if len(clubIDs) > 0 {
				filter.MemberOf = clubIDs
			}
			return q.service.GetEvent(ctx, identity.Token, id, filter)
		}), nil

	case KindClubEvents:
		base := ClubEventsKey(id, key.Scope, "")
		fetchBase := func(ctx context.Context) ([]platform.Event, error) {
			events, err := q.service.ListEvents(ctx, identity.Token, platform.EventFilter{ClubID: id})
			if err != nil {
				return nil, err
			}
			return platform.SortEventsByDate(events), nil
		}
		return searchFetcher(q.cache, key, base, fetchBase, platform.FilterEvents), nil

	case KindClubs:
		fetchBase := func(ctx context.Context) ([]platform.Club, error) {
			return q.service.ListClubs(ctx, identity.Token)
		}
		return searchFetcher(q.cache, key, ClubsKey(""), fetchBase, platform.FilterClubs), nil

	case KindClub:
		return typed(func(ctx context.Context) (*platform.Club, error) {
			return q.service.GetClub(ctx, identity.Token, id)
		}), nil

	case KindUserClubs:
		return typed(func(ctx context.Context) ([]platform.Club, error) {
			return q.service.UserClubs(ctx, identity.Token)
		}), nil

	case KindUserEvents:
		return typed(func(ctx context.Context) ([]platform.Event, error) {
			events, err := q.service.ParticipatedEvents(ctx, identity.Token, id)
			if err != nil {
				return nil, err
			}
			return platform.SortEventsByDate(events), nil
		}), nil

	case KindHostedEvents:
		return typed(func(ctx context.Context) ([]platform.Event, error) {
			events, err := q.service.HostedEvents(ctx, identity.Token, id)
			if err != nil {
				return nil, err
			}
			return platform.SortEventsByDate(events), nil
		}), nil
	}
	return nil, fmt.Errorf("unknown query kind %q", key.Kind)
}

// searchFetcher loads the unfiltered base list for key and filters it, so every search
// of a list shares one upstream request.
func searchFetcher[T any](cache *querycache.Cache, key querycache.Key, base querycache.Key, fetchBase func(ctx context.Context) ([]T, error), filter func([]T, string) []T) querycache.Fetcher {
	if key == base {
		return typed(fetchBase)
	}
	return typed(func(ctx context.Context) ([]T, error) {
		items, err := querycache.Query(ctx, cache, base, fetchBase)
		if err != nil {
			return nil, err
		}
		return filter(items, key.Search), nil
	})
}

// Membership loads which clubs and events the viewer belongs to.
func (q *Queries) Membership(ctx context.Context, identity session.Identity) (Membership, error) {
	if !identity.Authenticated() {
		return Membership{}, nil
	}

	var (
		clubs  []platform.Club
		events []platform.Event
	)
	eg, ctx := tsync.ErrorGroupWithContext(ctx)
	eg.Go("user clubs", func() error {
		var err error
		clubs, err = q.UserClubs(ctx, identity)
		return err
	})
	eg.Go("participated events", func() error {
		var err error
		events, err = q.ParticipatedEvents(ctx, identity)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Membership{}, fmt.Errorf("failed to load membership: %w", err)
	}

	return NewMembership(clubs, events), nil
}
