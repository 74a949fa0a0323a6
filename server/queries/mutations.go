package queries

import (
	"context"
	"fmt"

	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
)

// reconcile invalidates cached data a failed mutation has shown to be out of date.
func reconcile(err error) bool {
	kind := platform.KindOf(err)
	return kind == platform.KindNotFound || kind == platform.KindCapacity
}

func mutate[T any](ctx context.Context, q *Queries, identity session.Identity, action Action, target Target, do func(ctx context.Context) (T, error)) querycache.Result[T] {
	if !identity.Authenticated() {
		return querycache.Err[T](fmt.Errorf("failed to %s: %w", action, platform.ErrAuthorization))
	}
	target.User = identity.UserID()

	return querycache.Mutate(ctx, q.cache, querycache.Mutation[T]{
		Name:        string(action),
		Do:          do,
		Invalidates: target.Keys(action),
		Reconcile:   reconcile,
	})
}

func (q *Queries) CreateEvent(ctx context.Context, identity session.Identity, input platform.EventInput) querycache.Result[*platform.Event] {
	if identity.Authenticated() {
		input.CreatedByID = identity.UserID()
		input.CreatedByName = identity.User.FullName
	}
	return mutate(ctx, q, identity, ActionCreateEvent, Target{Club: input.ClubID}, func(ctx context.Context) (*platform.Event, error) {
		return q.service.CreateEvent(ctx, identity.Token, input)
	})
}

func (q *Queries) UpdateEvent(ctx context.Context, identity session.Identity, id platform.ID, input platform.EventInput) querycache.Result[*platform.Event] {
	if identity.Authenticated() && input.CreatedByID == "" {
		input.CreatedByID = identity.UserID()
		input.CreatedByName = identity.User.FullName
	}
	return mutate(ctx, q, identity, ActionUpdateEvent, Target{Event: id, Club: input.ClubID}, func(ctx context.Context) (*platform.Event, error) {
		return q.service.UpdateEvent(ctx, identity.Token, id, input)
	})
}

// DeleteEvent removes an event. The club events of every club are invalidated.
func (q *Queries) DeleteEvent(ctx context.Context, identity session.Identity, id platform.ID) querycache.Result[platform.ID] {
	return mutate(ctx, q, identity, ActionDeleteEvent, Target{Event: id}, func(ctx context.Context) (platform.ID, error) {
		return id, q.service.DeleteEvent(ctx, identity.Token, id)
	})
}

func (q *Queries) JoinEvent(ctx context.Context, identity session.Identity, id platform.ID) querycache.Result[platform.ID] {
	return mutate(ctx, q, identity, ActionJoinEvent, Target{Event: id}, func(ctx context.Context) (platform.ID, error) {
		return id, q.service.JoinEvent(ctx, identity.Token, id, identity.UserID())
	})
}

func (q *Queries) LeaveEvent(ctx context.Context, identity session.Identity, id platform.ID) querycache.Result[platform.ID] {
	return mutate(ctx, q, identity, ActionLeaveEvent, Target{Event: id}, func(ctx context.Context) (platform.ID, error) {
		return id, q.service.LeaveEvent(ctx, identity.Token, id, identity.UserID())
	})
}

func (q *Queries) CreateClub(ctx context.Context, identity session.Identity, input platform.ClubInput) querycache.Result[*platform.Club] {
	if identity.Authenticated() {
		input.CreatedByID = identity.UserID()
		input.CreatedByName = identity.User.FullName
	}
	return mutate(ctx, q, identity, ActionCreateClub, Target{}, func(ctx context.Context) (*platform.Club, error) {
		return q.service.CreateClub(ctx, identity.Token, input)
	})
}

func (q *Queries) UpdateClub(ctx context.Context, identity session.Identity, id platform.ID, update platform.ClubUpdate) querycache.Result[*platform.Club] {
	return mutate(ctx, q, identity, ActionUpdateClub, Target{Club: id}, func(ctx context.Context) (*platform.Club, error) {
		return q.service.UpdateClub(ctx, identity.Token, id, update)
	})
}

func (q *Queries) DeleteClub(ctx context.Context, identity session.Identity, id platform.ID) querycache.Result[platform.ID] {
	return mutate(ctx, q, identity, ActionDeleteClub, Target{Club: id}, func(ctx context.Context) (platform.ID, error) {
		return id, q.service.DeleteClub(ctx, identity.Token, id)
	})
}

func (q *Queries) JoinClub(ctx context.Context, identity session.Identity, id platform.ID) querycache.Result[platform.ID] {
	return mutate(ctx, q, identity, ActionJoinClub, Target{Club: id}, func(ctx context.Context) (platform.ID, error) {
		return id, q.service.JoinClub(ctx, identity.Token, id, identity.UserID())
	})
}

func (q *Queries) LeaveClub(ctx context.Context, identity session.Identity, id platform.ID) querycache.Result[platform.ID] {
	return mutate(ctx, q, identity, ActionLeaveClub, Target{Club: id}, func(ctx context.Context) (platform.ID, error) {
		return id, q.service.LeaveClub(ctx, identity.Token, id, identity.UserID())
	})
}
