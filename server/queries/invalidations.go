package queries

import (
	"slices"

	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/querycache"
)

type Action string

const (
	ActionCreateEvent Action = "create-event"
	ActionUpdateEvent Action = "update-event"
	ActionDeleteEvent Action = "delete-event"
	ActionJoinEvent   Action = "join-event"
	ActionLeaveEvent  Action = "leave-event"
	ActionCreateClub  Action = "create-club"
	ActionUpdateClub  Action = "update-club"
	ActionDeleteClub  Action = "delete-club"
	ActionJoinClub    Action = "join-club"
	ActionLeaveClub   Action = "leave-club"
)

// Placeholders in invalidation patterns, replaced by the target of the mutation.
// A placeholder without a target value becomes a wildcard.
const (
	targetEvent = "$event"
	targetClub  = "$club"
	targetUser  = "$user"
)

var eventChanged = []querycache.Key{
	{Kind: KindEvents},
	{Kind: KindClubEvents, ID: targetClub},
	{Kind: KindHostedEvents},
	{Kind: KindUserEvents},
	{Kind: KindEvent, ID: targetEvent},
}

var clubChanged = []querycache.Key{
	{Kind: KindClubs},
	{Kind: KindUserClubs},
	{Kind: KindClub, ID: targetClub},
}

// Invalidations lists the query keys each mutation invalidates once it has succeeded.
var Invalidations = map[Action][]querycache.Key{
	ActionCreateEvent: eventChanged,
	ActionUpdateEvent: eventChanged,
	ActionDeleteEvent: eventChanged,
	ActionJoinEvent: {
		{Kind: KindEvents},
		{Kind: KindClubEvents},
		{Kind: KindUserEvents, ID: targetUser},
		{Kind: KindHostedEvents},
		{Kind: KindEvent, ID: targetEvent},
	},
	ActionLeaveEvent: {
		{Kind: KindEvents},
		{Kind: KindClubEvents},
		{Kind: KindUserEvents, ID: targetUser},
		{Kind: KindHostedEvents},
		{Kind: KindEvent, ID: targetEvent},
	},
	ActionCreateClub: clubChanged,
	ActionUpdateClub: clubChanged,
	ActionDeleteClub: slices.Concat(clubChanged, []querycache.Key{
		{Kind: KindClubEvents, ID: targetClub},
		{Kind: KindEvents},
	}),
	ActionJoinClub: {
		{Kind: KindClubs},
		{Kind: KindUserClubs, ID: targetUser},
		{Kind: KindEvents},
		{Kind: KindClubEvents, ID: targetClub},
		{Kind: KindClub, ID: targetClub},
	},
	ActionLeaveClub: {
		{Kind: KindClubs},
		{Kind: KindUserClubs, ID: targetUser},
		{Kind: KindEvents},
		{Kind: KindClubEvents, ID: targetClub},
		{Kind: KindClub, ID: targetClub},
	},
}

// Target names the entities a mutation touched.
type Target struct {
	Event platform.ID
	Club  platform.ID
	User  platform.ID
}

// Keys resolves the invalidation patterns of action for target.
func (t Target) Keys(action Action) []querycache.Key {
	patterns := Invalidations[action]
	keys := make([]querycache.Key, len(patterns))
	for i, pattern := range patterns {
		pattern.ID = t.resolve(pattern.ID)
		keys[i] = pattern
	}
	return keys
}

func (t Target) resolve(value string) string {
	switch value {
	case targetEvent:
		return t.Event.String()
	case targetClub:
		return t.Club.String()
	case targetUser:
		return t.User.String()
	}
	return value
}
