package queries

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/querycache"
)

func TestEveryActionDeclaresInvalidations(t *testing.T) {
	actions := []Action{
		ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent, ActionJoinEvent, ActionLeaveEvent,
		ActionCreateClub, ActionUpdateClub, ActionDeleteClub, ActionJoinClub, ActionLeaveClub,
	}
	for _, action := range actions {
		assert.NotEmpty(t, Invalidations[action], action)
	}
}

func TestTargetKeys(t *testing.T) {
	keys := Target{Event: "1", User: "7"}.Keys(ActionJoinEvent)

	assert.Contains(t, keys, querycache.Key{Kind: KindEvent, ID: "1"})
	assert.Contains(t, keys, querycache.Key{Kind: KindUserEvents, ID: "7"})
	assert.Contains(t, keys, querycache.Key{Kind: KindEvents})

	// a placeholder without a value matches every id
	keys = Target{}.Keys(ActionCreateEvent)
	assert.Contains(t, keys, querycache.Key{Kind: KindClubEvents})
}

func TestJoinEventKeysMatchCachedQueries(t *testing.T) {
	keys := Target{Event: "1", User: "7"}.Keys(ActionJoinEvent)
	cached := []querycache.Key{
		EventsKey(ScopePublic, ""),
		EventsKey(Scope([]platform.ID{"c2", "c1"}), "chess"),
		EventKey("1", ScopePublic),
		ClubEventsKey("c1", ViewerGuest, ""),
		UserEventsKey("7"),
		HostedEventsKey("9"),
	}
	for _, key := range cached {
		assert.True(t, matches(key, keys), key.String())
	}
	assert.False(t, matches(UserEventsKey("8"), keys))
	assert.False(t, matches(ClubsKey(""), keys))
}

func matches(key querycache.Key, patterns []querycache.Key) bool {
	for _, pattern := range patterns {
		if key.Matches(pattern) {
			return true
		}
	}
	return false
}

func TestScope(t *testing.T) {
	assert.Equal(t, ScopePublic, Scope(nil))
	assert.Equal(t, "c1,c2", Scope([]platform.ID{"c2", "c1", "c2"}))
}

func TestMembershipZeroValue(t *testing.T) {
	var m Membership
	assert.False(t, m.IsMember("c1"))
	assert.False(t, m.Has(KindEvent, "1"))
	assert.Empty(t, m.ClubIDs())
}
