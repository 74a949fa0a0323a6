package queries

import (
	"slices"
	"strings"

	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
)

const (
	KindEvents       = "events"
	KindEvent        = "event"
	KindClubEvents   = "club-events"
	KindClubs        = "clubs"
	KindClub         = "club"
	KindUserEvents   = "user-events"
	KindHostedEvents = "hosted-events"
	KindUserClubs    = "user-clubs"
)

// ScopePublic is the scope of viewers which are not a member of any club.
const ScopePublic = "public"

// Scope is the cache scope of an event timeline limited to public events and the given clubs.
func Scope(clubIDs []platform.ID) string {
	if len(clubIDs) == 0 {
		return ScopePublic
	}
	ids := make([]string, len(clubIDs))
	for i, id := range clubIDs {
		ids[i] = id.String()
	}
	slices.Sort(ids)
	return strings.Join(slices.Compact(ids), ",")
}

// ScopeIDs reverses Scope.
func ScopeIDs(scope string) []platform.ID {
	if scope == "" || scope == ScopePublic {
		return nil
	}
	parts := strings.Split(scope, ",")
	ids := make([]platform.ID, len(parts))
	for i, part := range parts {
		ids[i] = platform.ID(part)
	}
	return ids
}

// ViewerGuest is the viewer of keys loaded without a session.
const ViewerGuest = "guest"

// Viewer names the session a viewer keyed query is loaded with.
func Viewer(identity session.Identity) string {
	if !identity.Authenticated() {
		return ViewerGuest
	}
	return "user-" + identity.UserID().String()
}

func normalizeSearch(search string) string {
	return strings.ToLower(strings.TrimSpace(search))
}

func EventsKey(scope string, search string) querycache.Key {
	return querycache.Key{Kind: KindEvents, Scope: scope, Search: normalizeSearch(search)}
}

func EventKey(id platform.ID, scope string) querycache.Key {
	return querycache.Key{Kind: KindEvent, ID: id.String(), Scope: scope}
}

// ClubEventsKey is keyed by viewer since the events service decides per session who may
// see the events of a club.
func ClubEventsKey(clubID platform.ID, viewer string, search string) querycache.Key {
	return querycache.Key{Kind: KindClubEvents, ID: clubID.String(), Scope: viewer, Search: normalizeSearch(search)}
}

func ClubsKey(search string) querycache.Key {
	return querycache.Key{Kind: KindClubs, Search: normalizeSearch(search)}
}

func ClubKey(id platform.ID) querycache.Key {
	return querycache.Key{Kind: KindClub, ID: id.String()}
}

func UserEventsKey(userID platform.ID) querycache.Key {
	return querycache.Key{Kind: KindUserEvents, ID: userID.String()}
}

func HostedEventsKey(userID platform.ID) querycache.Key {
	return querycache.Key{Kind: KindHostedEvents, ID: userID.String()}
}

func UserClubsKey(userID platform.ID) querycache.Key {
	return querycache.Key{Kind: KindUserClubs, ID: userID.String()}
}
