package queries

import (
	"github.com/meetandfeat/web/server/platform"
)

func NewMembership(clubs []platform.Club, events []platform.Event) Membership {
	m := Membership{
		clubs:  make(map[platform.ID]struct{}, len(clubs)),
		events: make(map[platform.ID]struct{}, len(events)),
	}
	for _, club := range clubs {
		if _, ok := m.clubs[club.ID]; ok {
			continue
		}
		m.clubs[club.ID] = struct{}{}
		m.clubIDs = append(m.clubIDs, club.ID)
	}
	for _, event := range events {
		m.events[event.ID] = struct{}{}
	}
	return m
}

// Membership answers which clubs and events the viewer belongs to.
// The zero value belongs to nothing.
type Membership struct {
	clubs   map[platform.ID]struct{}
	events  map[platform.ID]struct{}
	clubIDs []platform.ID
}

// Has reports whether the viewer is a member of the club or a participant of the event
// identified by kind and id.
func (m Membership) Has(kind string, id platform.ID) bool {
	switch kind {
	case KindClub:
		_, ok := m.clubs[id]
		return ok
	case KindEvent:
		_, ok := m.events[id]
		return ok
	}
	return false
}

func (m Membership) IsMember(clubID platform.ID) bool {
	return m.Has(KindClub, clubID)
}

func (m Membership) IsParticipant(eventID platform.ID) bool {
	return m.Has(KindEvent, eventID)
}

// ClubIDs returns the ids of the clubs the viewer is a member of.
func (m Membership) ClubIDs() []platform.ID {
	return m.clubIDs
}
