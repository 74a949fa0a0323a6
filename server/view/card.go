package view

import (
	"fmt"
	"net/url"

	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/queries"
	"github.com/meetandfeat/web/server/session"
)

type Action string

const (
	ActionLogin      Action = "login"
	ActionJoin       Action = "join"
	ActionLeave      Action = "leave"
	ActionFull       Action = "full"
	ActionEdit       Action = "edit"
	ActionDelete     Action = "delete"
	ActionViewEvents Action = "view-events"
)

// Button is an affordance shown on a card.
type Button struct {
	Action   Action
	Label    string
	Method   string
	URL      string
	Disabled bool
}

// Confirm reports whether the action asks the viewer before it runs.
func (b Button) Confirm() bool {
	return b.Action == ActionLeave || b.Action == ActionDelete
}

func (b Button) Post() bool {
	return b.Method == "POST"
}

func link(action Action, label string, u string) Button {
	return Button{Action: action, Label: label, Method: "GET", URL: u}
}

func form(action Action, label string, u string) Button {
	return Button{Action: action, Label: label, Method: "POST", URL: u}
}

func loginButton(redirect string) Button {
	u := "/login"
	if redirect != "" {
		u += "?" + url.Values{"rd": {redirect}}.Encode()
	}
	return link(ActionLogin, "Log in to join", u)
}

// Viewer is who a card is rendered for.
type Viewer struct {
	Identity   session.Identity
	Membership queries.Membership
	// Page is the url of the page the card is on, used to return there after an action.
	Page string
}

func EventURL(id platform.ID) string {
	return fmt.Sprintf("/events/%s", id)
}

func ClubURL(id platform.ID) string {
	return fmt.Sprintf("/clubs/%s", id)
}

func NewEventCard(viewer Viewer, event platform.Event) EventCard {
	participant := viewer.Membership.IsParticipant(event.ID)
	return EventCard{
		Event:       event,
		URL:         EventURL(event.ID),
		ClubURL:     clubURL(event.ClubID),
		Participant: participant,
		Creator:     viewer.Identity.Is(event.CreatedByID),
		Full:        event.IsFull(),
		Buttons:     EventButtons(viewer.Identity, participant, event, viewer.Page),
		State:       StateViewing,
	}
}

type EventCard struct {
	Event       platform.Event
	URL         string
	ClubURL     string
	Participant bool
	Creator     bool
	Full        bool
	Buttons     []Button
	State       CardState
}

func NewEventCards(viewer Viewer, events []platform.Event) []EventCard {
	cards := make([]EventCard, 0, len(events))
	for _, event := range events {
		cards = append(cards, NewEventCard(viewer, event))
	}
	return cards
}

// EventButtons derives the affordances of an event card from the viewer, their participation
// and the capacity of the event.
func EventButtons(identity session.Identity, participant bool, event platform.Event, page string) []Button {
	switch {
	case !identity.Known():
		return nil
	case !identity.Authenticated():
		return []Button{loginButton(page)}
	}

	u := EventURL(event.ID)
	if identity.Is(event.CreatedByID) {
		return []Button{
			link(ActionEdit, "Edit", u+"/edit"),
			form(ActionDelete, "Delete", u+"/delete"),
		}
	}

	if participant {
		return []Button{form(ActionLeave, "Leave Event", u+"/leave")}
	}
	if event.IsFull() {
		b := form(ActionFull, "Event Full", u+"/join")
		b.Disabled = true
		return []Button{b}
	}
	return []Button{form(ActionJoin, "Join Event", u+"/join")}
}

func NewClubCard(viewer Viewer, club platform.Club) ClubCard {
	member := viewer.Membership.IsMember(club.ID)
	return ClubCard{
		Club:    club,
		URL:     ClubURL(club.ID),
		Member:  member,
		Creator: viewer.Identity.Is(club.CreatedByID),
		Buttons: ClubButtons(viewer.Identity, member, club, viewer.Page),
		State:   StateViewing,
	}
}

type ClubCard struct {
	Club    platform.Club
	URL     string
	Member  bool
	Creator bool
	Buttons []Button
	State   CardState
}

func NewClubCards(viewer Viewer, clubs []platform.Club) []ClubCard {
	cards := make([]ClubCard, 0, len(clubs))
	for _, club := range clubs {
		cards = append(cards, NewClubCard(viewer, club))
	}
	return cards
}

// ClubButtons derives the affordances of a club card. Creators manage their club and never
// join or leave it, members can leave and browse the club events.
func ClubButtons(identity session.Identity, member bool, club platform.Club, page string) []Button {
	switch {
	case !identity.Known():
		return nil
	case !identity.Authenticated():
		return []Button{loginButton(page)}
	}

	u := ClubURL(club.ID)
	var buttons []Button
	if identity.Is(club.CreatedByID) {
		buttons = append(buttons,
			link(ActionEdit, "Edit", u+"/edit"),
			form(ActionDelete, "Delete", u+"/delete"),
		)
		if member {
			buttons = append(buttons, link(ActionViewEvents, "View Club Events", u))
		}
		return buttons
	}

	if member {
		return []Button{
			link(ActionViewEvents, "View Club Events", u),
			form(ActionLeave, "Leave Club", u+"/leave"),
		}
	}
	return []Button{form(ActionJoin, "Join Club", u+"/join")}
}

func clubURL(id platform.ID) string {
	if id == "" {
		return ""
	}
	return ClubURL(id)
}
