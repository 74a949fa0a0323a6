package platform

import (
	"bytes"
	"encoding/json"

	"github.com/meetandfeat/web/internal/omit"
	"github.com/meetandfeat/web/internal/xtime"
)

// ID identifies users, events and clubs. The services send ids as strings or numbers.
type ID string

func (i ID) String() string {
	return string(i)
}

func (i *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*i = ID(n.String())
	return nil
}

type User struct {
	ID       ID     `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var v struct {
		ID           ID     `json:"id"`
		UserID       ID     `json:"user_id"`
		FullName     string `json:"fullName"`
		FullNameAlt  string `json:"full_name"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		EmbeddedUser *User  `json:"user"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.EmbeddedUser != nil {
		*u = *v.EmbeddedUser
		return nil
	}

	u.ID = v.ID
	if u.ID == "" {
		u.ID = v.UserID
	}
	u.FullName = firstNonEmpty(v.FullName, v.FullNameAlt, v.Name)
	u.Email = v.Email
	return nil
}

type Event struct {
	ID               ID             `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Datetime         xtime.DateTime `json:"datetime"`
	Location         string         `json:"location"`
	MaxParticipation int            `json:"max_participation"`
	CurParticipation int            `json:"cur_participation"`
	CreatedByID      ID             `json:"created_by_id"`
	CreatedByName    string         `json:"created_by_name"`
	ClubID           ID             `json:"club_id,omitempty"`
}

// IsClubEvent reports whether the event is only visible to members of its club.
func (e Event) IsClubEvent() bool {
	return e.ClubID != ""
}

func (e Event) IsFull() bool {
	return e.CurParticipation >= e.MaxParticipation
}

type EventInput struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Datetime         xtime.DateTime `json:"datetime"`
	Location         string         `json:"location"`
	MaxParticipation int            `json:"max_participation"`
	ClubID           ID             `json:"club_id,omitempty"`
	CreatedByID      ID             `json:"created_by_id"`
	CreatedByName    string         `json:"created_by_name"`
}

func (i EventInput) Event(id ID) Event {
	return Event{
		ID:               id,
		Title:            i.Title,
		Description:      i.Description,
		Datetime:         i.Datetime,
		Location:         i.Location,
		MaxParticipation: i.MaxParticipation,
		CreatedByID:      i.CreatedByID,
		CreatedByName:    i.CreatedByName,
		ClubID:           i.ClubID,
	}
}

// EventFilter selects which events ListEvents returns.
type EventFilter struct {
	// ClubID lists the events of a single club.
	ClubID ID
	// MemberOf scopes the timeline to public events plus the events of the given clubs.
	// Nil lists public events only.
	MemberOf []ID
}

type Club struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	CreatedByID   ID     `json:"created_by_id"`
	CreatedByName string `json:"created_by_name"`
}

type ClubInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	CreatedByID   ID     `json:"created_by_id"`
	CreatedByName string `json:"created_by_name"`
}

func (i ClubInput) Club(id ID) Club {
	return Club{
		ID:            id,
		Name:          i.Name,
		Description:   i.Description,
		CreatedByID:   i.CreatedByID,
		CreatedByName: i.CreatedByName,
	}
}

// ClubUpdate is a partial update, unset fields are not sent.
type ClubUpdate struct {
	Name        omit.Omit[string] `json:"name,omitzero"`
	Description omit.Omit[string] `json:"description,omitzero"`
}

type membershipRequest struct {
	UserID ID `json:"user_id"`
}

type scopeRequest struct {
	ClubIDs []ID `json:"club_ids"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
