package view

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/meetandfeat/web/internal/omit"
	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/platform"
)

const (
	maxTitleLength       = 200
	maxNameLength        = 100
	maxDescriptionLength = 2000
)

// FormErrors maps a form field to the message shown next to it.
type FormErrors map[string]string

func (e FormErrors) add(field string, format string, args ...any) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = fmt.Sprintf(format, args...)
}

func requireText(errs FormErrors, field string, label string, value string, limit int) {
	switch {
	case value == "":
		errs.add(field, "%s is required", label)
	case utf8.RuneCountInString(value) > limit:
		errs.add(field, "%s must be at most %d characters", label, limit)
	}
}

func NewEventForm(r *http.Request) EventForm {
	return EventForm{
		Title:            strings.TrimSpace(r.FormValue("title")),
		Description:      strings.TrimSpace(r.FormValue("description")),
		Datetime:         strings.TrimSpace(r.FormValue("datetime")),
		Location:         strings.TrimSpace(r.FormValue("location")),
		MaxParticipation: strings.TrimSpace(r.FormValue("max_participation")),
		ClubID:           strings.TrimSpace(r.FormValue("club_id")),
	}
}

// EventFormFrom fills the form with an existing event for editing.
func EventFormFrom(event platform.Event) EventForm {
	return EventForm{
		Title:            event.Title,
		Description:      event.Description,
		Datetime:         event.Datetime.FormValue(),
		Location:         event.Location,
		MaxParticipation: strconv.Itoa(event.MaxParticipation),
		ClubID:           event.ClubID.String(),
		Participants:     event.CurParticipation,
	}
}

// EventForm keeps the raw input so it can be rendered again when it is rejected.
type EventForm struct {
	Title            string
	Description      string
	Datetime         string
	Location         string
	MaxParticipation string
	ClubID           string

	// Participants is the current participation of an edited event, the maximum can't go below it.
	Participants int
	Errors       FormErrors
	Error        string
}

func (f *EventForm) Validate() (platform.EventInput, bool) {
	f.Errors = FormErrors{}

	requireText(f.Errors, "title", "Title", f.Title, maxTitleLength)
	requireText(f.Errors, "description", "Description", f.Description, maxDescriptionLength)
	requireText(f.Errors, "location", "Location", f.Location, maxTitleLength)

	input := platform.EventInput{
		Title:       f.Title,
		Description: f.Description,
		Location:    f.Location,
		ClubID:      platform.ID(f.ClubID),
	}

	if f.Datetime == "" {
		f.Errors.add("datetime", "Date and time is required")
	} else if t, err := xtime.ParseDateTime(f.Datetime); err != nil {
		f.Errors.add("datetime", "Date and time is invalid")
	} else {
		input.Datetime = xtime.NewDateTime(t)
	}

	if f.MaxParticipation == "" {
		f.Errors.add("max_participation", "Maximum participants is required")
	} else if n, err := strconv.Atoi(f.MaxParticipation); err != nil || n < 1 {
		f.Errors.add("max_participation", "Maximum participants must be a whole number of at least 1")
	} else if n < f.Participants {
		f.Errors.add("max_participation", "Maximum participants can't be lower than the %d people already joined", f.Participants)
	} else {
		input.MaxParticipation = n
	}

	return input, len(f.Errors) == 0
}

func NewClubForm(r *http.Request) ClubForm {
	return ClubForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
}

func ClubFormFrom(club platform.Club) ClubForm {
	return ClubForm{
		Name:        club.Name,
		Description: club.Description,
	}
}

type ClubForm struct {
	Name        string
	Description string

	Errors FormErrors
	Error  string
}

func (f *ClubForm) Validate() (platform.ClubInput, bool) {
	f.Errors = FormErrors{}

	requireText(f.Errors, "name", "Name", f.Name, maxNameLength)
	requireText(f.Errors, "description", "Description", f.Description, maxDescriptionLength)

	return platform.ClubInput{
		Name:        f.Name,
		Description: f.Description,
	}, len(f.Errors) == 0
}

// Update returns the fields of the form which differ from club.
func (f ClubForm) Update(club platform.Club) platform.ClubUpdate {
	return platform.ClubUpdate{
		Name:        omit.NewIf(f.Name, f.Name != club.Name),
		Description: omit.NewIf(f.Description, f.Description != club.Description),
	}
}
