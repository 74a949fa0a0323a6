package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"github.com/meetandfeat/web/internal/xio"
	"github.com/meetandfeat/web/internal/xquery"
	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/queries"
	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
	"github.com/meetandfeat/web/server/view"
)

type EventsPage struct {
	Page
	Search string
	Range  string
	Ranges []xtime.Range
	Events []view.EventCard
	Error  string
}

func parseRange(r *http.Request) string {
	return xquery.ParseOneOf(r.URL.Query(), "range", xtime.RangeUpcoming,
		xtime.RangeUpcoming, xtime.RangeWeek, xtime.RangeMonth, xtime.RangePast, xtime.RangeAll,
	)
}

// membershipKeys are the keys a page depends on through the membership of the viewer.
func membershipKeys(identity session.Identity) []querycache.Key {
	if !identity.Authenticated() {
		return nil
	}
	return []querycache.Key{
		queries.UserClubsKey(identity.UserID()),
		queries.UserEventsKey(identity.UserID()),
	}
}

func (h *handler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	search := xquery.ParseString(query, "q", "")
	rangeValue := parseRange(r)
	viewer := h.viewer(r)
	clubIDs := viewer.Membership.ClubIDs()

	keys := append(membershipKeys(viewer.Identity), queries.EventsKey(queries.Scope(clubIDs), search))
	page := EventsPage{
		Page:   h.newPage(w, r, "Events", keys...),
		Search: search,
		Range:  rangeValue,
		Ranges: xtime.GetRanges(),
	}

	events, err := h.Queries.ScopedEvents(ctx, viewer.Identity, viewer.Membership, search)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load events", slog.Any("err", err))
		page.Error = "Failed to load events: " + errorMessage(err)
	}

	start, end := xtime.GetRange(rangeValue, time.Now())
	page.Events = view.NewEventCards(viewer, platform.EventsBetween(events, start, end))

	h.render(w, r, "events.gohtml", page)
}

type EventPage struct {
	Page
	Card     view.EventCard
	Club     *platform.Club
	ShareURL string
	QRURL    string
}

func (h *handler) Event(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := platform.ID(r.PathValue("event_id"))

	viewer := h.viewer(r)
	event, err := h.Queries.Event(ctx, viewer.Identity, id)
	if err != nil {
		if platform.KindOf(err) == platform.KindNotFound {
			h.NotFound(w, r)
			return
		}
		slog.ErrorContext(ctx, "Failed to load event", slog.String("event_id", id.String()), slog.Any("err", err))
		h.addToast(w, r, Toast{Kind: ToastError, Title: "Error loading event", Message: errorMessage(err)})
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	}

	keys := append(membershipKeys(viewer.Identity), queries.EventKey(id, queries.Scope(viewer.Membership.ClubIDs())))
	page := EventPage{
		Page:     h.newPage(w, r, event.Title, keys...),
		Card:     view.NewEventCard(viewer, *event),
		ShareURL: h.PublicURL(view.EventURL(id)),
		QRURL:    view.EventURL(id) + "/qr",
	}

	if event.IsClubEvent() {
		club, err := h.Queries.Club(ctx, viewer.Identity, event.ClubID)
		if err != nil {
			slog.WarnContext(ctx, "Failed to load club of event", slog.String("club_id", event.ClubID.String()), slog.Any("err", err))
		} else {
			page.Club = club
		}
	}

	h.render(w, r, "event_details.gohtml", page)
}

func (h *handler) EventQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("event_id")

	qr, err := qrcode.New(h.PublicURL("/events/" + id))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create qrcode", slog.Any("err", err))
		http.Error(w, "Failed to create qrcode", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	qrW := standard.NewWithWriter(xio.NewResponseWriteCloser(w),
		standard.WithBgTransparent(),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	)

	defer func() {
		_ = qrW.Close()
	}()
	if err = qr.Save(qrW); err != nil {
		slog.ErrorContext(ctx, "Failed to save qrcode", slog.Any("err", err))
	}
}

type EventFormPage struct {
	Page
	Form   view.EventForm
	Club   *platform.Club
	Action string
	Submit string
	Cancel string
}

func (h *handler) NewEvent(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}

	form := view.EventForm{
		ClubID:           xquery.ParseString(r.URL.Query(), "club_id", ""),
		MaxParticipation: "10",
	}
	h.renderEventForm(w, r, identity, http.StatusOK, form, "/events/new", "Create Event")
}

func (h *handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}

	form := view.NewEventForm(r)
	input, ok := form.Validate()
	if !ok {
		h.renderEventForm(w, r, identity, http.StatusUnprocessableEntity, form, "/events/new", "Create Event")
		return
	}

	result := h.Queries.CreateEvent(ctx, identity, input)
	if !result.OK() {
		slog.ErrorContext(ctx, "Failed to create event", slog.Any("err", result.Err))
		h.renderEventFormError(w, r, identity, form, "/events/new", "Create Event", "Error creating event", result.Err)
		return
	}

	h.AnnounceEvent(ctx, *result.Value)

	h.addToast(w, r, successToast("Event created successfully!", "Your event has been added to the timeline."))
	if input.ClubID != "" {
		http.Redirect(w, r, view.ClubURL(input.ClubID), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/events", http.StatusSeeOther)
}

// editableEvent loads the event of the request and makes sure the viewer created it.
func (h *handler) editableEvent(w http.ResponseWriter, r *http.Request, identity session.Identity) (*platform.Event, bool) {
	ctx := r.Context()
	id := platform.ID(r.PathValue("event_id"))

	event, err := h.Queries.Event(ctx, identity, id)
	if err != nil {
		if platform.KindOf(err) == platform.KindNotFound {
			h.NotFound(w, r)
			return nil, false
		}
		slog.ErrorContext(ctx, "Failed to load event", slog.String("event_id", id.String()), slog.Any("err", err))
		h.addToast(w, r, Toast{Kind: ToastError, Title: "Error loading event", Message: errorMessage(err)})
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return nil, false
	}

	if !identity.Is(event.CreatedByID) {
		h.addToast(w, r, Toast{Kind: ToastError, Title: "Error updating event", Message: "Only the creator can edit this event."})
		http.Redirect(w, r, view.EventURL(id), http.StatusSeeOther)
		return nil, false
	}
	return event, true
}

func (h *handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	event, ok := h.editableEvent(w, r, identity)
	if !ok {
		return
	}

	h.renderEventForm(w, r, identity, http.StatusOK, view.EventFormFrom(*event), view.EventURL(event.ID)+"/edit", "Update Event")
}

func (h *handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	event, ok := h.editableEvent(w, r, identity)
	if !ok {
		return
	}
	action := view.EventURL(event.ID) + "/edit"

	form := view.NewEventForm(r)
	form.ClubID = event.ClubID.String()
	form.Participants = event.CurParticipation
	input, ok := form.Validate()
	if !ok {
		h.renderEventForm(w, r, identity, http.StatusUnprocessableEntity, form, action, "Update Event")
		return
	}
	input.CreatedByID = event.CreatedByID
	input.CreatedByName = event.CreatedByName

	result := h.Queries.UpdateEvent(ctx, identity, event.ID, input)
	if !result.OK() {
		slog.ErrorContext(ctx, "Failed to update event", slog.String("event_id", event.ID.String()), slog.Any("err", result.Err))
		h.renderEventFormError(w, r, identity, form, action, "Update Event", "Error updating event", result.Err)
		return
	}

	h.addToast(w, r, successToast("Event updated successfully!", "Your event has been updated."))
	http.Redirect(w, r, view.EventURL(event.ID), http.StatusSeeOther)
}

func (h *handler) renderEventFormError(w http.ResponseWriter, r *http.Request, identity session.Identity, form view.EventForm, action string, submit string, title string, err error) {
	status := http.StatusBadGateway
	switch platform.KindOf(err) {
	case platform.KindValidation:
		status = http.StatusUnprocessableEntity
		form.Error = platform.Message(err)
	case platform.KindAuthorization:
		status = http.StatusForbidden
		form.Error = "You are not allowed to do that."
	case platform.KindNotFound:
		h.addToast(w, r, Toast{Kind: ToastInfo, Title: title, Message: "It is already gone."})
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	default:
		form.Error = errorMessage(err)
	}
	h.renderEventForm(w, r, identity, status, form, action, submit)
}

func (h *handler) renderEventForm(w http.ResponseWriter, r *http.Request, identity session.Identity, status int, form view.EventForm, action string, submit string) {
	ctx := r.Context()

	page := EventFormPage{
		Page:   h.newPage(w, r, submit),
		Form:   form,
		Action: action,
		Submit: submit,
		Cancel: "/events",
	}
	if form.ClubID != "" {
		clubID := platform.ID(form.ClubID)
		page.Cancel = view.ClubURL(clubID)
		club, err := h.Queries.Club(ctx, identity, clubID)
		if err != nil {
			slog.WarnContext(ctx, "Failed to load club of event form", slog.String("club_id", form.ClubID), slog.Any("err", err))
		} else {
			page.Club = club
		}
	}

	w.WriteHeader(status)
	h.render(w, r, "event_form.gohtml", page)
}

func (h *handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := platform.ID(r.PathValue("event_id"))
	h.runCardAction(w, r, cardAction{
		Intent: view.IntentDelete,
		Run: func(ctx context.Context, identity session.Identity) error {
			return h.Queries.DeleteEvent(ctx, identity, id).Err
		},
		Confirm: confirmation{
			Heading: "Delete Event",
			Message: "Are you sure you want to delete this event? This action cannot be undone.",
			Label:   "Delete",
		},
		Success:    successToast("Event deleted successfully!", "The event has been removed."),
		ErrorTitle: "Error deleting event",
		Entity:     view.EventURL(id),
		Fallback:   "/events",
		Removes:    true,
	})
}

func (h *handler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	id := platform.ID(r.PathValue("event_id"))
	h.runCardAction(w, r, cardAction{
		Intent: view.IntentJoin,
		Run: func(ctx context.Context, identity session.Identity) error {
			return h.Queries.JoinEvent(ctx, identity, id).Err
		},
		Success:    successToast("Joined event", "See you there!"),
		ErrorTitle: "Error joining event",
		Entity:     view.EventURL(id),
		Fallback:   "/events",
	})
}

func (h *handler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	id := platform.ID(r.PathValue("event_id"))
	h.runCardAction(w, r, cardAction{
		Intent: view.IntentLeave,
		Run: func(ctx context.Context, identity session.Identity) error {
			return h.Queries.LeaveEvent(ctx, identity, id).Err
		},
		Confirm: confirmation{
			Heading: "Are you sure you want to leave this event?",
			Message: "This action cannot be undone. You may not be able to rejoin if the event becomes full.",
			Label:   "Leave Event",
		},
		Success:    successToast("Left event", ""),
		ErrorTitle: "Error leaving event",
		Entity:     view.EventURL(id),
		Fallback:   "/events",
	})
}
