package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/meetandfeat/web/internal/xquery"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/queries"
	"github.com/meetandfeat/web/server/session"
	"github.com/meetandfeat/web/server/view"
)

type ClubsPage struct {
	Page
	Search string
	Clubs  []view.ClubCard
	Error  string
}

func (h *handler) Clubs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	search := xquery.ParseString(r.URL.Query(), "q", "")
	viewer := h.viewer(r)

	keys := append(membershipKeys(viewer.Identity), queries.ClubsKey(search))
	page := ClubsPage{
		Page:   h.newPage(w, r, "Clubs", keys...),
		Search: search,
	}

	clubs, err := h.Queries.Clubs(ctx, viewer.Identity, search)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load clubs", slog.Any("err", err))
		page.Error = "Failed to load clubs: " + errorMessage(err)
	}
	page.Clubs = view.NewClubCards(viewer, clubs)

	h.render(w, r, "clubs.gohtml", page)
}

type ClubEventsPage struct {
	Page
	Card   view.ClubCard
	Search string
	// CanCreate is true for members and the creator of the club.
	CanCreate bool
	NewURL    string
	Events    []view.EventCard
	Error     string
}

func (h *handler) ClubEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := platform.ID(r.PathValue("club_id"))

	search := xquery.ParseString(r.URL.Query(), "q", "")
	viewer := h.viewer(r)

	club, err := h.Queries.Club(ctx, viewer.Identity, id)
	if err != nil {
		if platform.KindOf(err) == platform.KindNotFound {
			h.NotFound(w, r)
			return
		}
		slog.ErrorContext(ctx, "Failed to load club", slog.String("club_id", id.String()), slog.Any("err", err))
		h.addToast(w, r, Toast{Kind: ToastError, Title: "Error loading club", Message: errorMessage(err)})
		http.Redirect(w, r, "/clubs", http.StatusSeeOther)
		return
	}

	card := view.NewClubCard(viewer, *club)
	keys := append(membershipKeys(viewer.Identity), queries.ClubKey(id), queries.ClubEventsKey(id, queries.Viewer(viewer.Identity), search))
	page := ClubEventsPage{
		Page:      h.newPage(w, r, club.Name, keys...),
		Card:      card,
		Search:    search,
		CanCreate: card.Member || card.Creator,
		NewURL:    "/events/new?club_id=" + id.String(),
	}

	events, err := h.Queries.ClubEvents(ctx, viewer.Identity, id, search)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load club events", slog.String("club_id", id.String()), slog.Any("err", err))
		page.Error = "Failed to load club events: " + errorMessage(err)
	}
	page.Events = view.NewEventCards(viewer, events)

	h.render(w, r, "club_events.gohtml", page)
}

type ClubFormPage struct {
	Page
	Form   view.ClubForm
	Action string
	Submit string
	Cancel string
}

func (h *handler) NewClub(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireLogin(w, r); !ok {
		return
	}
	h.renderClubForm(w, r, http.StatusOK, view.ClubForm{}, "/clubs/new", "Create Club")
}

func (h *handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}

	form := view.NewClubForm(r)
	input, ok := form.Validate()
	if !ok {
		h.renderClubForm(w, r, http.StatusUnprocessableEntity, form, "/clubs/new", "Create Club")
		return
	}

	result := h.Queries.CreateClub(ctx, identity, input)
	if !result.OK() {
		slog.ErrorContext(ctx, "Failed to create club", slog.Any("err", result.Err))
		h.renderClubFormError(w, r, form, "/clubs/new", "Create Club", "Error creating club", result.Err)
		return
	}

	h.AnnounceClub(ctx, *result.Value)

	h.addToast(w, r, successToast("Club created successfully!", "Your club is now listed."))
	http.Redirect(w, r, "/clubs", http.StatusSeeOther)
}

// editableClub loads the club of the request and makes sure the viewer created it.
func (h *handler) editableClub(w http.ResponseWriter, r *http.Request, identity session.Identity) (*platform.Club, bool) {
	ctx := r.Context()
	id := platform.ID(r.PathValue("club_id"))

	club, err := h.Queries.Club(ctx, identity, id)
	if err != nil {
		if platform.KindOf(err) == platform.KindNotFound {
			h.NotFound(w, r)
			return nil, false
		}
		slog.ErrorContext(ctx, "Failed to load club", slog.String("club_id", id.String()), slog.Any("err", err))
		h.addToast(w, r, Toast{Kind: ToastError, Title: "Error loading club", Message: errorMessage(err)})
		http.Redirect(w, r, "/clubs", http.StatusSeeOther)
		return nil, false
	}

	if !identity.Is(club.CreatedByID) {
		h.addToast(w, r, Toast{Kind: ToastError, Title: "Error updating club", Message: "Only the creator can edit this club."})
		http.Redirect(w, r, view.ClubURL(id), http.StatusSeeOther)
		return nil, false
	}
	return club, true
}

func (h *handler) EditClub(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	club, ok := h.editableClub(w, r, identity)
	if !ok {
		return
	}

	h.renderClubForm(w, r, http.StatusOK, view.ClubFormFrom(*club), view.ClubURL(club.ID)+"/edit", "Update Club")
}

func (h *handler) UpdateClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	club, ok := h.editableClub(w, r, identity)
	if !ok {
		return
	}
	action := view.ClubURL(club.ID) + "/edit"

	form := view.NewClubForm(r)
	if _, ok = form.Validate(); !ok {
		h.renderClubForm(w, r, http.StatusUnprocessableEntity, form, action, "Update Club")
		return
	}

	result := h.Queries.UpdateClub(ctx, identity, club.ID, form.Update(*club))
	if !result.OK() {
		slog.ErrorContext(ctx, "Failed to update club", slog.String("club_id", club.ID.String()), slog.Any("err", result.Err))
		h.renderClubFormError(w, r, form, action, "Update Club", "Error updating club", result.Err)
		return
	}

	h.addToast(w, r, successToast("Club updated successfully!", "Your club has been updated."))
	http.Redirect(w, r, view.ClubURL(club.ID), http.StatusSeeOther)
}

func (h *handler) renderClubFormError(w http.ResponseWriter, r *http.Request, form view.ClubForm, action string, submit string, title string, err error) {
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
		http.Redirect(w, r, "/clubs", http.StatusSeeOther)
		return
	default:
		form.Error = errorMessage(err)
	}
	h.renderClubForm(w, r, status, form, action, submit)
}

func (h *handler) renderClubForm(w http.ResponseWriter, r *http.Request, status int, form view.ClubForm, action string, submit string) {
	page := ClubFormPage{
		Page:   h.newPage(w, r, submit),
		Form:   form,
		Action: action,
		Submit: submit,
		Cancel: "/clubs",
	}
	w.WriteHeader(status)
	h.render(w, r, "club_form.gohtml", page)
}

func (h *handler) DeleteClub(w http.ResponseWriter, r *http.Request) {
	id := platform.ID(r.PathValue("club_id"))
	h.runCardAction(w, r, cardAction{
		Intent: view.IntentDelete,
		Run: func(ctx context.Context, identity session.Identity) error {
			return h.Queries.DeleteClub(ctx, identity, id).Err
		},
		Confirm: confirmation{
			Heading: "Delete Club",
			Message: "Are you sure you want to delete this club? Its events will no longer be listed. This action cannot be undone.",
			Label:   "Delete",
		},
		Success:    successToast("Club deleted successfully!", "The club has been removed."),
		ErrorTitle: "Error deleting club",
		Entity:     view.ClubURL(id),
		Fallback:   "/clubs",
		Removes:    true,
	})
}

func (h *handler) JoinClub(w http.ResponseWriter, r *http.Request) {
	id := platform.ID(r.PathValue("club_id"))
	h.runCardAction(w, r, cardAction{
		Intent: view.IntentJoin,
		Run: func(ctx context.Context, identity session.Identity) error {
			return h.Queries.JoinClub(ctx, identity, id).Err
		},
		Success:    successToast("Joined club", "Its events now show up in your timeline."),
		ErrorTitle: "Error joining club",
		Entity:     view.ClubURL(id),
		Fallback:   "/clubs",
	})
}

func (h *handler) LeaveClub(w http.ResponseWriter, r *http.Request) {
	id := platform.ID(r.PathValue("club_id"))
	h.runCardAction(w, r, cardAction{
		Intent: view.IntentLeave,
		Run: func(ctx context.Context, identity session.Identity) error {
			return h.Queries.LeaveClub(ctx, identity, id).Err
		},
		Confirm: confirmation{
			Heading: "Are you sure you want to leave this club?",
			Message: "You will no longer see the events of this club in your timeline.",
			Label:   "Leave Club",
		},
		Success:    successToast("Left club", ""),
		ErrorTitle: "Error leaving club",
		Entity:     view.ClubURL(id),
		Fallback:   "/clubs",
	})
}
