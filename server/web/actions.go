package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meetandfeat/web/internal/xquery"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/session"
	"github.com/meetandfeat/web/server/view"
)

type ConfirmPage struct {
	Page
	Heading  string
	Message  string
	Label    string
	Action   string
	Redirect string
}

type confirmation struct {
	Heading string
	Message string
	Label   string
}

// cardAction is a join, leave or delete triggered from an event or club card.
type cardAction struct {
	Intent  view.Intent
	Run     func(ctx context.Context, identity session.Identity) error
	Confirm confirmation
	Success Toast
	// ErrorTitle is the title of the toast shown when Run fails.
	ErrorTitle string
	// Entity is the page of the card's entity and Fallback where to go once it is gone.
	Entity   string
	Fallback string
	Removes  bool
}

func (h *handler) runCardAction(w http.ResponseWriter, r *http.Request, a cardAction) {
	ctx := r.Context()

	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	rd := redirectTarget(r, a.Entity)

	state, err := view.Walk(a.Intent, xquery.ParseBool(r.PostForm, "confirm", false))
	if err != nil {
		slog.ErrorContext(ctx, "Invalid card action", slog.Any("err", err))
		http.Error(w, "Invalid action", http.StatusBadRequest)
		return
	}

	if state.Confirming() {
		h.render(w, r, "confirm.gohtml", ConfirmPage{
			Page:     h.newPage(w, r, a.Confirm.Heading),
			Heading:  a.Confirm.Heading,
			Message:  a.Confirm.Message,
			Label:    a.Confirm.Label,
			Action:   r.URL.Path,
			Redirect: rd,
		})
		return
	}

	err = a.Run(ctx, identity)
	state, _ = state.Next(view.IntentSettle)
	slog.DebugContext(ctx, "Card action settled", slog.String("intent", string(a.Intent)), slog.String("state", string(state)), slog.Bool("ok", err == nil))

	gone := a.Removes && err == nil
	if err != nil {
		if toast, ok := errorToast(a.ErrorTitle, err); ok {
			h.addToast(w, r, toast)
		}
		gone = platform.KindOf(err) == platform.KindNotFound
	} else if a.Success.Title != "" {
		h.addToast(w, r, a.Success)
	}

	if gone && within(rd, a.Entity) {
		rd = a.Fallback
	}
	http.Redirect(w, r, rd, http.StatusSeeOther)
}

// within reports whether the local url u points at page or one of its sub pages.
func within(u string, page string) bool {
	return u == page || strings.HasPrefix(u, page+"/") || strings.HasPrefix(u, page+"?")
}
