package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/meetandfeat/web/internal/middlewares"
	"github.com/meetandfeat/web/internal/xquery"
	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/session"
)

type APIError struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

type APIEventsResponse struct {
	Events []platform.Event `json:"events"`
}

type APIClubsResponse struct {
	Clubs []platform.Club `json:"clubs"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", slog.Any("err", err))
	}
}

func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	kind := platform.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case platform.KindNetwork:
		status = http.StatusBadGateway
	case platform.KindValidation:
		status = http.StatusBadRequest
	case platform.KindAuthorization:
		status = http.StatusForbidden
	case platform.KindNotFound:
		status = http.StatusNotFound
	case platform.KindCapacity:
		status = http.StatusConflict
	}
	writeJSON(w, r, status, APIError{
		Error:     errorMessage(err),
		Kind:      kind.String(),
		RequestID: middlewares.GetRequestID(r.Context()),
	})
}

// APIEvents returns the timeline of the viewer, filtered by q and range.
func (h *handler) APIEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	identity := session.FromRequest(r)
	events, err := h.Queries.Events(ctx, identity, xquery.ParseString(query, "q", ""))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load events", slog.Any("err", err))
		writeAPIError(w, r, err)
		return
	}

	start, end := xtime.GetRange(xquery.ParseString(query, "range", xtime.RangeAll), time.Now())
	writeJSON(w, r, http.StatusOK, APIEventsResponse{
		Events: platform.EventsBetween(events, start, end),
	})
}

func (h *handler) APIEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := platform.ID(r.PathValue("event_id"))

	event, err := h.Queries.Event(ctx, session.FromRequest(r), id)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, event)
}

func (h *handler) APIClubs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubs, err := h.Queries.Clubs(ctx, session.FromRequest(r), xquery.ParseString(r.URL.Query(), "q", ""))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load clubs", slog.Any("err", err))
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, APIClubsResponse{
		Clubs: clubs,
	})
}

func (h *handler) APIClubEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := platform.ID(r.PathValue("club_id"))

	events, err := h.Queries.ClubEvents(ctx, session.FromRequest(r), id, xquery.ParseString(r.URL.Query(), "q", ""))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load club events", slog.String("club_id", id.String()), slog.Any("err", err))
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, APIEventsResponse{
		Events: events,
	})
}
