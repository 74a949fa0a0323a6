package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/queries"
	"github.com/meetandfeat/web/server/view"
)

const upcomingOnIndex = 3

type IndexPage struct {
	Page
	Upcoming []view.EventCard
}

func (h *handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer := h.viewer(r)
	clubIDs := viewer.Membership.ClubIDs()
	page := IndexPage{
		Page: h.newPage(w, r, "Meet and Feat", queries.EventsKey(queries.Scope(clubIDs), "")),
	}

	events, err := h.Queries.ScopedEvents(ctx, viewer.Identity, viewer.Membership, "")
	if err != nil {
		slog.WarnContext(ctx, "Failed to load upcoming events", slog.Any("err", err))
	}
	start, end := xtime.GetRange(xtime.RangeUpcoming, time.Now())
	upcoming := platform.EventsBetween(events, start, end)
	if len(upcoming) > upcomingOnIndex {
		upcoming = upcoming[:upcomingOnIndex]
	}
	page.Upcoming = view.NewEventCards(viewer, upcoming)

	h.render(w, r, "index.gohtml", page)
}
