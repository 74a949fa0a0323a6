package web

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/meetandfeat/web/internal/tsync"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/queries"
	"github.com/meetandfeat/web/server/view"
)

type ProfilePage struct {
	Page
	User *platform.User
	// Errors holds the message of every activity source which failed to load, by source name.
	Errors       map[string]string
	Participated []view.EventCard
	Hosted       []view.EventCard
	Clubs        []view.ClubCard
}

const (
	sourceParticipated = "participated"
	sourceHosted       = "hosted"
	sourceClubs        = "clubs"
)

// Profile shows the viewer and their activities. Every source loads on its own, a failing
// source only hides its own section.
func (h *handler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}

	var (
		participated []platform.Event
		hosted       []platform.Event
		clubs        []platform.Club
		errorsMu     sync.Mutex
		errs         = map[string]string{}
	)
	fail := func(source string, err error) error {
		errorsMu.Lock()
		defer errorsMu.Unlock()
		errs[source] = errorMessage(err)
		return err
	}

	eg, egCtx := tsync.ErrorGroupWithContext(ctx)
	eg.Go(sourceParticipated, func() error {
		var err error
		if participated, err = h.Queries.ParticipatedEvents(egCtx, identity); err != nil {
			return fail(sourceParticipated, err)
		}
		return nil
	})
	eg.Go(sourceHosted, func() error {
		var err error
		if hosted, err = h.Queries.HostedEvents(egCtx, identity); err != nil {
			return fail(sourceHosted, err)
		}
		return nil
	})
	eg.Go(sourceClubs, func() error {
		var err error
		if clubs, err = h.Queries.UserClubs(egCtx, identity); err != nil {
			return fail(sourceClubs, err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "Failed to load some activities", slog.Any("err", err))
	}

	viewer := view.Viewer{
		Identity:   identity,
		Membership: queries.NewMembership(clubs, participated),
		Page:       r.URL.RequestURI(),
	}

	page := ProfilePage{
		Page: h.newPage(w, r, "Profile",
			queries.UserEventsKey(identity.UserID()),
			queries.HostedEventsKey(identity.UserID()),
			queries.UserClubsKey(identity.UserID()),
		),
		User:         identity.User,
		Errors:       errs,
		Participated: view.NewEventCards(viewer, participated),
		Hosted:       view.NewEventCards(viewer, hosted),
		Clubs:        view.NewClubCards(viewer, clubs),
	}
	h.render(w, r, "profile.gohtml", page)
}
