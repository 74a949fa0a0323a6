package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/meetandfeat/web/internal/middlewares"
	"github.com/meetandfeat/web/server"
)

type handler struct {
	*server.Server
}

func Routes(srv *server.Server) http.Handler {
	h := &handler{
		Server: srv,
	}

	fileServer := http.FileServer(h.StaticFS)
	var fs http.Handler
	if srv.Cfg.Dev {
		fs = fileServer
	} else {
		fs = middlewares.Cache(fileServer)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)

	mux.HandleFunc("GET /login", h.Login)
	mux.HandleFunc("GET /login/start", h.LoginStart)
	mux.HandleFunc("GET /login/callback", h.LoginCallback)
	mux.HandleFunc("POST /logout", h.Logout)

	mux.HandleFunc("GET  /events", h.Events)
	mux.HandleFunc("GET  /events/new", h.NewEvent)
	mux.HandleFunc("POST /events/new", h.CreateEvent)
	mux.HandleFunc("GET  /events/{event_id}", h.Event)
	mux.HandleFunc("GET  /events/{event_id}/qr", h.EventQR)
	mux.HandleFunc("GET  /events/{event_id}/edit", h.EditEvent)
	mux.HandleFunc("POST /events/{event_id}/edit", h.UpdateEvent)
	mux.HandleFunc("POST /events/{event_id}/delete", h.DeleteEvent)
	mux.HandleFunc("POST /events/{event_id}/join", h.JoinEvent)
	mux.HandleFunc("POST /events/{event_id}/leave", h.LeaveEvent)

	mux.HandleFunc("GET  /clubs", h.Clubs)
	mux.HandleFunc("GET  /clubs/new", h.NewClub)
	mux.HandleFunc("POST /clubs/new", h.CreateClub)
	mux.HandleFunc("GET  /clubs/{club_id}", h.ClubEvents)
	mux.HandleFunc("GET  /clubs/{club_id}/edit", h.EditClub)
	mux.HandleFunc("POST /clubs/{club_id}/edit", h.UpdateClub)
	mux.HandleFunc("POST /clubs/{club_id}/delete", h.DeleteClub)
	mux.HandleFunc("POST /clubs/{club_id}/join", h.JoinClub)
	mux.HandleFunc("POST /clubs/{club_id}/leave", h.LeaveClub)

	mux.HandleFunc("GET /profile", h.Profile)

	mux.HandleFunc("GET /live", h.Live)

	mux.Handle("/api/", h.api())

	mux.HandleFunc("/", h.NotFound)

	root := http.NewServeMux()
	root.Handle("GET  /static/", fs)
	root.Handle("HEAD /static/", fs)

	if srv.Cfg.Dev {
		root.HandleFunc("GET /dev/reload", h.DevReload)
	}

	root.Handle("/", middlewares.NoStore(h.Sessions.Middleware(mux)))

	return middlewares.Logger(root)
}

func (h *handler) api() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", h.APIEvents)
	mux.HandleFunc("GET /events/{event_id}", h.APIEvent)
	mux.HandleFunc("GET /clubs", h.APIClubs)
	mux.HandleFunc("GET /clubs/{club_id}/events", h.APIClubEvents)

	c := cors.New(cors.Options{
		AllowedOrigins:   h.Cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet},
		AllowCredentials: true,
	})

	return http.StripPrefix("/api", c.Handler(mux))
}

func (h *handler) NotFound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := h.newPage(w, r, "Not Found")
	w.WriteHeader(http.StatusNotFound)
	if err := h.Templates().ExecuteTemplate(w, "not_found.gohtml", page); err != nil {
		slog.ErrorContext(ctx, "Failed to render not found template", slog.Any("err", err))
	}
}

// DevReload streams server-sent events that instruct the browser to refresh
// whenever the dev watcher picks up a change on disk.
func (h *handler) DevReload(w http.ResponseWriter, r *http.Request) {
	if h.ReloadNotifier == nil {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	cancel, ch := h.ReloadNotifier.Subscribe()
	if ch == nil {
		w.WriteHeader(http.StatusGone)
		return
	}
	defer cancel()

	writeStreamHeaders(w)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, "data: reload\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
