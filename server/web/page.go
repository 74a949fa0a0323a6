package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/meetandfeat/web/server/auth"
	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
	"github.com/meetandfeat/web/server/view"
)

// Page is the data every template receives.
type Page struct {
	Title  string
	Path   string
	Nav    string
	Viewer session.Identity
	Toasts []Toast
	// Live is the url of the stream announcing changes to the data shown on the page.
	Live string
	Dev  bool
}

func (h *handler) newPage(w http.ResponseWriter, r *http.Request, title string, keys ...querycache.Key) Page {
	return Page{
		Title:  title,
		Path:   r.URL.RequestURI(),
		Nav:    navSection(r.URL.Path),
		Viewer: session.FromRequest(r),
		Toasts: h.takeToasts(w, r),
		Live:   liveURL(keys),
		Dev:    h.Cfg.Dev,
	}
}

func navSection(path string) string {
	for _, section := range []string{"/events", "/clubs", "/profile"} {
		if path == section || strings.HasPrefix(path, section+"/") {
			return section[1:]
		}
	}
	return ""
}

func liveURL(keys []querycache.Key) string {
	if len(keys) == 0 {
		return ""
	}
	query := url.Values{}
	for _, key := range keys {
		query.Add("key", key.String())
	}
	return "/live?" + query.Encode()
}

func (h *handler) viewer(r *http.Request) view.Viewer {
	identity := session.FromRequest(r)
	membership, err := h.Queries.Membership(r.Context(), identity)
	if err != nil {
		slog.WarnContext(r.Context(), "Failed to load membership", slog.Any("err", err))
	}
	return view.Viewer{
		Identity:   identity,
		Membership: membership,
		Page:       r.URL.RequestURI(),
	}
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := h.Templates().ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render template", slog.String("template", name), slog.Any("err", err))
	}
}

// requireLogin redirects guests to the login page and reports whether the request may continue.
func (h *handler) requireLogin(w http.ResponseWriter, r *http.Request) (session.Identity, bool) {
	identity := session.FromRequest(r)
	if identity.Authenticated() {
		return identity, true
	}

	rd := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		rd = redirectTarget(r, "/")
	}
	h.forceLogin(w, r, rd)
	return identity, false
}

func (h *handler) forceLogin(w http.ResponseWriter, r *http.Request, rd string) {
	u := url.URL{
		Path:     "/login",
		RawQuery: url.Values{"rd": {rd}}.Encode(),
	}
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// redirectTarget returns the local url a form asked to go back to.
func redirectTarget(r *http.Request, fallback string) string {
	rd := r.FormValue("rd")
	if rd == "" {
		return fallback
	}
	return auth.SafeRedirect(rd)
}
