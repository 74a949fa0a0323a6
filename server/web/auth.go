package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/meetandfeat/web/internal/xquery"
	"github.com/meetandfeat/web/server/auth"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/session"
)

const oauthStateCookie = "oauthstate"

type LoginPage struct {
	Page
	StartURL string
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	rd := auth.SafeRedirect(xquery.ParseString(r.URL.Query(), "rd", "/events"))

	if session.FromRequest(r).Authenticated() {
		http.Redirect(w, r, rd, http.StatusSeeOther)
		return
	}

	h.render(w, r, "login.gohtml", LoginPage{
		Page:     h.newPage(w, r, "Login"),
		StartURL: "/login/start?rd=" + url.QueryEscape(rd),
	})
}

// LoginStart begins the login flow of the configured mode.
func (h *handler) LoginStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rd := auth.SafeRedirect(xquery.ParseString(r.URL.Query(), "rd", "/events"))
	state := h.Auth.NewState(rd)

	if h.Auth.Mode() == auth.ModeRedirect {
		callbackURL := h.Auth.CallbackURL() + "?" + url.Values{"state": {state}}.Encode()
		http.Redirect(w, r, h.Platform.LoginURL(callbackURL), http.StatusSeeOther)
		return
	}

	encoded, err := h.Cookies.Encode(oauthStateCookie, state)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode oauth state", slog.Any("err", err))
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	h.addOauthCookie(w, encoded, time.Now().Add(auth.MaxLoginFlowDuration))

	scopes := strings.Join(h.Auth.Config().Scopes, " ")
	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("scope", scopes)}
	http.Redirect(w, r, h.Auth.Config().AuthCodeURL(state, opts...), http.StatusSeeOther)
}

func (h *handler) LoginCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	state := query.Get("state")

	if h.Auth.Mode() == auth.ModeOAuth2 {
		cookie, _ := r.Cookie(oauthStateCookie)
		var cookieState string
		if cookie != nil {
			if err := h.Cookies.Decode(oauthStateCookie, cookie.Value, &cookieState); err != nil {
				slog.DebugContext(ctx, "Invalid oauth state cookie", slog.Any("err", err))
			}
		}
		if cookieState == "" || cookieState != state {
			http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
			return
		}
	}

	redirectURL, ok := h.Auth.GetState(state)
	if !ok {
		http.Error(w, "Unknown OAuth state", http.StatusBadRequest)
		return
	}

	switch h.Auth.Mode() {
	case auth.ModeOAuth2:
		token, err := h.Auth.Config().Exchange(ctx, query.Get("code"))
		if err != nil {
			slog.ErrorContext(ctx, "Failed to exchange OAuth code", slog.Any("err", err))
			http.Error(w, "Failed to exchange OAuth code", http.StatusInternalServerError)
			return
		}

		sessionToken, expiration, err := h.Platform.ExchangeToken(ctx, token.AccessToken)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to exchange token for a session", slog.Any("err", err))
			h.addToast(w, r, Toast{Kind: ToastError, Title: "Login failed", Message: errorMessage(err)})
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.addSessionCookie(w, sessionToken, expiration)
		h.removeOauthCookie(w)

	default:
		// the auth service sets the session cookie itself, some deployments hand it over instead
		if token := query.Get("token"); token != "" {
			h.addSessionCookie(w, token, time.Now().Add(platform.SessionTTL))
		}
	}

	h.addToast(w, r, successToast("Logged in", ""))
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// Logout ends the session with the auth service, best effort, and forgets it here.
func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := h.Sessions.Token(r)
	if token != "" {
		if err := h.Platform.Logout(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to logout from auth service", slog.Any("err", err))
		}
		h.Sessions.Clear(ctx, token)
	}
	h.removeSessionCookie(w)

	h.addToast(w, r, successToast("Logged out", ""))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) addOauthCookie(w http.ResponseWriter, state string, expiration time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  expiration,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Server.SecureCookie,
		HttpOnly: true,
		Path:     "/login/callback",
	})
}

func (h *handler) removeOauthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Server.SecureCookie,
		HttpOnly: true,
		Path:     "/login/callback",
	})
}

func (h *handler) addSessionCookie(w http.ResponseWriter, token string, expiration time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Sessions.CookieName(),
		Value:    token,
		Expires:  expiration,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Server.SecureCookie,
		HttpOnly: true,
		Path:     "/",
	})
}

func (h *handler) removeSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Sessions.CookieName(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Server.SecureCookie,
		HttpOnly: true,
		Path:     "/",
	})
}
