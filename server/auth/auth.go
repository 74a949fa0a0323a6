package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/meetandfeat/web/internal/xrand"
)

const MaxLoginFlowDuration = 10 * time.Minute

var defaultScopes = []string{"openid", "email", "profile"}

type loginState struct {
	RedirectURL string
	CreatedAt   time.Time
}

func (s loginState) IsExpired() bool {
	return time.Since(s.CreatedAt) > MaxLoginFlowDuration
}

func New(cfg Config, publicURL string) *Auth {
	if cfg.Mode == "" {
		cfg.Mode = ModeRedirect
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	a := &Auth{
		cfg:         cfg,
		callbackURL: strings.TrimSuffix(publicURL, "/") + "/login/callback",
		oauth2Cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoints.Google,
			RedirectURL:  strings.TrimSuffix(publicURL, "/") + "/login/callback",
			Scopes:       scopes,
		},
		states: make(map[string]loginState),
	}

	go a.cleanupStates()

	return a
}

type Auth struct {
	cfg         Config
	callbackURL string
	oauth2Cfg   *oauth2.Config
	states      map[string]loginState
	statesMu    sync.Mutex
}

func (a *Auth) Mode() Mode {
	return a.cfg.Mode
}

func (a *Auth) Config() *oauth2.Config {
	return a.oauth2Cfg
}

// CallbackURL is where a finished login returns to.
func (a *Auth) CallbackURL() string {
	return a.callbackURL
}

func (a *Auth) NewState(redirectURL string) string {
	a.statesMu.Lock()
	defer a.statesMu.Unlock()

	state := xrand.String(32)
	a.states[state] = loginState{
		RedirectURL: redirectURL,
		CreatedAt:   time.Now(),
	}
	return state
}

// GetState consumes state and returns the url the login started from.
func (a *Auth) GetState(state string) (string, bool) {
	a.statesMu.Lock()
	defer a.statesMu.Unlock()

	lState, ok := a.states[state]
	if ok {
		delete(a.states, state)
	}

	if !ok || lState.IsExpired() {
		return "", false
	}

	return lState.RedirectURL, true
}

// SafeRedirect keeps redirects after login on this site.
func SafeRedirect(redirectURL string) string {
	if !strings.HasPrefix(redirectURL, "/") || strings.HasPrefix(redirectURL, "//") || strings.HasPrefix(redirectURL, "/\\") {
		return "/"
	}
	return redirectURL
}

func (a *Auth) cleanupStates() {
	for {
		a.doCleanupStates()
		time.Sleep(10 * time.Minute)
	}
}

func (a *Auth) doCleanupStates() {
	a.statesMu.Lock()
	defer a.statesMu.Unlock()

	for state, lState := range a.states {
		if lState.IsExpired() {
			delete(a.states, state)
		}
	}
}
