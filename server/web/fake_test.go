package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meetandfeat/web/internal/xtime"
	"github.com/meetandfeat/web/server"
	"github.com/meetandfeat/web/server/platform"
	"github.com/meetandfeat/web/server/querycache"
)

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

var testUsers = map[string]platform.User{
	aliceToken: {ID: "7", FullName: "Alice Smith", Email: "alice@example.com"},
	bobToken:   {ID: "8", FullName: "Bob Jones", Email: "bob@example.com"},
}

// fakePlatform serves the auth, events and clubs services from memory.
type fakePlatform struct {
	mu           sync.Mutex
	events       []platform.Event
	clubs        []platform.Club
	participants map[platform.ID][]platform.ID
	members      map[platform.ID][]platform.ID
	calls        map[string]int
	nextID       int
}

func newFakePlatform() *fakePlatform {
	upcoming := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	return &fakePlatform{
		events: []platform.Event{
			{ID: "1", Title: "Chess Night", Description: "Bring a board", Datetime: xtime.NewDateTime(upcoming), Location: "Library", MaxParticipation: 10, CurParticipation: 1, CreatedByID: "7", CreatedByName: "Alice Smith"},
			{ID: "2", Title: "Campus Run", Description: "Five kilometers", Datetime: xtime.NewDateTime(upcoming.Add(time.Hour)), Location: "Stadium", MaxParticipation: 20, CurParticipation: 1, CreatedByID: "8", CreatedByName: "Bob Jones"},
			{ID: "3", Title: "Cooking Class", Description: "Thai curry", Datetime: xtime.NewDateTime(upcoming.Add(2 * time.Hour)), Location: "Kitchen", MaxParticipation: 1, CurParticipation: 1, CreatedByID: "8", CreatedByName: "Bob Jones"},
			{ID: "4", Title: "Robot Build", Description: "Members only", Datetime: xtime.NewDateTime(upcoming.Add(3 * time.Hour)), Location: "Lab", MaxParticipation: 5, CreatedByID: "8", CreatedByName: "Bob Jones", ClubID: "1"},
		},
		clubs: []platform.Club{
			{ID: "1", Name: "Robotics Club", Description: "We build robots", CreatedByID: "8", CreatedByName: "Bob Jones"},
			{ID: "2", Name: "Chess Club", Description: "We play chess", CreatedByID: "7", CreatedByName: "Alice Smith"},
		},
		participants: map[platform.ID][]platform.ID{
			"1": {"7"},
			"2": {"7"},
			"3": {"8"},
		},
		members: map[platform.ID][]platform.ID{
			"2": {"7"},
		},
		calls:  map[string]int{},
		nextID: 100,
	}
}

func (f *fakePlatform) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakePlatform) call(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakePlatform) user(r *http.Request) (platform.User, bool) {
	cookie, err := r.Cookie("token")
	if err != nil {
		return platform.User{}, false
	}
	user, ok := testUsers[cookie.Value]
	return user, ok
}

func (f *fakePlatform) event(id platform.ID) int {
	return slices.IndexFunc(f.events, func(e platform.Event) bool {
		return e.ID == id
	})
}

func (f *fakePlatform) club(id platform.ID) int {
	return slices.IndexFunc(f.clubs, func(c platform.Club) bool {
		return c.ID == id
	})
}

func (f *fakePlatform) visibleEvents(clubIDs []platform.ID) []platform.Event {
	events := []platform.Event{}
	for _, event := range f.events {
		if event.ClubID == "" || slices.Contains(clubIDs, event.ClubID) {
			events = append(events, event)
		}
	}
	return events
}

func fakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fakeMessage(w http.ResponseWriter, status int, message string) {
	fakeJSON(w, status, map[string]string{"message": message})
}

func (f *fakePlatform) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/validate", func(w http.ResponseWriter, r *http.Request) {
		f.call("validate")
		user, ok := f.user(r)
		if !ok {
			fakeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		fakeJSON(w, http.StatusOK, map[string]any{"user": user})
	})
	mux.HandleFunc("GET /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.call("logout")
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["events"]++
		fakeJSON(w, http.StatusOK, f.visibleEvents(nil))
	})
	mux.HandleFunc("POST /events", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ClubIDs []platform.ID `json:"club_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			fakeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["events"]++
		fakeJSON(w, http.StatusOK, map[string]any{"events": f.visibleEvents(body.ClubIDs)})
	})
	mux.HandleFunc("GET /club/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		user, _ := f.user(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		i := f.club(platform.ID(r.PathValue("id")))
		if i == -1 {
			fakeMessage(w, http.StatusNotFound, "Club not found")
			return
		}
		if f.clubs[i].CreatedByID != user.ID && !slices.Contains(f.members[f.clubs[i].ID], user.ID) {
			fakeMessage(w, http.StatusForbidden, "Only members can view club events")
			return
		}
		events := []platform.Event{}
		for _, event := range f.events {
			if event.ClubID == platform.ID(r.PathValue("id")) {
				events = append(events, event)
			}
		}
		fakeJSON(w, http.StatusOK, events)
	})
	mux.HandleFunc("POST /event", func(w http.ResponseWriter, r *http.Request) {
		var input platform.EventInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			fakeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if input.MaxParticipation > 500 {
			fakeMessage(w, http.StatusBadRequest, "max_participation: capacity exceeds the venue limit")
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["create event"]++
		f.nextID++
		event := input.Event(platform.ID(fmt.Sprint(f.nextID)))
		f.events = append(f.events, event)
		fakeJSON(w, http.StatusCreated, event)
	})
	mux.HandleFunc("PUT /event/{id}", func(w http.ResponseWriter, r *http.Request) {
		var input platform.EventInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			fakeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["update event"]++
		i := f.event(platform.ID(r.PathValue("id")))
		if i == -1 {
			fakeMessage(w, http.StatusNotFound, "Event not found")
			return
		}
		event := input.Event(f.events[i].ID)
		event.CurParticipation = f.events[i].CurParticipation
		f.events[i] = event
		fakeJSON(w, http.StatusOK, event)
	})
	mux.HandleFunc("DELETE /event/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["delete event"]++
		i := f.event(platform.ID(r.PathValue("id")))
		if i == -1 {
			fakeMessage(w, http.StatusNotFound, "Event not found")
			return
		}
		f.events = slices.Delete(f.events, i, i+1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /event/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID platform.ID `json:"user_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["join event"]++
		id := platform.ID(r.PathValue("id"))
		i := f.event(id)
		if i == -1 {
			fakeMessage(w, http.StatusNotFound, "Event not found")
			return
		}
		if f.events[i].IsFull() {
			fakeMessage(w, http.StatusConflict, "Event is full")
			return
		}
		f.events[i].CurParticipation++
		f.participants[id] = append(f.participants[id], body.UserID)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /event/{id}/leave", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID platform.ID `json:"user_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["leave event"]++
		id := platform.ID(r.PathValue("id"))
		i := f.event(id)
		if i == -1 {
			fakeMessage(w, http.StatusNotFound, "Event not found")
			return
		}
		f.events[i].CurParticipation--
		f.participants[id] = slices.DeleteFunc(f.participants[id], func(userID platform.ID) bool {
			return userID == body.UserID
		})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /user/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		events := []platform.Event{}
		for _, event := range f.events {
			if event.CreatedByID == platform.ID(r.PathValue("id")) {
				events = append(events, event)
			}
		}
		fakeJSON(w, http.StatusOK, events)
	})
	mux.HandleFunc("GET /user/{id}/participated-events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		events := []platform.Event{}
		for _, event := range f.events {
			if slices.Contains(f.participants[event.ID], platform.ID(r.PathValue("id"))) {
				events = append(events, event)
			}
		}
		fakeJSON(w, http.StatusOK, events)
	})

	mux.HandleFunc("GET /clubs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		fakeJSON(w, http.StatusOK, f.clubs)
	})
	mux.HandleFunc("GET /clubs/user", func(w http.ResponseWriter, r *http.Request) {
		user, ok := f.user(r)
		if !ok {
			fakeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		clubs := []platform.Club{}
		for _, club := range f.clubs {
			if slices.Contains(f.members[club.ID], user.ID) {
				clubs = append(clubs, club)
			}
		}
		fakeJSON(w, http.StatusOK, clubs)
	})
	mux.HandleFunc("GET /club/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		i := f.club(platform.ID(r.PathValue("id")))
		if i == -1 {
			fakeMessage(w, http.StatusNotFound, "Club not found")
			return
		}
		fakeJSON(w, http.StatusOK, f.clubs[i])
	})
	mux.HandleFunc("POST /club", func(w http.ResponseWriter, r *http.Request) {
		var input platform.ClubInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			fakeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["create club"]++
		f.nextID++
		club := input.Club(platform.ID(fmt.Sprint(f.nextID)))
		f.clubs = append(f.clubs, club)
		fakeJSON(w, http.StatusCreated, club)
	})
	mux.HandleFunc("DELETE /club/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["delete club"]++
		i := f.club(platform.ID(r.PathValue("id")))
		if i == -1 {
			fakeMessage(w, http.StatusNotFound, "Club not found")
			return
		}
		f.clubs = slices.Delete(f.clubs, i, i+1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /clubs/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID platform.ID `json:"user_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["join club"]++
		id := platform.ID(r.PathValue("id"))
		f.members[id] = append(f.members[id], body.UserID)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /clubs/{id}/leave", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID platform.ID `json:"user_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["leave club"]++
		id := platform.ID(r.PathValue("id"))
		f.members[id] = slices.DeleteFunc(f.members[id], func(userID platform.ID) bool {
			return userID == body.UserID
		})
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

type testApp struct {
	platform *fakePlatform
	handler  http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	fake := newFakePlatform()
	upstream := httptest.NewServer(fake.Handler())
	t.Cleanup(upstream.Close)

	srv, err := server.New(server.Config{
		Server: server.ServerConfig{
			Addr:         ":0",
			PublicURL:    "http://meetandfeat.test",
			CookieSecret: "0123456789abcdef0123456789abcdef",
			Timezone:     "UTC",
		},
		Platform: platform.Config{
			AuthURL:    upstream.URL,
			EventsURL:  upstream.URL,
			ClubsURL:   upstream.URL,
			CookieName: "token",
			Timeout:    xtime.Duration(5 * time.Second),
		},
		Cache: querycache.Config{
			StaleTime: xtime.Duration(time.Minute),
		},
	})
	require.NoError(t, err)
	t.Cleanup(srv.Cache.Close)

	return &testApp{
		platform: fake,
		handler:  Routes(srv),
	}
}

type requestOption func(r *http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
}

func withCookies(cookies []*http.Cookie) requestOption {
	return func(r *http.Request) {
		for _, cookie := range cookies {
			if cookie.MaxAge < 0 {
				continue
			}
			r.AddCookie(cookie)
		}
	}
}

func (a *testApp) get(t *testing.T, target string, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for _, opt := range opts {
		opt(r)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func (a *testApp) post(t *testing.T, target string, form url.Values, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, opt := range opts {
		opt(r)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}
