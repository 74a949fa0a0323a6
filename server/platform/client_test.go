package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetandfeat/web/internal/omit"
	"github.com/meetandfeat/web/internal/xtime"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		AuthURL:    srv.URL,
		EventsURL:  srv.URL,
		ClubsURL:   srv.URL,
		CookieName: "token",
		MaxRetries: 2,
		RetryDelay: xtime.Duration(time.Millisecond),
	}, srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListEventsPublic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("token")
		require.NoError(t, err)
		assert.Equal(t, "abc", cookie.Value)

		_, _ = io.WriteString(w, `[{"id": 1, "title": "Chess Night", "datetime": "2026-10-20T18:00:00Z", "max_participation": 10, "cur_participation": 3, "created_by_id": "9", "club_id": null}]`)
	})
	c := newTestClient(t, mux)

	events, err := c.ListEvents(context.Background(), "abc", EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ID("1"), events[0].ID)
	assert.Equal(t, "Chess Night", events[0].Title)
	assert.False(t, events[0].IsClubEvent())
	assert.False(t, events[0].IsFull())
	assert.Equal(t, 18, events[0].Datetime.Hour())
}

func TestListEventsScopedToClubs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", func(w http.ResponseWriter, r *http.Request) {
		var body scopeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []ID{"1", "2"}, body.ClubIDs)
		writeJSON(w, http.StatusOK, map[string]any{"events": []map[string]any{{"id": "5", "club_id": "2"}}})
	})
	c := newTestClient(t, mux)

	events, err := c.ListEvents(context.Background(), "", EventFilter{MemberOf: []ID{"1", "2"}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsClubEvent())
}

func TestListEventsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /club/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.PathValue("id"))
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux)

	events, err := c.ListEvents(context.Background(), "", EventFilter{ClubID: "3"})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestGetEventNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Event{{ID: "1"}})
	})
	c := newTestClient(t, mux)

	event, err := c.GetEvent(context.Background(), "", "1", EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, ID("1"), event.ID)

	_, err = c.GetEvent(context.Background(), "", "2", EventFilter{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestJoinEventCapacity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /event/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		var body membershipRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, ID("7"), body.UserID)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Event is full"})
	})
	c := newTestClient(t, mux)

	err := c.JoinEvent(context.Background(), "abc", "1", "7")
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, "Event is full", Message(err))
}

func TestJoinEventConflictIsCapacity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /event/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	mux.HandleFunc("POST /event/{id}/leave", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Event is full"})
	})
	c := newTestClient(t, mux)

	err := c.JoinEvent(context.Background(), "abc", "1", "7")
	assert.Equal(t, KindCapacity, KindOf(err))

	err = c.LeaveEvent(context.Background(), "abc", "1", "7")
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestCreateValidationMentioningCapacity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /event", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "max_participation: capacity must be at least 1"})
	})
	mux.HandleFunc("POST /club", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "club is full of typos"})
	})
	c := newTestClient(t, mux)

	_, err := c.CreateEvent(context.Background(), "abc", EventInput{Title: "Chess Night"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "max_participation: capacity must be at least 1", Message(err))

	_, err = c.CreateClub(context.Background(), "abc", ClubInput{Name: "Chess"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestErrorMessageKeepsRunes(t *testing.T) {
	body := strings.Repeat("ก", maxErrorMessage+10)

	msg := errorMessage([]byte(body))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, maxErrorMessage, utf8.RuneCountInString(msg))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: KindAuthorization},
		{name: "forbidden", status: http.StatusForbidden, want: KindAuthorization},
		{name: "not found", status: http.StatusNotFound, want: KindNotFound},
		{name: "conflict", status: http.StatusConflict, want: KindValidation},
		{name: "bad request mentioning capacity", status: http.StatusBadRequest, body: `{"message": "capacity must be at least 1"}`, want: KindValidation},
		{name: "validation", status: http.StatusUnprocessableEntity, body: `{"error": "title is required"}`, want: KindValidation},
		{name: "server", status: http.StatusInternalServerError, want: KindNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("DELETE /event/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c := newTestClient(t, mux)

			err := c.DeleteEvent(context.Background(), "abc", "1")
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestRetryOnlyIdempotent(t *testing.T) {
	var gets, posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /clubs", func(w http.ResponseWriter, r *http.Request) {
		if gets.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, []Club{{ID: "1", Name: "Chess"}})
	})
	mux.HandleFunc("POST /clubs/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := newTestClient(t, mux)

	clubs, err := c.ListClubs(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, clubs, 1)
	assert.EqualValues(t, 3, gets.Load())

	err = c.JoinClub(context.Background(), "abc", "1", "7")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.EqualValues(t, 1, posts.Load())
}

func TestNetworkError(t *testing.T) {
	c := New(Config{EventsURL: "http://127.0.0.1:1", CookieName: "token"}, http.DefaultClient)
	_, err := c.ListEvents(context.Background(), "", EventFilter{})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestGetClubWrapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /club/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"club": map[string]any{"id": 4, "name": "Robotics", "created_by_id": 9}})
	})
	c := newTestClient(t, mux)

	club, err := c.GetClub(context.Background(), "", "4")
	require.NoError(t, err)
	assert.Equal(t, "Robotics", club.Name)
	assert.Equal(t, ID("9"), club.CreatedByID)
}

func TestUpdateClubPartial(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /club/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"description": "New"}, body)
		writeJSON(w, http.StatusOK, map[string]any{"id": "4", "name": "Robotics", "description": "New"})
	})
	c := newTestClient(t, mux)

	club, err := c.UpdateClub(context.Background(), "abc", "4", ClubUpdate{Description: omit.New("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", club.Description)
}

func TestValidateSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/validate", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("token"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 7, "fullName": "Nida", "email": "nida@example.com"}})
	})
	c := newTestClient(t, mux)

	user, err := c.ValidateSession(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, ID("7"), user.ID)
	assert.Equal(t, "Nida", user.FullName)

	_, err = c.ValidateSession(context.Background(), "")
	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestExchangeToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
		var body tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "provider-token", body.Token)
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "session-jwt"})
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{AuthURL: srv.URL, CookieName: "token", ExchangePath: "/auth/google/callback"}, srv.Client())
	token, expiration, err := c.ExchangeToken(context.Background(), "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "session-jwt", token)
	assert.True(t, expiration.After(time.Now()))
}

func TestLoginURL(t *testing.T) {
	c := New(Config{AuthURL: "http://auth.local/"}, http.DefaultClient)
	assert.Equal(t, "http://auth.local/auth/login?callbackUrl=http%3A%2F%2Fweb.local%2Flogin%2Fcallback", c.LoginURL("http://web.local/login/callback"))
}

func TestSearchEventsAndClubs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Event{{ID: "1", Title: "Chess Night"}, {ID: "2", Title: "Football"}})
	})
	mux.HandleFunc("GET /clubs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Club{{ID: "1", Name: "Chess Club"}, {ID: "2", Name: "Robotics", Description: "chess robots"}})
	})
	c := newTestClient(t, mux)

	events, err := c.SearchEvents(context.Background(), "", "chess", EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ID("1"), events[0].ID)

	clubs, err := c.SearchClubs(context.Background(), "", "CHESS")
	require.NoError(t, err)
	assert.Len(t, clubs, 2)
}
