package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/meetandfeat/web/server/querycache"
	"github.com/meetandfeat/web/server/session"
)

const (
	maxLiveKeys      = 8
	liveKeepAlive    = 30 * time.Second
	liveEventChanged = "changed"
)

// Live streams a server-sent event whenever one of the observed keys was invalidated and
// fetched again, so the page can reload its data.
func (h *handler) Live(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := session.FromRequest(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	rawKeys := r.URL.Query()["key"]
	if len(rawKeys) == 0 || len(rawKeys) > maxLiveKeys {
		http.Error(w, fmt.Sprintf("expected between 1 and %d keys", maxLiveKeys), http.StatusBadRequest)
		return
	}

	changed := make(chan querycache.Key, len(rawKeys))
	for _, rawKey := range rawKeys {
		key, err := querycache.ParseKey(rawKey)
		if err != nil {
			http.Error(w, "invalid key: "+err.Error(), http.StatusBadRequest)
			return
		}
		fetcher, err := h.Queries.Fetcher(ctx, identity, key)
		if err != nil {
			slog.DebugContext(ctx, "Refusing to observe key", slog.String("key", rawKey), slog.Any("err", err))
			http.Error(w, "cannot observe "+rawKey, http.StatusForbidden)
			return
		}

		observer := h.Cache.NewObserver()
		observer.SetKey(key, fetcher)
		defer observer.Close()

		go forwardChanges(r, observer, changed)
	}

	writeStreamHeaders(w)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(liveKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case key := <-changed:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", liveEventChanged, key); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// forwardChanges reports the key of observer whenever its data changed since the stream
// started. Fetches which only refreshed stale data are not reported.
func forwardChanges(r *http.Request, observer *querycache.Observer, changed chan<- querycache.Key) {
	ctx := r.Context()
	generation := observer.Snapshot().Generation

	for {
		select {
		case <-ctx.Done():
			return
		case <-observer.Updates():
			snapshot := observer.Snapshot()
			if snapshot.Generation == generation {
				continue
			}
			generation = snapshot.Generation
			select {
			case changed <- snapshot.Key:
			default:
			}
		}
	}
}
