package middlewares

import (
	"net/http"
)

// Cache marks responses as cacheable for an hour, revalidating after they go stale.
func Cache(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "stale-while-revalidate, max-age=3600")
		handler.ServeHTTP(w, r)
	})
}

// NoStore prevents caching of pages which depend on the viewer.
func NoStore(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		handler.ServeHTTP(w, r)
	})
}
