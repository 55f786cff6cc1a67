package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/camden-git/clubdash/cache"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// SessionContextKey stores the session's cache in the request context.
	SessionContextKey ContextKey = "session_cache"
	// SessionIDContextKey stores the session id.
	SessionIDContextKey ContextKey = "session_id"

	SessionCookie = "clubdash_session"
)

// SessionMiddleware gives every browser session its own cache, keyed by a
// random cookie. Invalid or missing cookies start a new session.
func SessionMiddleware(sessions *cache.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), SessionIDContextKey, id)
			ctx = context.WithValue(ctx, SessionContextKey, sessions.For(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionCache returns the request's session cache. Requests that did not
// pass through SessionMiddleware get nil, which disables memoization.
func sessionCache(r *http.Request) *cache.Cache {
	c, _ := r.Context().Value(SessionContextKey).(*cache.Cache)
	return c
}
