package auth

import (
	"context"
	"net/http"
	"time"

	"orgfees/internal/core"
	"orgfees/internal/log"
)

// CookieName carries the access token.
const CookieName = "accessToken"

type contextKey struct{}

func WithActor(ctx context.Context, actor core.Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the authenticated caller, if any.
func ActorFromContext(ctx context.Context) (core.Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(core.Actor)
	return actor, ok
}

// Middleware admits requests carrying a valid access cookie and hands every
// other request to unauthorized.
func Middleware(issuer *Issuer, unauthorized http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w, r)
				return
			}
			actor, err := issuer.Verify(cookie.Value)
			if err != nil {
				log.FromContext(r.Context()).WithComponent(log.ComponentAuth).DebugContext(r.Context(),
					"Rejected access token", log.FieldError, err)
				unauthorized(w, r)
				return
			}

			ctx := WithActor(r.Context(), actor)
			ctx = log.IntoContext(ctx, log.FromContext(ctx).With(log.FieldUserID, actor.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionCookie builds the cookie that carries token until expires.
func SessionCookie(token string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedCookie expires the access cookie on the client.
func ClearedCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
