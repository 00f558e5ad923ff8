package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/survey"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p survey.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller set by an auth middleware, or Anonymous.
func PrincipalFrom(ctx context.Context) survey.Principal {
	p, _ := ctx.Value(principalKey{}).(survey.Principal)
	return p
}

// Authenticated rejects requests without a valid bearer token and stores
// the token's user as the request principal.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return chi.Chain(oauth.Authorize(secret, nil), principal).Handler
}

// OptionalAuth authenticates the request only when it carries an
// Authorization header; otherwise the caller stays anonymous.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	auth := Authenticated(secret)
	return func(next http.Handler) http.Handler {
		authed := auth(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authed.ServeHTTP(w, r)
		})
	}
}

func principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		userID := claims["user_id"]
		if userID == "" {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.claims.user_id")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), survey.Principal(userID))))
	})
}

// RequestLogger logs one structured line per request once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.With(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
				"req_id":   middleware.GetReqID(r.Context()),
			}).Info("http.request")
		}()
		next.ServeHTTP(ww, r)
	})
}
