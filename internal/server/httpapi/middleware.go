package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/server/metrics"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "requestID"
)

// ActorFromContext returns the authenticated user, nil for anonymous
// requests.
func ActorFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(actorKey).(*models.User)
	return u
}

// RequestIDFromContext returns the id assigned by requestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID keeps a client-supplied X-Request-ID or assigns a new one and
// echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(common.RequestIDHeaderName))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// observe logs every request and records its latency under the matched
// route pattern.
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
		a.logger.Info(r.Context(), "http request",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// authenticate resolves a Bearer token into the request actor. Requests
// without an Authorization header continue anonymously; a bad token is
// rejected outright.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			a.writeError(w, r, common.ErrInvalidToken)
			return
		}

		user, err := a.identity.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, user)))
	})
}

// denyAnonymousUnsafe answers 401 to anonymous requests with an unsafe
// method before any path lookup or body parsing.
func (a *API) denyAnonymousUnsafe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if ActorFromContext(r.Context()) == nil {
				a.logger.Debug(r.Context(), "anonymous unsafe request rejected",
					"request_id", RequestIDFromContext(r.Context()), "method", r.Method, "path", r.URL.Path)
				a.writeError(w, r, common.ErrUnauthenticated)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
