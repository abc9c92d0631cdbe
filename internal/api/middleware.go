package api

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			b := make([]byte, 8)
			rand.Read(b)
			id = hex.EncodeToString(b)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.NewHandler(log)
		accessLog := hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration_ms", dur).
				Msg("request")
		})
		return h(accessLog(next))
	}
}

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log := hlog.FromRequest(r)
				log.Error().Interface("panic", rv).Msg("recovered from panic")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, `{"error":"internal server error"}`)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Last-Event-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OwnerResolver maps a request to the owner on whose behalf it runs.
// Identity lives outside this service; the resolver is the seam where an
// auth provider plugs in.
type OwnerResolver interface {
	Resolve(r *http.Request) (ownerID string, ok bool)
}

// StaticTokenResolver resolves bearer tokens to owner ids from a fixed map.
type StaticTokenResolver map[string]string

func (s StaticTokenResolver) Resolve(r *http.Request) (string, bool) {
	// Check Authorization header first, then ?token= query param as
	// fallback (for EventSource/SSE, which can't set headers)
	provided := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		provided = auth[7:]
	} else if qt := r.URL.Query().Get("token"); qt != "" {
		provided = qt
	}

	for token, owner := range s {
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1 {
			return owner, true
		}
	}
	return "", false
}

// AllowAll resolves every request to a fixed owner. Used when no auth token
// is configured.
type AllowAll string

func (a AllowAll) Resolve(r *http.Request) (string, bool) { return string(a), true }

type ctxKey int

const ownerKey ctxKey = 0

// RequireOwner rejects requests the resolver cannot attribute to an owner
// and stores the owner id in the request context otherwise.
func RequireOwner(resolver OwnerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, ok := resolver.Resolve(r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprintf(w, `{"error":"unauthorized"}`)
				return
			}
			ctx := context.WithValue(r.Context(), ownerKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the owner id set by RequireOwner.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}
