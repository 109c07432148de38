package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/logging"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	UserHeader      = "X-User-ID"
)

type contextKey int

const userKey contextKey = iota

// UserFrom returns the caller identity set by BearerAuth.
func UserFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// RequestID tags the request with an id (taken from X-Request-ID when the
// caller supplies one) and a logger carrying it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logging.WithLogger(r.Context(), slog.Default().With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status and size. It passes Flush
// through so streamed responses are not buffered.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		logging.FromContext(r.Context()).Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, X-User-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// BearerAuth admits requests carrying the shared API token. The user label for
// logs is X-User-ID when present and the client address otherwise; it is not
// trusted for anything else.
func BearerAuth(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(presented)), expected) != 1 {
				logging.FromContext(r.Context()).Warn("unauthenticated request", "path", r.URL.Path)
				writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			user := strings.TrimSpace(r.Header.Get(UserHeader))
			if user == "" {
				user = clientAddr(r)
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user", user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
