package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pocketplan/pocketplan/internal/rest"
	"github.com/pocketplan/pocketplan/pkg/auth"
	"github.com/pocketplan/pocketplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

const requestIdHeader = "X-Request-Id"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags every request with an id and logs it once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestId := req.Header.Get(requestIdHeader)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		w.Header().Set(requestIdHeader, requestId)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		entry := log.WithFields(log.Fields{
			"requestId": requestId,
			"method":    req.Method,
			"path":      req.URL.Path,
			"status":    rec.status,
			"duration":  time.Since(start).String(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request handled")
		}
	})
}

// bearerAuth resolves the Authorization header to a user and stores it in the request context.
// Requests without a valid token never reach the wrapped handler.
func bearerAuth(authenticator Authenticator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			header := req.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
				return
			}

			u, err := authenticator.Authenticate(req.Context(), strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrNotVerified) {
					log.Debugf("rejected bearer token: %v", err)
					rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
					return
				}
				log.Errorf("failed to authenticate request: %v", err)
				rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
				return
			}
			next.ServeHTTP(w, req.WithContext(user.WithUser(req.Context(), u)))
		})
	}
}
