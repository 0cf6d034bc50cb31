package auth

import (
	"context"
	"errors"
	"fmt"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/utils"
	"net/http"
)

type contextKey string

const subjectKey contextKey = "admin_subject"

// Middleware guards admin routes. A nil verifier lets every request through.
func Middleware(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				log.LogSecurity("ADMIN", fmt.Sprintf("%s %s rejected: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
				return
			}

			subject, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("ADMIN", fmt.Sprintf("%s %s rejected: %v", r.Method, r.URL.Path, err))
				status := http.StatusUnauthorized
				if errors.Is(err, ErrNotAdmin) {
					status = http.StatusForbidden
				}
				utils.WriteError(w, status, http.StatusText(status), "")
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated admin subject, if any.
func Subject(ctx context.Context) string {
	if s, ok := ctx.Value(subjectKey).(string); ok {
		return s
	}
	return ""
}
