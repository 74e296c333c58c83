package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

type userIDKey struct{}

// SetUserID returns a context carrying the authenticated entrant or organizer.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the caller set by RequireAuth. Empty IDs are never stored.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively. On failure it returns the client-facing reason.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, creds, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization format"
	}
	if creds = strings.TrimSpace(creds); creds == "" {
		return "", "missing token"
	}
	return creds, ""
}

// RequireAuth wraps handlers that act on behalf of a user. Requests without a
// verifiable bearer token get 401 and never reach next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason string, err error) {
				logger.DebugContext(r.Context(), "request unauthenticated", "path", r.URL.Path, "reason", reason, "err", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="eventlottery"`)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, reason)
			}

			token, reason := bearerToken(r.Header.Get("Authorization"))
			if reason != "" {
				reject(reason, nil)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil || userID == "" {
				reject("invalid or expired token", err)
				return
			}
			next(w, r.WithContext(SetUserID(r.Context(), userID)))
		}
	}
}
