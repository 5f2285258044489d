package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/commons"
	"courierhub/internal/config"
	"courierhub/internal/domain"
)

type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*domain.Principal, error)
}

// Sessions reads and writes the session cookie and guards protected routes.
type Sessions struct {
	authenticator Authenticator
	cookieName    string
	secure        bool
	logger        *zap.Logger
}

func NewSessions(authenticator Authenticator, cfg config.AuthConfig, logger *zap.Logger) *Sessions {
	return &Sessions{
		authenticator: authenticator,
		cookieName:    cfg.CookieName,
		secure:        cfg.CookieSecure,
		logger:        logger,
	}
}

// SessionID returns the presented session id, or "" when no cookie is sent.
func (s *Sessions) SessionID(r *http.Request) string {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Sessions) SetCookie(w http.ResponseWriter, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	s.SetCookie(w, "", -1)
}

// Require rejects requests without a live, canonical session and attaches the
// principal to the request context otherwise.
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.authenticator.Authenticate(r.Context(), s.SessionID(r))
		if err != nil {
			traceID := uuid.New().String()
			s.ClearCookie(w)
			commons.WriteError(w, traceID, err, s.logger.With(zap.String("traceId", traceID)))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}
