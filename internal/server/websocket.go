package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"courierhub/internal/auth"
	"courierhub/internal/domain"
	"courierhub/internal/notification"
)

type CourierProvider interface {
	GetOrCreate(ctx context.Context, userID string, name string) (*domain.Courier, error)
}

// SessionCourierLookup resolves the courier behind a WebSocket upgrade from its
// session cookie. Requests without a valid session connect anonymously.
func SessionCourierLookup(sessions *auth.Sessions, authenticator auth.Authenticator, couriers CourierProvider, logger *zap.Logger) notification.CourierLookup {
	return func(r *http.Request) (string, bool) {
		sessionID := sessions.SessionID(r)
		if sessionID == "" {
			return "", false
		}

		principal, err := authenticator.Authenticate(r.Context(), sessionID)
		if err != nil {
			logger.Debug("websocket session rejected", zap.Error(err))
			return "", false
		}

		courier, err := couriers.GetOrCreate(r.Context(), principal.UserID, principal.Name)
		if err != nil {
			logger.Warn("failed to resolve courier for websocket", zap.String("userId", principal.UserID), zap.Error(err))
			return "", false
		}

		return courier.ID, true
	}
}
