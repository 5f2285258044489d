package auth

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/auth/service"
	"courierhub/internal/commons"
	"courierhub/internal/domain"
	"courierhub/internal/dto"
	apperrors "courierhub/internal/errors"
)

type UseCase interface {
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error)
}

type Controller struct {
	useCase    UseCase
	sessions   *Sessions
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewController(useCase UseCase, sessions *Sessions, sessionTTL time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		useCase:    useCase,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.LoginRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	deviceInfo := truncate(r.UserAgent(), maxDeviceInfoLength)
	if deviceInfo == "" {
		deviceInfo = "unknown"
	}

	result, err := c.useCase.Login(r.Context(), service.LoginInput{
		Username:           req.Username,
		Password:           req.Password,
		DeviceInfo:         deviceInfo,
		IPAddress:          truncate(r.RemoteAddr, maxIPAddressLength),
		PresentedSessionID: c.sessions.SessionID(r),
	})
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	c.sessions.SetCookie(w, result.SessionID, int(c.sessionTTL.Seconds()))
	commons.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		Success: true,
		User:    dto.UserSummary{ID: result.UserID, Name: result.Name},
	}, logger)
}

// Widths of user_sessions.deviceInfo and user_sessions.ipAddress.
const (
	maxDeviceInfoLength = 500
	maxIPAddressLength  = 64
)

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if err := c.useCase.Logout(r.Context(), c.sessions.SessionID(r)); err != nil {
		logger.Warn("logout failed", zap.Error(err))
	}

	c.sessions.ClearCookie(w)
	commons.WriteJSON(w, http.StatusOK, dto.SuccessResponse{Success: true}, logger)
}

func (c *Controller) CurrentUser(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	principal, ok := FromContext(r.Context())
	if !ok {
		commons.WriteError(w, traceID, apperrors.NewUnauthorizedError("authentication required"), logger)
		return
	}

	user, err := c.useCase.CurrentUser(r.Context(), *principal)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	name := user.FirstName
	if name == "" {
		name = principal.Name
	}

	commons.WriteJSON(w, http.StatusOK, dto.CurrentUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     name,
		Email:    user.Email,
	}, logger)
}
