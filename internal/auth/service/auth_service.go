package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"courierhub/internal/commons"
	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/metrics"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	CreateIfAbsent(ctx context.Context, user domain.User) error
}

type SessionRepository interface {
	FindByID(ctx context.Context, sid string) (*domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, sid string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type UserSessionRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.UserSession, error)
	Upsert(ctx context.Context, us domain.UserSession) error
	DeleteIfCurrent(ctx context.Context, userID, sessionID string) (bool, error)
}

type CourierProvisioner interface {
	GetOrCreate(ctx context.Context, userID string, name string) (*domain.Courier, error)
}

type CredentialStore interface {
	Lookup(username string) (commons.Credential, bool)
}

type LoginInput struct {
	Username           string
	Password           string
	DeviceInfo         string
	IPAddress          string
	PresentedSessionID string
}

type LoginResult struct {
	SessionID string
	Expire    time.Time
	UserID    string
	Name      string
	Courier   *domain.Courier
}

type AuthService struct {
	users        UserRepository
	sessions     SessionRepository
	userSessions UserSessionRepository
	couriers     CourierProvisioner
	credentials  CredentialStore
	sessionTTL   time.Duration
	logger       *zap.Logger

	now          func() time.Time
	newSessionID func() (string, error)
}

func NewAuthService(
	users UserRepository,
	sessions SessionRepository,
	userSessions UserSessionRepository,
	couriers CourierProvisioner,
	credentials CredentialStore,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		userSessions: userSessions,
		couriers:     couriers,
		credentials:  credentials,
		sessionTTL:   sessionTTL,
		logger:       logger,
		now:          time.Now,
		newSessionID: NewSessionID,
	}
}

// NewSessionID returns 256 random bits, URL-safe encoded.
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// comparisonHash is compared against when the username is unknown so both
// rejection paths cost one bcrypt comparison.
func comparisonHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("courierhub-unknown-user"), bcrypt.DefaultCost)
	})
	return dummyHash
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	var details []errors.ValidationDetail
	if strings.TrimSpace(in.Username) == "" {
		details = append(details, errors.ValidationDetail{Field: "username", Message: "username is required"})
	}
	if in.Password == "" {
		details = append(details, errors.ValidationDetail{Field: "password", Message: "password is required"})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError("username and password are required", details...)
	}

	cred, known := s.credentials.Lookup(in.Username)
	hash := comparisonHash()
	if known {
		hash = []byte(cred.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(in.Password)); err != nil || !known {
		metrics.RecordLogin("invalid_credentials")
		s.logger.Info("login rejected", zap.String("username", in.Username))
		return nil, errors.NewInvalidCredentialsError()
	}

	now := s.now().UTC()
	user := domain.User{
		ID:        cred.UserID,
		Username:  cred.Username,
		Email:     cred.Username + "@courier.local",
		FirstName: cred.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateIfAbsent(ctx, user); err != nil {
		return nil, err
	}

	courier, err := s.couriers.GetOrCreate(ctx, cred.UserID, cred.Name)
	if err != nil {
		return nil, err
	}

	sid, err := s.newSessionID()
	if err != nil {
		return nil, errors.NewInternalError("failed to issue session", err)
	}

	session := domain.Session{
		ID: sid,
		Data: domain.SessionData{
			UserID:          cred.UserID,
			Username:        cred.Username,
			CourierName:     cred.Name,
			IsAuthenticated: true,
		},
		Expire: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	// Nothing about the previous device changes until the new session is canonical.
	if err := s.activateSession(ctx, session, in, now); err != nil {
		if delErr := s.sessions.Delete(ctx, sid); delErr != nil {
			s.logger.Warn("failed to discard unused session", zap.String("userId", cred.UserID), zap.Error(delErr))
		}
		return nil, err
	}

	// The pre-login session id never becomes authenticated.
	if in.PresentedSessionID != "" && in.PresentedSessionID != sid {
		if err := s.sessions.Delete(ctx, in.PresentedSessionID); err != nil {
			s.logger.Warn("failed to discard presented session", zap.String("userId", cred.UserID), zap.Error(err))
		}
	}

	metrics.RecordLogin("success")
	s.logger.Info("login succeeded", zap.String("userId", cred.UserID), zap.String("ipAddress", in.IPAddress))

	return &LoginResult{
		SessionID: sid,
		Expire:    session.Expire,
		UserID:    cred.UserID,
		Name:      cred.Name,
		Courier:   courier,
	}, nil
}

// activateSession makes session the user's canonical one and reduces the
// previous canonical session to a tombstone. Once the row is upserted the old
// session is already rejected by Authenticate, so the tombstone is best effort.
func (s *AuthService) activateSession(ctx context.Context, session domain.Session, in LoginInput, now time.Time) error {
	userID := session.Data.UserID

	previous, err := s.userSessions.FindByUserID(ctx, userID)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); !ok {
			return err
		}
		previous = nil
	}

	err = s.userSessions.Upsert(ctx, domain.UserSession{
		UserID:     userID,
		SessionID:  session.ID,
		DeviceInfo: in.DeviceInfo,
		IPAddress:  in.IPAddress,
		CreatedAt:  now,
	})
	if err != nil {
		return err
	}

	if previous == nil || previous.SessionID == session.ID {
		return nil
	}

	tombstone := domain.Session{
		ID:     previous.SessionID,
		Data:   domain.SessionData{UserID: userID, Superseded: true},
		Expire: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, tombstone); err != nil {
		s.logger.Warn("failed to mark previous session superseded", zap.String("userId", userID), zap.Error(err))
		return nil
	}

	s.logger.Info("invalidated previous session", zap.String("userId", userID), zap.String("deviceInfo", previous.DeviceInfo))
	return nil
}

// Logout ends the session. The canonical row is only cleared while it still
// names this session, so a superseded device cannot log out the active one.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	switch {
	case err == nil:
		if _, err := s.userSessions.DeleteIfCurrent(ctx, session.Data.UserID, sessionID); err != nil {
			s.logger.Warn("failed to clear user session on logout", zap.String("userId", session.Data.UserID), zap.Error(err))
		}
	case isNotFound(err):
	default:
		s.logger.Warn("failed to load session on logout", zap.Error(err))
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to destroy session on logout", zap.Error(err))
	}

	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (*domain.Principal, error) {
	if sessionID == "" {
		metrics.RecordSessionCheck("unauthorized")
		return nil, errors.NewUnauthorizedError("authentication required")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			metrics.RecordSessionCheck("unauthorized")
			return nil, errors.NewUnauthorizedError("authentication required")
		}
		return nil, err
	}

	if session.Data.Superseded {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to destroy superseded session", zap.Error(err))
		}
		metrics.RecordSessionCheck("superseded")
		return nil, errors.NewSessionSupersededError(session.Data.UserID)
	}

	if session.IsExpired(s.now()) || !session.Data.IsAuthenticated || session.Data.UserID == "" {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to destroy expired session", zap.Error(err))
		}
		metrics.RecordSessionCheck("unauthorized")
		return nil, errors.NewUnauthorizedError("authentication required")
	}

	principal := &domain.Principal{
		UserID:    session.Data.UserID,
		Username:  session.Data.Username,
		Name:      session.Data.CourierName,
		SessionID: sessionID,
	}

	active, err := s.userSessions.FindByUserID(ctx, session.Data.UserID)
	if err != nil {
		if isNotFound(err) {
			metrics.RecordSessionCheck("ok")
			return principal, nil
		}
		// Fail open when the active-session row cannot be read.
		s.logger.Warn("active session lookup failed, allowing request",
			zap.String("userId", session.Data.UserID), zap.Error(err))
		metrics.RecordSessionCheck("fail_open")
		return principal, nil
	}

	if active.SessionID != sessionID {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to destroy superseded session", zap.Error(err))
		}
		s.logger.Info("session superseded", zap.String("userId", session.Data.UserID))
		metrics.RecordSessionCheck("superseded")
		return nil, errors.NewSessionSupersededError(session.Data.UserID)
	}

	metrics.RecordSessionCheck("ok")
	return principal, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, principal.UserID)
	if err == nil {
		return user, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	return &domain.User{
		ID:        principal.UserID,
		Username:  principal.Username,
		Email:     principal.Username + "@courier.local",
		FirstName: principal.Name,
	}, nil
}

// ReapExpired deletes every session whose expiry has passed.
func (s *AuthService) ReapExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	metrics.RecordReapedSessions(n)
	return n, nil
}

func isNotFound(err error) bool {
	_, ok := errors.IsNotFoundError(err)
	return ok
}
