package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courierhub/internal/auth/service"
	"courierhub/internal/config"
	"courierhub/internal/domain"
	"courierhub/internal/dto"
	apperrors "courierhub/internal/errors"
)

type mockUseCase struct {
	LoginFunc       func(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	LogoutFunc      func(ctx context.Context, sessionID string) error
	CurrentUserFunc func(ctx context.Context, principal domain.Principal) (*domain.User, error)
}

func (m *mockUseCase) Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
	return m.LoginFunc(ctx, in)
}

func (m *mockUseCase) Logout(ctx context.Context, sessionID string) error {
	return m.LogoutFunc(ctx, sessionID)
}

func (m *mockUseCase) CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	return m.CurrentUserFunc(ctx, principal)
}

type mockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, sessionID string) (*domain.Principal, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, sessionID string) (*domain.Principal, error) {
	return m.AuthenticateFunc(ctx, sessionID)
}

var testAuthConfig = config.AuthConfig{CookieName: "courier.sid", SessionTTL: time.Hour}

func newTestController(uc UseCase) *Controller {
	sessions := NewSessions(&mockAuthenticator{}, testAuthConfig, zap.NewNop())
	return NewController(uc, sessions, time.Hour, zap.NewNop())
}

func TestController_Login_SetsCookie(t *testing.T) {
	var got service.LoginInput
	uc := &mockUseCase{
		LoginFunc: func(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
			got = in
			return &service.LoginResult{SessionID: "fresh-sid", UserID: "courier-1", Name: "Courier"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"courier","password":"glovo123"}`))
	req.Header.Set("User-Agent", "test-agent")
	req.AddCookie(&http.Cookie{Name: "courier.sid", Value: "pre-login"})
	rec := httptest.NewRecorder()

	newTestController(uc).Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pre-login", got.PresentedSessionID)
	assert.Equal(t, "test-agent", got.DeviceInfo)

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "courier-1", resp.User.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "fresh-sid", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestController_Login_TruncatesClientMetadata(t *testing.T) {
	var got service.LoginInput
	uc := &mockUseCase{
		LoginFunc: func(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
			got = in
			return &service.LoginResult{SessionID: "fresh-sid", UserID: "courier-1", Name: "Courier"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"courier","password":"glovo123"}`))
	req.Header.Set("User-Agent", strings.Repeat("Ф", 2000))
	req.RemoteAddr = strings.Repeat("1", 200)
	rec := httptest.NewRecorder()

	newTestController(uc).Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strings.Repeat("Ф", maxDeviceInfoLength), got.DeviceInfo)
	assert.Len(t, got.IPAddress, maxIPAddressLength)
}

func TestController_Login_InvalidCredentials(t *testing.T) {
	uc := &mockUseCase{
		LoginFunc: func(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
			return nil, apperrors.NewInvalidCredentialsError()
		},
	}

	rec := httptest.NewRecorder()
	newTestController(uc).Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"x","password":"y"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")
	assert.Empty(t, rec.Result().Cookies())
}

func TestController_Logout_AlwaysSucceeds(t *testing.T) {
	uc := &mockUseCase{
		LogoutFunc: func(ctx context.Context, sessionID string) error {
			return stderrors.New("storage down")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: "courier.sid", Value: "sid-1"})
	rec := httptest.NewRecorder()

	newTestController(uc).Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestController_CurrentUser(t *testing.T) {
	uc := &mockUseCase{
		CurrentUserFunc: func(ctx context.Context, p domain.Principal) (*domain.User, error) {
			return &domain.User{ID: p.UserID, Username: "courier", Email: "courier@courier.local", FirstName: "Courier"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req = req.WithContext(WithPrincipal(req.Context(), &domain.Principal{UserID: "courier-1"}))
	rec := httptest.NewRecorder()

	newTestController(uc).CurrentUser(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.CurrentUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "courier-1", resp.ID)
	assert.Equal(t, "Courier", resp.Name)
}

func TestSessions_Require(t *testing.T) {
	authenticator := &mockAuthenticator{
		AuthenticateFunc: func(ctx context.Context, sessionID string) (*domain.Principal, error) {
			switch sessionID {
			case "good":
				return &domain.Principal{UserID: "courier-1", SessionID: sessionID}, nil
			case "old":
				return nil, apperrors.NewSessionSupersededError("courier-1")
			default:
				return nil, apperrors.NewUnauthorizedError("authentication required")
			}
		},
	}
	sessions := NewSessions(authenticator, testAuthConfig, zap.NewNop())

	handler := sessions.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(p.UserID))
	}))

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"valid session", "good", http.StatusOK, "courier-1"},
		{"superseded", "old", http.StatusUnauthorized, "SESSION_SUPERSEDED"},
		{"no cookie", "", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/courier", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "courier.sid", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestFromContext_Empty(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

type mockReaper struct {
	ReapExpiredFunc func(ctx context.Context) (int64, error)
}

func (m *mockReaper) ReapExpired(ctx context.Context) (int64, error) {
	return m.ReapExpiredFunc(ctx)
}

func TestScheduleReaper(t *testing.T) {
	calls := 0
	reaper := &mockReaper{
		ReapExpiredFunc: func(ctx context.Context) (int64, error) {
			calls++
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return 2, nil
		},
	}

	c := cron.New()
	id, err := ScheduleReaper(c, "@every 1h", reaper, time.Second, zap.NewNop())
	require.NoError(t, err)

	c.Entry(id).Job.Run()
	assert.Equal(t, 1, calls)

	_, err = ScheduleReaper(c, "not a schedule", reaper, time.Second, zap.NewNop())
	assert.Error(t, err)
}
