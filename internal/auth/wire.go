package auth

import (
	"database/sql"

	"go.uber.org/zap"

	"courierhub/internal/auth/repository"
	"courierhub/internal/auth/service"
	"courierhub/internal/config"
)

type Module struct {
	Service    *service.AuthService
	Sessions   *Sessions
	Controller *Controller
}

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	couriers service.CourierProvisioner,
	credentials service.CredentialStore,
	logger *zap.Logger,
) *Module {
	svc := service.NewAuthService(
		repository.NewMySQLUserRepository(db),
		repository.NewMySQLSessionRepository(db),
		repository.NewMySQLUserSessionRepository(db),
		couriers,
		credentials,
		cfg.Auth.SessionTTL,
		logger,
	)

	sessions := NewSessions(svc, cfg.Auth, logger)

	return &Module{
		Service:    svc,
		Sessions:   sessions,
		Controller: NewController(svc, sessions, cfg.Auth.SessionTTL, logger),
	}
}
