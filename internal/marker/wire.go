package marker

import (
	"database/sql"

	"go.uber.org/zap"

	"courierhub/internal/marker/repository"
)

func NewModule(db *sql.DB, couriers CourierResolver, logger *zap.Logger) *Controller {
	repo := repository.NewMySQLRepository(db)
	svc := NewService(repo, logger)
	uc := NewUseCase(couriers, svc)
	return NewController(uc, logger)
}
