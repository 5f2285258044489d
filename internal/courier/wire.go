package courier

import (
	"database/sql"

	"go.uber.org/zap"

	"courierhub/internal/courier/controller"
	"courierhub/internal/courier/repository"
	"courierhub/internal/courier/service"
)

type Module struct {
	Service    *service.CourierService
	Controller *controller.CourierController
}

func NewModule(db *sql.DB, logger *zap.Logger) *Module {
	svc := service.NewCourierService(repository.NewMySQLCourierRepository(db), logger)
	return &Module{
		Service:    svc,
		Controller: controller.NewCourierController(svc, logger),
	}
}
