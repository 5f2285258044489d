package order

import (
	"database/sql"

	"go.uber.org/zap"

	"courierhub/internal/config"
	"courierhub/internal/infrastructure/mysql"
	"courierhub/internal/order/controller"
	"courierhub/internal/order/repository"
	"courierhub/internal/order/service"
	"courierhub/internal/order/usecase"
)

type Module struct {
	Service    *service.LifecycleService
	UseCase    *usecase.CourierOrdersUseCase
	Controller *controller.OrderController
}

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	couriers usecase.CourierResolver,
	notifier service.Notifier,
	logger *zap.Logger,
) *Module {
	orderRepo := repository.NewMySQLOrderRepository(db)
	orderItemRepo := repository.NewMySQLOrderItemRepository(db)

	svc := service.NewLifecycleService(
		mysql.NewTransactor(db),
		orderRepo,
		orderItemRepo,
		notifier,
		cfg.App.Timezone,
		cfg.Database.QueryTimeout,
		logger,
	)

	uc := usecase.NewCourierOrdersUseCase(couriers, svc, logger, cfg.Order.MaxRetryAttempts)

	return &Module{
		Service:    svc,
		UseCase:    uc,
		Controller: controller.NewOrderController(uc, logger),
	}
}
