package chat

import (
	"database/sql"

	"go.uber.org/zap"

	"courierhub/internal/chat/controller"
	"courierhub/internal/chat/repository"
	"courierhub/internal/chat/service"
)

type Module struct {
	Service    *service.ChatService
	Controller *controller.ChatController
}

func NewModule(db *sql.DB, access controller.OrderAccess, broadcaster service.Broadcaster, logger *zap.Logger) *Module {
	svc := service.NewChatService(repository.NewMySQLMessageRepository(db), broadcaster, logger)

	return &Module{
		Service:    svc,
		Controller: controller.NewChatController(access, svc, logger),
	}
}
