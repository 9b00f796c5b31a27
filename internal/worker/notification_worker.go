package worker

import (
	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/service"
)

// StartNotificationWorker subscribes the notification service to ticket
// events. Delivery runs inline with the publishing request, so the caller
// sees send failures.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
