package worker

import (
	"github.com/teamboard/teamboard/internal/service"
)

// StartNotificationWorker subscribes the notification feed to team events. It must run before
// the first request so no event is missed.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
