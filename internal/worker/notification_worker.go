package worker

import (
	"github.com/spec-kit/case-sla-service/internal/service"
)

// StartWebhookWorker registers webhook event handlers.
func StartWebhookWorker(notifier *service.WebhookNotifier) {
	if notifier == nil {
		return
	}
	notifier.RegisterHandlers()
}
