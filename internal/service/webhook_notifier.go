package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/case-sla-service/internal/config"
	"github.com/spec-kit/case-sla-service/internal/events"
)

// WebhookNotifier forwards domain events to an external endpoint when one is
// configured. Delivery is best effort; failures are logged and never block
// the publishing service.
type WebhookNotifier struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.WebhookConfig
	client     *http.Client
}

// NewWebhookNotifier creates the notifier.
func NewWebhookNotifier(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.WebhookConfig) *WebhookNotifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: timeout},
	}
}

// RegisterHandlers subscribes to events.
func (n *WebhookNotifier) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCaseCreated, n.forward)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.forward)
	n.dispatcher.Subscribe(events.EventCaseNoteAdded, n.forward)
	n.dispatcher.Subscribe(events.EventFollowUpSent, n.forward)
	n.dispatcher.Subscribe(events.EventCaseEscalated, n.forward)
}

func (n *WebhookNotifier) forward(ctx context.Context, event events.Event) error {
	if n.cfg.URL == "" {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook delivery rejected",
			zap.String("event_type", string(event.Type)),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
