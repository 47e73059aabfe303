package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/spec-kit/case-sla-service/internal/config"
)

// TwilioSMSSender delivers follow-up reminders through the Twilio REST API.
type TwilioSMSSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSMSSender builds a sender with a bounded per-request timeout.
func NewTwilioSMSSender(cfg config.TwilioConfig, timeout config.SLAConfig) *TwilioSMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	client.SetTimeout(timeout.DispatchTimeout())
	return &TwilioSMSSender{client: client, from: cfg.FromNumber}
}

// SendFollowUpReminder composes and dispatches the reminder SMS.
func (s *TwilioSMSSender) SendFollowUpReminder(ctx context.Context, msg FollowUpMessage) error {
	if !strings.HasPrefix(msg.PhoneNumber, "+") {
		return fmt.Errorf("invalid phone number: %s", msg.PhoneNumber)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := fmt.Sprintf("Hi %s, your %s case %s is still waiting on an update. We are on it and will follow up shortly.",
		msg.EmployeeName, strings.ToLower(msg.Category), msg.CaseKey)

	params := &twilioApi.CreateMessageParams{
		To:   &msg.PhoneNumber,
		From: &s.from,
		Body: &body,
	}
	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", msg.PhoneNumber, err)
	}
	return nil
}
