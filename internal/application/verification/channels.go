package verification

import (
	"context"
	"fmt"
	"strings"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
)

// SMSSender delivers a plain text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Channels routes a code to SMS when the destination is an E.164 phone
// number and to Email otherwise.
type Channels struct {
	Email Notifier
	SMS   SMSSender
}

func (c Channels) Send(ctx context.Context, destination, subject, body string) error {
	if !isPhone(destination) {
		return c.Email.Send(ctx, destination, subject, body)
	}
	if c.SMS == nil {
		return fmt.Errorf("sms not configured: %w", domain.ErrDeliveryFailed)
	}
	return c.SMS.SendSMS(ctx, destination, body)
}

func isPhone(destination string) bool {
	if len(destination) < 8 || !strings.HasPrefix(destination, "+") {
		return false
	}
	for _, r := range destination[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
