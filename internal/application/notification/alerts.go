package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
)

// SessionAlerts turns idle-timer events into user notifications.
type SessionAlerts struct {
	svc Service
}

func NewSessionAlerts(svc Service) *SessionAlerts {
	return &SessionAlerts{svc: svc}
}

func (a *SessionAlerts) Warning(ctx context.Context, subjectID, sessionID string, remaining time.Duration) {
	_, err := a.svc.Create(ctx, domain.CreateNotificationRequest{
		UserID:  subjectID,
		Title:   "Session expiring",
		Message: fmt.Sprintf("Your session will expire in %s due to inactivity.", humanize(remaining)),
		Type:    domain.NotificationWarning,
	})
	if err != nil {
		slog.Warn("could not record idle warning", "user_id", subjectID, "session_id", sessionID, "err", err)
	}
}

func (a *SessionAlerts) Expired(ctx context.Context, subjectID, sessionID string) {
	_, err := a.svc.Create(ctx, domain.CreateNotificationRequest{
		UserID:  subjectID,
		Title:   "Signed out",
		Message: "You were signed out after a period of inactivity.",
		Type:    domain.NotificationError,
	})
	if err != nil {
		slog.Warn("could not record idle logout", "user_id", subjectID, "session_id", sessionID, "err", err)
	}
}

func humanize(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	s := int(d.Round(time.Second) / time.Second)
	if s == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", s)
}
