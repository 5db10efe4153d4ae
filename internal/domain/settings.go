package domain

import "time"

// UserSettings holds per-account security and notification preferences.
type UserSettings struct {
	UserID                string    `json:"user_id" dynamodbav:"user_id"`
	TwoFactorEnabled      bool      `json:"two_factor_enabled" dynamodbav:"two_factor_enabled"`
	SessionTimeoutMinutes int       `json:"session_timeout_minutes" dynamodbav:"session_timeout_minutes"`
	EmailNotifications    bool      `json:"email_notifications" dynamodbav:"email_notifications"`
	PushNotifications     bool      `json:"push_notifications" dynamodbav:"push_notifications"`
	UpdatedAt             time.Time `json:"updated" dynamodbav:"updated_at"`
}

// SessionTimeout returns the idle timeout as a duration.
func (s *UserSettings) SessionTimeout() time.Duration {
	return time.Duration(s.SessionTimeoutMinutes) * time.Minute
}

// DefaultUserSettings returns the settings a new account starts with.
func DefaultUserSettings(userID string, timeoutMinutes int) *UserSettings {
	return &UserSettings{
		UserID:                userID,
		TwoFactorEnabled:      false,
		SessionTimeoutMinutes: timeoutMinutes,
		EmailNotifications:    true,
		PushNotifications:     true,
	}
}

type UpdateSettingsRequest struct {
	TwoFactorEnabled      *bool `json:"two_factor_enabled"`
	SessionTimeoutMinutes *int  `json:"session_timeout_minutes" validate:"omitempty,min=1,max=1440"`
	EmailNotifications    *bool `json:"email_notifications"`
	PushNotifications     *bool `json:"push_notifications"`
}
