package domain

import "time"

// TwoFactorPendingTTL bounds how long a session may wait for its second
// factor. It leaves room for one code resend.
const TwoFactorPendingTTL = 2 * VerificationCodeTTL

type Session struct {
	SessionID        string    `json:"id" dynamodbav:"session_id"`
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	Enable           bool      `json:"enable" dynamodbav:"enable"`
	TwoFactorPending bool      `json:"two_factor_pending" dynamodbav:"two_factor_pending"`
	RefreshToken     string    `json:"-" dynamodbav:"refresh_token"`
	RefreshExpiresAt int64     `json:"-" dynamodbav:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
	User             *User     `json:"user,omitempty" dynamodbav:"-"`
}

// PendingExpired reports whether the session is still waiting for its
// second factor after TwoFactorPendingTTL.
func (s *Session) PendingExpired(now time.Time) bool {
	return s.TwoFactorPending && now.After(s.CreatedAt.Add(TwoFactorPendingTTL))
}
