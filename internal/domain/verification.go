package domain

import "time"

// Purposes a one-time code can be issued for.
const (
	PurposeLogin2FA      = "login-2fa"
	PurposePasswordReset = "password-reset"
)

// VerificationCodeTTL is the validity window of every issued code.
const VerificationCodeTTL = 5 * time.Minute

// VerificationCode is a single-use numeric code bound to a subject and purpose.
// Expiry is evaluated at verification time; there is no persisted expired state.
// TTL (Unix seconds) lets DynamoDB reap old records well after ExpiresAt.
type VerificationCode struct {
	CodeID         string     `json:"id" dynamodbav:"code_id"`
	SubjectID      string     `json:"subject_id" dynamodbav:"subject_id"`
	Purpose        string     `json:"purpose" dynamodbav:"purpose"`
	SubjectPurpose string     `json:"-" dynamodbav:"subject_purpose"`
	Code           string     `json:"-" dynamodbav:"code"`
	Used           bool       `json:"used" dynamodbav:"used"`
	IssuedAt       time.Time  `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt      time.Time  `json:"expires_at" dynamodbav:"expires_at"`
	UsedAt         *time.Time `json:"used_at,omitempty" dynamodbav:"used_at,omitempty"`
	TTL            int64      `json:"-" dynamodbav:"ttl"`
}

// SubjectPurposeKey is the partition value of the subject_purpose index.
func SubjectPurposeKey(subjectID, purpose string) string {
	return subjectID + "#" + purpose
}

// ValidPurpose reports whether purpose is a known code purpose.
func ValidPurpose(purpose string) bool {
	return purpose == PurposeLogin2FA || purpose == PurposePasswordReset
}
