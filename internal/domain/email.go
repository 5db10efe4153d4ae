package domain

import "time"

const (
	EmailPending = "pending"
	EmailSent    = "sent"
	EmailFailed  = "failed"
)

// EmailMessage is one row of the outbound email queue.
type EmailMessage struct {
	MessageID string     `json:"id" dynamodbav:"message_id"`
	To        string     `json:"to" dynamodbav:"to"`
	Subject   string     `json:"subject" dynamodbav:"subject"`
	Body      string     `json:"body" dynamodbav:"body"`
	Status    string     `json:"status" dynamodbav:"status"`
	Attempts  int        `json:"attempts" dynamodbav:"attempts"`
	LastError string     `json:"last_error,omitempty" dynamodbav:"last_error"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty" dynamodbav:"sent_at"`
	FailedAt  *time.Time `json:"failed_at,omitempty" dynamodbav:"failed_at"`
}
