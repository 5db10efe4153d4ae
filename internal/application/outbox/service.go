// Package outbox queues outbound email in DynamoDB and drains it through the
// configured Mailer from a background job.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/clock"
	"github.com/google/uuid"
)

const (
	defaultMaxAttempts = 3
	defaultBatchSize   = 25
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus    = "status"
	fieldAttempts  = "attempts"
	fieldLastError = "last_error"
	fieldSentAt    = "sent_at"
	fieldFailedAt  = "failed_at"
)

type Service interface {
	// Send enqueues a message. It satisfies verification.Notifier.
	Send(ctx context.Context, to, subject, body string) error
	ProcessPending(ctx context.Context) (Result, error)
	Purge(ctx context.Context, olderThan time.Duration) (int, error)
}

// Result summarises one drain of the queue.
type Result struct {
	Sent    int
	Retried int
	Failed  int
}

// Mailer delivers a single email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type queueStore interface {
	Put(ctx context.Context, m *domain.EmailMessage) error
	ListByStatus(ctx context.Context, status string, before time.Time, limit int32) ([]domain.EmailMessage, error)
	Update(ctx context.Context, messageID string, updates map[string]interface{}) error
	Delete(ctx context.Context, messageID string) error
}

type service struct {
	queue       queueStore
	mailer      Mailer
	clock       clock.Clock
	maxAttempts int
	batchSize   int32
}

type ServiceDeps struct {
	Queue       queueStore
	Mailer      Mailer
	Clock       clock.Clock
	MaxAttempts int
	BatchSize   int32
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		queue:       deps.Queue,
		mailer:      deps.Mailer,
		clock:       deps.Clock,
		maxAttempts: deps.MaxAttempts,
		batchSize:   deps.BatchSize,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	return s
}

func (s *service) Send(ctx context.Context, to, subject, body string) error {
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", domain.ErrBadRequest)
	}
	m := &domain.EmailMessage{
		MessageID: uuid.NewString(),
		To:        to,
		Subject:   subject,
		Body:      body,
		Status:    domain.EmailPending,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.queue.Put(ctx, m); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

func (s *service) ProcessPending(ctx context.Context) (Result, error) {
	var res Result
	msgs, err := s.queue.ListByStatus(ctx, domain.EmailPending, time.Time{}, s.batchSize)
	if err != nil {
		return res, fmt.Errorf("list pending emails: %w", err)
	}
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sendErr := s.mailer.SendEmail(ctx, m.To, m.Subject, m.Body)
		now := s.clock.Now().UTC()
		updates := map[string]interface{}{fieldAttempts: m.Attempts + 1}
		switch {
		case sendErr == nil:
			updates[fieldStatus] = domain.EmailSent
			updates[fieldSentAt] = now
			res.Sent++
		case m.Attempts+1 >= s.maxAttempts:
			updates[fieldStatus] = domain.EmailFailed
			updates[fieldFailedAt] = now
			updates[fieldLastError] = sendErr.Error()
			res.Failed++
			slog.Warn("email permanently failed", "message_id", m.MessageID, "attempts", m.Attempts+1, "err", sendErr)
		default:
			updates[fieldLastError] = sendErr.Error()
			res.Retried++
		}
		if err := s.queue.Update(ctx, m.MessageID, updates); err != nil {
			slog.Warn("could not update email status", "message_id", m.MessageID, "err", err)
		}
	}
	return res, nil
}

func (s *service) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.clock.Now().UTC().Add(-olderThan)
	n := 0
	for {
		msgs, err := s.queue.ListByStatus(ctx, domain.EmailSent, cutoff, s.batchSize)
		if err != nil {
			return n, fmt.Errorf("list sent emails: %w", err)
		}
		for _, m := range msgs {
			if err := s.queue.Delete(ctx, m.MessageID); err != nil {
				return n, fmt.Errorf("delete email %s: %w", m.MessageID, err)
			}
			n++
		}
		if int32(len(msgs)) < s.batchSize {
			return n, nil
		}
	}
}
