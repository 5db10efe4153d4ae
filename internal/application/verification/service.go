// Package verification issues and checks short-lived single-use numeric codes
// bound to a subject and a purpose.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/clock"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
)

// Records are kept a day past expiry before DynamoDB TTL reaps them.
const retention = 24 * time.Hour

// IssueResult describes a freshly issued code. Code must only leave the
// server in local development.
type IssueResult struct {
	Code           string    `json:"code,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	DeliveryFailed bool      `json:"delivery_failed"`
}

type Service interface {
	Issue(ctx context.Context, subjectID, purpose, destination string) (*IssueResult, error)
	// Verify returns nil when code is a live code for subjectID and purpose,
	// consuming it. Failures wrap ErrInvalidCode, ErrCodeExpired or
	// ErrStorageUnavailable.
	Verify(ctx context.Context, subjectID, purpose, code string) error
}

type codeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	FindUnused(ctx context.Context, subjectID, purpose, code string) (*domain.VerificationCode, error)
	MarkUsed(ctx context.Context, codeID string, usedAt time.Time) error
}

// Notifier delivers a message to a destination such as an email address.
type Notifier interface {
	Send(ctx context.Context, destination, subject, body string) error
}

type service struct {
	store    codeStore
	notifier Notifier
	clock    clock.Clock
	generate func() (string, error)
}

type ServiceDeps struct {
	Store    codeStore
	Notifier Notifier
	Clock    clock.Clock
	// Generate overrides the random code source. Nil uses crypto/rand.
	Generate func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		generate: deps.Generate,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.generate == nil {
		s.generate = GenerateCode
	}
	return s
}

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}

func (s *service) Issue(ctx context.Context, subjectID, purpose, destination string) (*IssueResult, error) {
	if subjectID == "" || destination == "" {
		return nil, fmt.Errorf("subject and destination required: %w", domain.ErrBadRequest)
	}
	if !domain.ValidPurpose(purpose) {
		return nil, fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}

	code, err := s.generate()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	v := &domain.VerificationCode{
		CodeID:         id.At(now),
		SubjectID:      subjectID,
		Purpose:        purpose,
		SubjectPurpose: domain.SubjectPurposeKey(subjectID, purpose),
		Code:           code,
		IssuedAt:       now,
		ExpiresAt:      now.Add(domain.VerificationCodeTTL),
	}
	v.TTL = v.ExpiresAt.Add(retention).Unix()
	if err := s.store.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("%w: persist verification code: %w", domain.ErrStorageUnavailable, err)
	}

	res := &IssueResult{Code: code, ExpiresAt: v.ExpiresAt}
	subject, body := message(purpose, code)
	if err := s.notifier.Send(ctx, destination, subject, body); err != nil {
		slog.Warn("verification code delivery failed", "subject_id", subjectID, "purpose", purpose, "err", err)
		res.DeliveryFailed = true
	}
	return res, nil
}

func (s *service) Verify(ctx context.Context, subjectID, purpose, code string) error {
	if subjectID == "" || code == "" {
		return domain.ErrInvalidCode
	}
	v, err := s.store.FindUnused(ctx, subjectID, purpose, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidCode
		}
		return fmt.Errorf("%w: lookup verification code: %w", domain.ErrStorageUnavailable, err)
	}

	now := s.clock.Now().UTC()
	if now.After(v.ExpiresAt) {
		return domain.ErrCodeExpired
	}

	if err := s.store.MarkUsed(ctx, v.CodeID, now); err != nil {
		// Lost a race with a concurrent verify of the same code.
		if errors.Is(err, domain.ErrConflict) {
			return domain.ErrInvalidCode
		}
		return fmt.Errorf("%w: mark verification code used: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func message(purpose, code string) (subject, body string) {
	minutes := int(domain.VerificationCodeTTL / time.Minute)
	switch purpose {
	case domain.PurposePasswordReset:
		return "Password reset code",
			fmt.Sprintf("Your password reset code is %s.\nIt expires in %d minutes. If you did not request it, ignore this email.", code, minutes)
	default:
		return "Your verification code",
			fmt.Sprintf("Your verification code is %s.\nIt expires in %d minutes.", code, minutes)
	}
}
