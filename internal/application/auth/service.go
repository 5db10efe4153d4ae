package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/verification"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const fieldPasswordHash = "password_hash"

type PasswordRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type VerifyTwoFactorRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type Service interface {
	RequestTwoFactor(ctx context.Context, userID, sessionID string) (*verification.IssueResult, error)
	// VerifyTwoFactor completes a pending login and returns a full bearer.
	VerifyTwoFactor(ctx context.Context, userID, sessionID, code string) (string, error)
	// RequestPasswordRecovery returns a nil result, without error, for
	// unknown or disabled accounts so callers cannot enumerate emails.
	RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) (*verification.IssueResult, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	CompleteTwoFactor(ctx context.Context, sessionID string) error
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string, twoFactorPending bool) (string, error)
}

type idleStarter interface {
	StartIdle(ctx context.Context, userID, sessionID string) error
}

// subjectTimers stops every idle timer of a user whose sessions all ended.
type subjectTimers interface {
	StopSubject(subjectID string) int
}

type service struct {
	userRepo    userStore
	sessionRepo sessionStore
	codes       verification.Service
	jwtProvider jwtSigner
	idle        idleStarter
	timers      subjectTimers
}

type ServiceDeps struct {
	UserRepo     userStore
	SessionRepo  sessionStore
	Verification verification.Service
	JWTProvider  jwtSigner
	Idle         idleStarter
	Timers       subjectTimers
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:    deps.UserRepo,
		sessionRepo: deps.SessionRepo,
		codes:       deps.Verification,
		jwtProvider: deps.JWTProvider,
		idle:        deps.Idle,
		timers:      deps.Timers,
	}
}

func (s *service) RequestTwoFactor(ctx context.Context, userID, sessionID string) (*verification.IssueResult, error) {
	if _, err := s.pendingSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	destination := u.Email
	if u.Phone != "" {
		destination = u.Phone
	}
	return s.codes.Issue(ctx, u.UserID, domain.PurposeLogin2FA, destination)
}

func (s *service) VerifyTwoFactor(ctx context.Context, userID, sessionID, code string) (string, error) {
	sess, err := s.pendingSession(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	if err := s.codes.Verify(ctx, userID, domain.PurposeLogin2FA, code); err != nil {
		return "", err
	}
	if err := s.sessionRepo.CompleteTwoFactor(ctx, sess.SessionID); err != nil {
		return "", err
	}
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID, false)
	if err != nil {
		return "", err
	}
	if err := s.idle.StartIdle(ctx, u.UserID, sess.SessionID); err != nil {
		return "", err
	}
	return bearer, nil
}

func (s *service) pendingSession(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable || sess.UserID != userID || sess.PendingExpired(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	if !sess.TwoFactorPending {
		return nil, fmt.Errorf("two-factor already completed: %w", domain.ErrConflict)
	}
	return sess, nil
}

func (s *service) RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) (*verification.IssueResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if u.Enable != 1 {
		slog.Info("password recovery requested for disabled account", "user_id", u.UserID)
		return nil, nil
	}
	return s.codes.Issue(ctx, u.UserID, domain.PurposePasswordReset, u.Email)
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidCode
		}
		return err
	}
	if err := s.codes.Verify(ctx, u.UserID, domain.PurposePasswordReset, req.Code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return err
	}
	// Every existing session ends with the old password.
	if err := s.sessionRepo.SoftDeleteByUser(ctx, u.UserID); err != nil {
		return err
	}
	if s.timers != nil {
		s.timers.StopSubject(u.UserID)
	}
	return nil
}
