package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/idle"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/clock"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
	pkgtoken "github.com/KenzoYff/evently-ux-platform-94/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	// StartIdle arms the idle timer of a fully authenticated session.
	StartIdle(ctx context.Context, userID, sessionID string) error
	// RecordActivity resets the idle timer for a tracked client signal.
	RecordActivity(ctx context.Context, userID, sessionID, signal string) (*idle.State, error)
	// CheckActive fails with ErrSessionExpired once a session was idled out or ended.
	CheckActive(ctx context.Context, sessionID string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

type settingsReader interface {
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)
}

type jwtSigner interface {
	Sign(userID, role, sessionID string, twoFactorPending bool) (string, error)
}

type idleTimers interface {
	Start(subjectID, sessionID string, timeout time.Duration) error
	Touch(sessionID string) error
	Stop(sessionID string)
	Snapshot(sessionID string) (idle.State, bool)
}

type service struct {
	sessionRepo     sessionStore
	userRepo        userStore
	settings        settingsReader
	jwtProvider     jwtSigner
	timers          idleTimers
	clock           clock.Clock
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	SessionRepo     sessionStore
	UserRepo        userStore
	Settings        settingsReader
	JWTProvider     jwtSigner
	Timers          idleTimers
	Clock           clock.Clock
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		sessionRepo:     deps.SessionRepo,
		userRepo:        deps.UserRepo,
		settings:        deps.Settings,
		jwtProvider:     deps.JWTProvider,
		timers:          deps.Timers,
		clock:           deps.Clock,
		refreshTokenDur: deps.RefreshTokenDur,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	return s
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if u.Enable != 1 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	st, err := s.settings.Get(ctx, u.UserID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.At(now),
		UserID:           u.UserID,
		Enable:           true,
		TwoFactorPending: st.TwoFactorEnabled,
		RefreshToken:     pkgtoken.Hash(refreshToken),
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID, sess.TwoFactorPending)
	if err != nil {
		return nil, err
	}
	if !sess.TwoFactorPending {
		if err := s.timers.Start(u.UserID, sess.SessionID, st.SessionTimeout()); err != nil {
			return nil, err
		}
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	s.timers.Stop(sessionID)
	return s.sessionRepo.Disable(ctx, sessionID)
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, domain.ErrSessionExpired
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessionRepo.GetByRefreshToken(ctx, pkgtoken.Hash(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
		}
		return "", "", err
	}
	if !sess.Enable {
		return "", "", fmt.Errorf("session ended: %w", domain.ErrUnauthorized)
	}
	now := s.clock.Now()
	if sess.RefreshExpiresAt < now.Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := now.Add(s.refreshTokenDur).Unix()
	if err := s.sessionRepo.RotateRefreshToken(ctx, sess.SessionID, pkgtoken.Hash(newToken), newExpiry); err != nil {
		return "", "", err
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID, sess.TwoFactorPending)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) StartIdle(ctx context.Context, userID, sessionID string) error {
	st, err := s.settings.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.timers.Start(userID, sessionID, st.SessionTimeout())
}

func (s *service) RecordActivity(ctx context.Context, userID, sessionID, signal string) (*idle.State, error) {
	if _, err := idle.ParseSignal(signal); err != nil {
		return nil, err
	}
	err := s.timers.Touch(sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		// No timer on this instance yet, e.g. after a restart.
		if err := s.CheckActive(ctx, sessionID); err != nil {
			return nil, err
		}
		err = s.StartIdle(ctx, userID, sessionID)
	}
	if err != nil {
		return nil, err
	}
	st, ok := s.timers.Snapshot(sessionID)
	if !ok {
		return nil, domain.ErrSessionExpired
	}
	return &st, nil
}

func (s *service) CheckActive(ctx context.Context, sessionID string) error {
	if st, ok := s.timers.Snapshot(sessionID); ok && (st.Status == idle.StatusExpired || st.Stopped) {
		return domain.ErrSessionExpired
	}
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrSessionExpired
		}
		return err
	}
	if !sess.Enable || sess.PendingExpired(s.clock.Now()) {
		return domain.ErrSessionExpired
	}
	return nil
}
