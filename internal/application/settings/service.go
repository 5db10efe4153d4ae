package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
)

type Service interface {
	// Get returns the user's settings, creating the defaults on first read.
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)
	Update(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.UserSettings, error)
}

type settingsStore interface {
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)
	Put(ctx context.Context, s *domain.UserSettings) error
}

// timerReconfigurer restarts live idle timers after a timeout change.
type timerReconfigurer interface {
	Reconfigure(subjectID string, timeout time.Duration) (int, error)
}

type service struct {
	repo           settingsStore
	timers         timerReconfigurer
	defaultTimeout int
}

type ServiceDeps struct {
	SettingsRepo          settingsStore
	Timers                timerReconfigurer
	DefaultTimeoutMinutes int
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:           deps.SettingsRepo,
		timers:         deps.Timers,
		defaultTimeout: deps.DefaultTimeoutMinutes,
	}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	st, err := s.repo.Get(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	st = domain.DefaultUserSettings(userID, s.defaultTimeout)
	if err := s.repo.Put(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.UserSettings, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	timeoutChanged := false
	if req.SessionTimeoutMinutes != nil {
		if *req.SessionTimeoutMinutes < 1 || *req.SessionTimeoutMinutes > 1440 {
			return nil, fmt.Errorf("session timeout must be 1-1440 minutes: %w", domain.ErrBadRequest)
		}
		timeoutChanged = *req.SessionTimeoutMinutes != st.SessionTimeoutMinutes
		st.SessionTimeoutMinutes = *req.SessionTimeoutMinutes
	}
	if req.TwoFactorEnabled != nil {
		st.TwoFactorEnabled = *req.TwoFactorEnabled
	}
	if req.EmailNotifications != nil {
		st.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		st.PushNotifications = *req.PushNotifications
	}
	if err := s.repo.Put(ctx, st); err != nil {
		return nil, err
	}

	if timeoutChanged && s.timers != nil {
		n, err := s.timers.Reconfigure(userID, st.SessionTimeout())
		if err != nil {
			slog.Warn("could not reconfigure idle timers", "user_id", userID, "err", err)
		} else if n > 0 {
			slog.Info("idle timers reconfigured", "user_id", userID, "sessions", n, "timeout_minutes", st.SessionTimeoutMinutes)
		}
	}
	return st, nil
}
