package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
)

type Service interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
}

type settingsReader interface {
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)
}

type pusher interface {
	Push(ctx context.Context, userID, title, body string) (int, error)
}

type service struct {
	repo     notificationStore
	settings settingsReader
	pusher   pusher
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	// Settings and Pusher are optional; without them no push is sent.
	Settings settingsReader
	Pusher   pusher
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.NotificationRepo, settings: deps.Settings, pusher: deps.Pusher}
}

func (s *service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly)
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	ns, err := s.repo.ListByUser(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	return len(ns), nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	if n.Read {
		return n, nil
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, notificationID)
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *service) Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error) {
	if req.Type == "" {
		req.Type = domain.NotificationInfo
	}
	if !domain.ValidNotificationType(req.Type) {
		return nil, fmt.Errorf("unknown notification type %q: %w", req.Type, domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         req.UserID,
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}
	s.push(ctx, n)
	return n, nil
}

// push is best effort; the stored notification is the source of truth.
func (s *service) push(ctx context.Context, n *domain.Notification) {
	if s.pusher == nil || s.settings == nil {
		return
	}
	st, err := s.settings.Get(ctx, n.UserID)
	if err != nil {
		slog.Warn("could not load settings for push", "user_id", n.UserID, "err", err)
		return
	}
	if !st.PushNotifications {
		return
	}
	if _, err := s.pusher.Push(ctx, n.UserID, n.Title, n.Message); err != nil {
		slog.Warn("push failed", "user_id", n.UserID, "notification_id", n.NotificationID, "err", err)
	}
}
