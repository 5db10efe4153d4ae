package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	pkgdevice "github.com/KenzoYff/evently-ux-platform-94/internal/pkg/device"
)

const fieldEndpointARN = "endpoint_arn"

type Service interface {
	Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) (*domain.Device, error)
	List(ctx context.Context, userID string) ([]domain.Device, error)
	Delete(ctx context.Context, deviceID, userID string) error
	// Push sends to every enabled endpoint of userID and returns how many
	// deliveries succeeded. Individual failures are logged.
	Push(ctx context.Context, userID, title, body string) (int, error)
}

type deviceStore interface {
	pkgdevice.Store
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
}

// PushSender is implemented by the SNS sender. Nil disables push.
type PushSender interface {
	CreateEndpoint(ctx context.Context, token, userID string) (string, error)
	Push(ctx context.Context, endpointARN, title, body string) error
}

type service struct {
	repo   deviceStore
	pusher PushSender
}

type ServiceDeps struct {
	DeviceRepo deviceStore
	Pusher     PushSender
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.DeviceRepo, pusher: deps.Pusher}
}

func (s *service) Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) (*domain.Device, error) {
	d, created, err := pkgdevice.Resolve(ctx, s.repo, req.Token, req.Platform, userID)
	if err != nil {
		return nil, err
	}
	if !created {
		if d.EndpointARN == "" {
			if arn := s.createEndpoint(ctx, d); arn != "" {
				if err := s.repo.Update(ctx, d.DeviceID, map[string]interface{}{fieldEndpointARN: arn}); err != nil {
					return nil, err
				}
				d.EndpointARN = arn
			}
		}
		return d, nil
	}
	d.EndpointARN = s.createEndpoint(ctx, d)
	if err := s.repo.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) createEndpoint(ctx context.Context, d *domain.Device) string {
	if s.pusher == nil {
		return ""
	}
	arn, err := s.pusher.CreateEndpoint(ctx, d.Token, d.UserID)
	if err != nil {
		slog.Warn("could not create push endpoint", "device_id", d.DeviceID, "err", err)
		return ""
	}
	return arn
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Delete(ctx context.Context, deviceID, userID string) error {
	d, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return err
	}
	if d.UserID != userID {
		return fmt.Errorf("device belongs to another user: %w", domain.ErrForbidden)
	}
	return s.repo.SoftDelete(ctx, deviceID)
}

func (s *service) Push(ctx context.Context, userID, title, body string) (int, error) {
	if s.pusher == nil {
		return 0, nil
	}
	devices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, d := range devices {
		if d.EndpointARN == "" {
			continue
		}
		if err := s.pusher.Push(ctx, d.EndpointARN, title, body); err != nil {
			slog.Warn("push delivery failed", "device_id", d.DeviceID, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}
