package device

import (
	"context"
	"errors"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
)

// Store is the subset of the device repository Resolve needs.
type Store interface {
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
	Put(ctx context.Context, d *domain.Device) error
	SoftDelete(ctx context.Context, deviceID string) error
}

// Resolve returns the enabled Device already registered for token, or
// builds a new one owned by userID. The bool reports whether the device
// is new; new devices are not persisted so the caller can attach a push
// endpoint first. A token moving to another user is treated as new and the
// previous owner's device is disabled so pushes stop reaching it.
func Resolve(ctx context.Context, store Store, token, platform, userID string) (*domain.Device, bool, error) {
	d, err := store.GetByToken(ctx, token)
	if err == nil && d.Enable && d.UserID == userID {
		return d, false, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	if err == nil && d.Enable && d.UserID != userID {
		if err := store.SoftDelete(ctx, d.DeviceID); err != nil {
			return nil, false, err
		}
	}
	if platform == "" {
		platform = "web"
	}
	now := time.Now().UTC()
	return &domain.Device{
		DeviceID:  id.New(),
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}
