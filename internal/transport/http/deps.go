package http

import (
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/auth"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/device"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/document"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/event"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/notification"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/session"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/settings"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/task"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/user"
	jwtinfra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/jwt"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Sessions      session.Service
	Auth          auth.Service
	Users         user.Service
	Settings      settings.Service
	Events        event.Service
	Tasks         task.Service
	Documents     document.Service
	Notifications notification.Service
	Devices       device.Service
	JWTProvider   *jwtinfra.Provider
}
