package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/auth"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/device"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/document"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/event"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/idle"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/notification"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/outbox"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/session"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/settings"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/task"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/user"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/verification"
	"github.com/KenzoYff/evently-ux-platform-94/internal/config"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/awscfg"
	"github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/dynamo"
	jwtinfra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/jwt"
	s3infra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/s3"
	sendgridinfra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/sendgrid"
	"github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/smtp"
	"github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/sns"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/clock"
	transporthttp "github.com/KenzoYff/evently-ux-platform-94/internal/transport/http"
	"github.com/joho/godotenv"
)

const maxAvatarBytes = 5 << 20

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	setupLogger(cfg)

	ctx := context.Background()
	awsCfg, err := awscfg.Load(ctx, cfg, "")
	if err != nil {
		fatal("aws config", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	sessionRepo := dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)
	settingsRepo := dynamo.NewSettingsRepo(dynamoClient, cfg.DynamoTables.UserSettings)
	codeRepo := dynamo.NewVerificationCodeRepo(dynamoClient, cfg.DynamoTables.VerificationCodes)
	eventRepo := dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events)
	taskRepo := dynamo.NewTaskRepo(dynamoClient, cfg.DynamoTables.Tasks)
	documentRepo := dynamo.NewDocumentRepo(dynamoClient, cfg.DynamoTables.Documents)
	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	deviceRepo := dynamo.NewDeviceRepo(dynamoClient, cfg.DynamoTables.Devices)
	queueRepo := dynamo.NewEmailQueueRepo(dynamoClient, cfg.DynamoTables.EmailQueue)

	objects := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName)

	snsCfg, err := awscfg.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		fatal("sns aws config", err)
	}
	snsSender := sns.NewSender(snsCfg, cfg.SNSPlatformApplicationARN)

	// Endpoints can only be created against a platform application.
	var pushSender device.PushSender
	if cfg.SNSPlatformApplicationARN != "" {
		pushSender = snsSender
	} else {
		slog.Warn("SNS_PLATFORM_APPLICATION_ARN not set, mobile push disabled")
	}

	clk := clock.Real()

	outboxSvc := outbox.NewService(outbox.ServiceDeps{
		Queue:  queueRepo,
		Mailer: newMailer(cfg),
		Clock:  clk,
	})
	deviceSvc := device.NewService(device.ServiceDeps{DeviceRepo: deviceRepo, Pusher: pushSender})

	// Settings and the idle registry depend on each other through session alerts.
	prefs := &settingsRef{}
	notificationSvc := notification.NewService(notification.ServiceDeps{
		NotificationRepo: notificationRepo,
		Settings:         prefs,
		Pusher:           deviceSvc,
	})
	registry := idle.NewRegistry(clk, notification.NewSessionAlerts(notificationSvc),
		idle.TerminatorFunc(func(ctx context.Context, _, sessionID string) error {
			return sessionRepo.Disable(ctx, sessionID)
		}))
	settingsSvc := settings.NewService(settings.ServiceDeps{
		SettingsRepo:          settingsRepo,
		Timers:                registry,
		DefaultTimeoutMinutes: cfg.DefaultSessionTimeoutMinutes,
	})
	prefs.svc = settingsSvc

	verificationSvc := verification.NewService(verification.ServiceDeps{
		Store:    codeRepo,
		Notifier: verification.Channels{Email: outboxSvc, SMS: snsSender},
		Clock:    clk,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:     sessionRepo,
		UserRepo:        userRepo,
		Settings:        settingsSvc,
		JWTProvider:     jwtProvider,
		Timers:          registry,
		RefreshTokenDur: cfg.RefreshTokenTTL(),
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:     userRepo,
		SessionRepo:  sessionRepo,
		Verification: verificationSvc,
		JWTProvider:  jwtProvider,
		Idle:         sessionSvc,
		Timers:       registry,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:      userRepo,
		SessionRepo:   sessionRepo,
		Sessions:      sessionSvc,
		Objects:       objects,
		Timers:        registry,
		MaxAvatarSize: maxAvatarBytes,
	})
	eventSvc := event.NewService(event.ServiceDeps{
		EventRepo: eventRepo,
		Users:     userRepo,
		Notifier:  notificationSvc,
	})
	taskSvc := task.NewService(task.ServiceDeps{TaskRepo: taskRepo, EventRepo: eventRepo})
	documentSvc := document.NewService(document.ServiceDeps{
		DocumentRepo: documentRepo,
		EventRepo:    eventRepo,
		Objects:      objects,
		MaxSize:      cfg.MaxDocumentBytes,
	})

	scheduler, err := startJobs(cfg, outboxSvc, registry)
	if err != nil {
		fatal("schedule jobs", err)
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Sessions:      sessionSvc,
		Auth:          authSvc,
		Users:         userSvc,
		Settings:      settingsSvc,
		Events:        eventSvc,
		Tasks:         taskSvc,
		Documents:     documentSvc,
		Notifications: notificationSvc,
		Devices:       deviceSvc,
		JWTProvider:   jwtProvider,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	<-scheduler.Stop().Done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("forced shutdown", err)
	}
	slog.Info("server stopped", "idle_timers", registry.Len())
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	if cfg.AppEnv == "production" {
		h = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

func newMailer(cfg *config.Config) outbox.Mailer {
	if cfg.MailProvider == "sendgrid" {
		return sendgridinfra.NewMailer(cfg)
	}
	return smtp.NewMailer(cfg)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

// settingsRef lets the notification service read settings before the
// settings service exists.
type settingsRef struct {
	svc settings.Service
}

func (r *settingsRef) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	return r.svc.Get(ctx, userID)
}
