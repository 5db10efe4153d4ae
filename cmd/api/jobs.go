package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/outbox"
	"github.com/KenzoYff/evently-ux-platform-94/internal/config"
	cron "github.com/robfig/cron/v3"
)

type sweeper interface {
	Sweep(ctx context.Context) int
}

// startJobs schedules the background work and starts the cron runner.
func startJobs(cfg *config.Config, mail outbox.Service, timers sweeper) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(cfg.EmailQueueSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		res, err := mail.ProcessPending(ctx)
		if err != nil {
			slog.Error("email queue drain failed", "err", err)
			return
		}
		if res.Sent+res.Retried+res.Failed > 0 {
			slog.Info("email queue drained", "sent", res.Sent, "retried", res.Retried, "failed", res.Failed)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(cfg.IdleSweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n := timers.Sweep(ctx); n > 0 {
			slog.Debug("idle timers swept", "removed", n)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(cfg.EmailRetentionSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n, err := mail.Purge(ctx, time.Duration(cfg.EmailRetentionDays)*24*time.Hour)
		if err != nil {
			slog.Error("email retention purge failed", "err", err)
			return
		}
		slog.Info("email retention purge", "deleted", n)
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
