package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"rank-drop-alerts/internal/bot"
	"rank-drop-alerts/internal/health"
	"rank-drop-alerts/internal/scheduler"
	"rank-drop-alerts/internal/service"
)

// Run executes the long-running tracking service: the fetch pipeline on its
// interval, the weekly report job, the liveness endpoint, and the command
// poller.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	cat, err := a.newCatalog()
	if err != nil {
		return err
	}

	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("telegram not configured; notifications disabled")
	}

	svc := service.New(
		a.newFetcher(cat),
		store,
		notifier,
		a.Config.Alerting.DropThreshold,
		a.Config.Alerting.Enabled,
		a.Logger,
	)

	weekday, hour, minute, err := a.Config.Scheduler.ReportSchedule()
	if err != nil {
		return err
	}

	jobs := []scheduler.Job{
		{
			Name: "track",
			Schedule: scheduler.Every{
				Interval:     a.Config.Scheduler.FetchInterval,
				AlignToStart: a.Config.Scheduler.AlignToBucket,
			},
			Run: svc.RunCycle,
		},
		{
			Name:     "report",
			Schedule: scheduler.Weekly{Weekday: weekday, Hour: hour, Minute: minute},
			Run: func(ctx context.Context, _ time.Time) error {
				return a.runReport(ctx, store, notifier)
			},
		},
	}

	sched := scheduler.New(scheduler.Options{
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, jobs, a.Logger)

	if a.Config.Health.Enabled {
		go func() {
			if err := health.NewServer(a.Config.Health.Addr, a.Logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("liveness endpoint stopped")
			}
		}()
	}

	if a.Config.Telegram.PollCommands && a.Config.Telegram.Enabled {
		poller := bot.NewPoller(bot.Options{
			BotToken:    a.Config.Telegram.BotToken,
			BaseURL:     a.Config.Telegram.APIBase,
			AllowedIDs:  a.Config.Telegram.ChatIDs,
			PollTimeout: a.Config.Telegram.PollTimeout,
		}, &commandHandler{app: a, store: store, notifier: notifier}, a.Logger)
		go func() {
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("command poller stopped")
			}
		}()
	}

	// one immediate cycle before the scheduler takes over
	if err := svc.RunCycle(ctx, time.Now().UTC()); err != nil {
		a.Logger.Error().Err(err).Msg("startup cycle failed")
	}

	a.Logger.Info().Msg("starting tracking service")
	err = sched.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("tracking service stopped")
	return nil
}
