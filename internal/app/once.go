package app

import (
	"context"
	"time"

	"rank-drop-alerts/internal/service"
)

// Once runs a single live tracking cycle and exits. Useful for operating the
// pipeline by hand or from an external scheduler.
func (a *App) Once(ctx context.Context) error {
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

	svc := service.New(
		a.newFetcher(cat),
		store,
		a.newNotifier(),
		a.Config.Alerting.DropThreshold,
		a.Config.Alerting.Enabled,
		a.Logger,
	)

	return svc.RunCycle(ctx, time.Now().UTC())
}
