package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"rank-drop-alerts/internal/notify"
	"rank-drop-alerts/internal/report"
	"rank-drop-alerts/internal/storage"
)

// Status renders the latest known position per (phrase, SKU). By default it
// prints a terminal table; with Send it delivers the text over the
// messaging channel instead.
func (a *App) Status(ctx context.Context, opts StatusOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	log, found, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if !found || len(log) == 0 {
		fmt.Fprintln(os.Stdout, "no positions recorded yet")
		return nil
	}

	snapshot := report.BuildStatusSnapshot(log)

	if opts.Send {
		notifier := a.newNotifier()
		if notifier == nil {
			return errors.New("telegram not configured; cannot send status")
		}
		return notifier.SendText(ctx, report.RenderStatusText(snapshot))
	}

	return printStatusTable(snapshot)
}

func printStatusTable(snapshot map[report.Key]storage.Observation) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Query", "SKU", "Position", "Promo", "Time"})

	var data [][]string
	for _, key := range report.SortedKeys(snapshot) {
		obs := snapshot[key]
		promo := ""
		if obs.PromoPosition > 0 {
			promo = strconv.Itoa(obs.PromoPosition)
		}
		data = append(data, []string{
			key.Phrase,
			key.SKU,
			strconv.Itoa(obs.Position),
			promo,
			obs.ObservedAt.Format(storage.TimeLayout),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// commandHandler answers the messaging channel's pull commands against the
// already-open run-loop dependencies.
type commandHandler struct {
	app      *App
	store    storage.HistoryStore
	notifier notify.Notifier
}

func (h *commandHandler) HandleReport(ctx context.Context) error {
	return h.app.runReport(ctx, h.store, h.notifier)
}

func (h *commandHandler) HandleStatus(ctx context.Context) error {
	log, found, err := h.store.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		return h.notifier.SendText(ctx, "No positions recorded yet.")
	}
	return h.notifier.SendText(ctx, report.RenderStatusText(report.BuildStatusSnapshot(log)))
}
