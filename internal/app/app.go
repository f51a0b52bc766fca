package app

import (
	"context"

	"github.com/rs/zerolog"

	"rank-drop-alerts/internal/catalog"
	"rank-drop-alerts/internal/config"
	"rank-drop-alerts/internal/fetcher"
	"rank-drop-alerts/internal/notify"
	"rank-drop-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newCatalog() (*catalog.Catalog, error) {
	mapping, err := a.Config.Catalog.Mapping()
	if err != nil {
		return nil, err
	}
	return catalog.New(mapping), nil
}

func (a *App) newFetcher(cat *catalog.Catalog) fetcher.RankFetcher {
	return fetcher.NewSearch(fetcher.SearchOptions{
		BaseURL:   a.Config.Search.BaseURL,
		Phrases:   a.Config.Search.Phrases,
		MaxPages:  a.Config.Search.MaxPages,
		Brand:     a.Config.Search.Brand,
		Dest:      a.Config.Search.Dest,
		Timeout:   a.Config.Search.RequestTimeout,
		UserAgent: a.Config.Search.UserAgent,
	}, cat, a.Logger)
}

func (a *App) newNotifier() notify.Notifier {
	if !a.Config.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Telegram
	return notify.NewTelegram(cfg.BotToken, cfg.ChatIDs, cfg.APIBase, cfg.RequestTimeout, a.Logger)
}

// openStore selects the history backend: Postgres when database.dsn is set,
// the CSV file store otherwise.
func (a *App) openStore(ctx context.Context) (storage.HistoryStore, func(), error) {
	if a.Config.Database.DSN != "" {
		pool, err := storage.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	return storage.NewFileStore(a.Config.History.File), nil, nil
}

// ExportOptions hold parameters for exporting the history log.
type ExportOptions struct {
	WorkbookPath string
	CSVPath      string
	ParquetPath  string
	ChartsDir    string
	ArchivePath  string
	Send         bool
}

// StatusOptions configure the status command.
type StatusOptions struct {
	Send bool
}

// SimulateOptions configure a synthetic alert run.
type SimulateOptions struct {
	SKU      string
	Phrase   string
	Previous int
	Current  int
}
