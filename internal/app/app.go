package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/stockdash/internal/cache"
	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/dashboard"
	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/handlers"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/mcp"
	"github.com/bobmcallan/stockdash/internal/provider/memory"
	"github.com/bobmcallan/stockdash/internal/provider/yahoo"
	"github.com/bobmcallan/stockdash/internal/report"
	"github.com/bobmcallan/stockdash/internal/session"
	"github.com/bobmcallan/stockdash/internal/storage"
	"github.com/bobmcallan/stockdash/internal/watchlist"
)

// sessionCleanupInterval is how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Storage   interfaces.StorageManager
	Cache     *cache.ResponseCache
	Provider  interfaces.MarketDataProvider
	Formatter *format.Formatter
	Builder   *report.Builder
	Dashboard *dashboard.Orchestrator
	Sessions  *session.Store
	Watchlist []watchlist.Group

	// HTTP handlers
	PageHandler      *handlers.PageHandler
	DashboardHandler *handlers.DashboardHandler
	ReportHandler    *handlers.ReportHandler
	ErrorLogHandler  *handlers.ErrorLogHandler
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
	MCPHandler       *mcp.Handler

	stop     chan struct{}
	stopOnce sync.Once
}

type options struct {
	provider interfaces.MarketDataProvider
	headless bool
}

// Option configures New.
type Option func(*options)

// WithProvider replaces the configured market data provider.
func WithProvider(p interfaces.MarketDataProvider) Option {
	return func(o *options) { o.provider = p }
}

// Headless skips storage and HTTP handlers. Used by the report CLI, which must not
// contend with a running server for the badger directory lock.
func Headless() Option {
	return func(o *options) { o.headless = true }
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		stop:   make(chan struct{}),
	}

	if !o.headless {
		sm, err := storage.NewStorageManager(logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.Storage = sm
	}

	if err := a.initCore(o.provider); err != nil {
		a.Close()
		return nil, err
	}

	if !o.headless {
		a.initHandlers()
		go a.cleanupSessions()
	}

	logger.Info().
		Str("provider", cfg.Provider.Source).
		Str("locale", a.Formatter.Locale()).
		Str("currency", a.Formatter.CurrencyCode()).
		Bool("headless", o.headless).
		Msg("application initialization complete")

	return a, nil
}

func (a *App) initCore(provider interfaces.MarketDataProvider) error {
	cfg := a.Config

	a.Cache = cache.New(cfg.Cache.TTLDuration(), cfg.Cache.MaxEntries)

	switch {
	case provider != nil:
		a.Provider = provider
	case cfg.Provider.Source == "memory":
		a.Logger.Warn().Msg("using the in-memory demo provider, only DEMO resolves")
		a.Provider = memory.Sample()
	default:
		a.Provider = yahoo.NewClient(cfg.Provider, cache.NewTransport(a.Cache, nil), a.Logger)
	}

	f, err := format.New(cfg.Format.Locale, cfg.Format.Currency)
	if err != nil {
		return fmt.Errorf("failed to initialize formatter: %w", err)
	}
	policy, err := report.ParseCellPolicy(cfg.Format.CellPolicy)
	if err != nil {
		return err
	}
	a.Formatter = f
	a.Builder = report.NewBuilder(f, policy)

	var sink interfaces.ErrorLogSink
	var kv interfaces.KeyValueStorage
	if a.Storage != nil {
		sink = a.Storage.ErrorLog()
		kv = a.Storage.KeyValueStorage()
	}

	a.Dashboard = dashboard.New(a.Provider, a.Builder, sink, a.Logger,
		dashboard.WithTimeout(cfg.Provider.TimeoutDuration()))
	a.Sessions = session.NewStore(kv, cfg.Dashboard.SessionTTLDuration(), a.Logger)

	a.Watchlist = watchlist.Default()
	if path := cfg.Dashboard.WatchlistFile; path != "" {
		groups, err := watchlist.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load watchlist %s: %w", path, err)
		}
		a.Watchlist = groups
	}

	return nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	var sink interfaces.ErrorLogSink
	if a.Storage != nil {
		sink = a.Storage.ErrorLog()
	}

	a.PageHandler = handlers.NewPageHandler(a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.healthChecks()...)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.DashboardHandler = handlers.NewDashboardHandler(a.Logger, a.Dashboard, a.Sessions, a.Watchlist, a.Config.IsProduction())
	a.DashboardHandler.SetRefreshFn(func(symbol string) {
		a.Cache.InvalidatePrefix(yahoo.CacheFragment(symbol))
	})
	a.ReportHandler = handlers.NewReportHandler(a.Logger, a.Dashboard)
	a.ErrorLogHandler = handlers.NewErrorLogHandler(a.Logger, sink)
	a.MCPHandler = mcp.NewHandler(a.Dashboard, sink, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// healthChecks lists the local dependencies /api/health reports on.
func (a *App) healthChecks() []handlers.HealthCheck {
	if a.Storage == nil {
		return nil
	}
	kv := a.Storage.KeyValueStorage()
	return []handlers.HealthCheck{{
		Name: "storage",
		Check: func(ctx context.Context) error {
			_, err := kv.Get(ctx, "health:ping")
			if err == nil || errors.Is(err, interfaces.ErrNotFound) {
				return nil
			}
			return err
		},
	}}
}

func (a *App) cleanupSessions() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			removed, err := a.Sessions.Cleanup(context.Background())
			if err != nil {
				a.Logger.Warn().Err(err).Msg("session cleanup failed")
				continue
			}
			if removed > 0 {
				a.Logger.Debug().Int("removed", removed).Msg("expired sessions removed")
			}
		}
	}
}

// Close closes all application resources.
func (a *App) Close() error {
	a.stopOnce.Do(func() { close(a.stop) })
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
