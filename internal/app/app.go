package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"PolicyDigest/internal/config"
	"PolicyDigest/internal/infrastructure/addevent"
	"PolicyDigest/internal/infrastructure/gmail"
	"PolicyDigest/internal/infrastructure/llm"
	"PolicyDigest/internal/infrastructure/render"
	"PolicyDigest/internal/infrastructure/scheduler"
	"PolicyDigest/internal/infrastructure/sources"
	"PolicyDigest/internal/infrastructure/storage"
	"PolicyDigest/internal/logging"
	"PolicyDigest/internal/ports"
	"PolicyDigest/internal/scanner"
	"PolicyDigest/internal/usecase"
	"PolicyDigest/internal/web"
)

const productID = "-//PolicyDigest//Hearings//EN"

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	registry *scanner.Registry
	bundles  *usecase.Bundles
	curation *usecase.Curation
	calendar *usecase.Calendar
	sweeper  *usecase.Sweeper
	server   *web.Server
}

// New builds the application. Gmail and Postgres are optional: a missing
// Gmail token disables the newsletter stage and an empty DSN keeps sessions
// in memory.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	loc := cfg.Calendar.Location()

	fetcher := sources.NewFetcher(nil, cfg.Scraper, loc)
	catalog := sources.NewCatalog(fetcher)
	registry := scanner.NewRegistry()
	catalog.Register(registry)

	client := llm.NewChatGPTClient(cfg.ChatGPT)
	var chat ports.ChatClient
	if cfg.ChatGPT.APIKey != "" {
		chat = client
	} else {
		baseLogger.Warn("no chat api key, categories fall back to the catch-all")
	}
	categorizer := usecase.NewCategorizer(chat, baseLogger.With("component", "categorizer"))

	deps := usecase.BundleDeps{
		News:       newsFeeds(catalog),
		House:      committeePairs(catalog),
		Senate:     committeeFeeds(catalog),
		Links:      gmail.ExtractLinks,
		Classifier: categorizer,
		Disabled:   cfg.Sources.IsDisabled,
		Logger:     baseLogger.With("component", "bundles"),
	}
	if reader, err := gmail.NewReader(ctx, cfg.Gmail); err != nil {
		baseLogger.Warn("gmail disabled", "error", err)
	} else {
		deps.Mail = reader
	}
	bundles := usecase.NewBundles(deps)

	a := &Application{cfg: cfg, logger: baseLogger, registry: registry, bundles: bundles}

	sessions, err := a.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	cache := storage.NewArticleCache()
	renderer := render.NewRenderer(productID)

	a.curation = usecase.NewCuration(usecase.CurationDeps{
		Sessions: sessions,
		Cache:    cache,
		Loader:   bundles,
		Labeler:  categorizer,
		Renderer: renderer,
		Logger:   baseLogger.With("component", "curation"),
	})

	a.calendar = usecase.NewCalendar(usecase.CalendarDeps{
		Pages:        fetcher,
		Extractor:    llm.NewEventExtractor(client),
		API:          addevent.NewClient(cfg.Calendar, nil),
		Renderer:     renderer,
		Location:     loc,
		Duration:     time.Duration(cfg.Calendar.DurationMinutes) * time.Minute,
		DedupeWindow: time.Duration(cfg.Calendar.DedupeWindowHours) * time.Hour,
		CalendarID:   cfg.Calendar.CalendarID,
		CalendarKey:  cfg.Calendar.CalendarKey,
		PageSize:     cfg.Calendar.PageSize,
		Logger:       baseLogger.With("component", "calendar"),
	})

	a.sweeper = usecase.NewSweeper(
		scheduler.NewTicker(cfg.Server.Interval()),
		sessions,
		cache,
		cfg.Server.TTL(),
		baseLogger.With("component", "sweeper"),
	)

	a.server, err = web.NewServer(a.curation, a.calendar, web.Options{
		CookieName: cfg.Server.CookieName,
		SessionTTL: cfg.Server.TTL(),
		Logger:     baseLogger.With("component", "http"),
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) sessionStore(ctx context.Context) (ports.SessionStore, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Info("sessions kept in memory")
		return storage.NewMemorySessionStore(), nil
	}
	db, err := storage.OpenPostgres(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	store := storage.NewPostgresSessionStore(db, a.cfg.Database.Table)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	a.db = db
	return store, nil
}

// Serve runs the web app and the session sweeper until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.sweeper.Stop(stopCtx); err != nil {
			a.logger.Warn("sweeper stop failed", "error", err)
		}
	}()

	return a.server.Run(ctx, a.cfg.Server.Addr)
}

// Fetch loads one bundle stage outside the wizard.
func (a *Application) Fetch(ctx context.Context, stage string, since time.Time, useAI bool) (ports.Batch, error) {
	s, err := domainStage(stage)
	if err != nil {
		return ports.Batch{}, err
	}
	return a.bundles.Load(ctx, s, since, useAI)
}

// Sources lists every registered adapter name.
func (a *Application) Sources() []string {
	return a.registry.Names()
}

// Scan runs a single adapter by name.
func (a *Application) Scan(ctx context.Context, name string, since time.Time) (scanner.Result, error) {
	adapter, err := a.registry.Resolve(name)
	if err != nil {
		return scanner.Result{}, err
	}
	return adapter.Fetch(ctx, since)
}

// Calendar exposes the event service for the command line.
func (a *Application) Calendar() *usecase.Calendar {
	return a.calendar
}

// Close releases the database handle, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
