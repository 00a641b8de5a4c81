// cmd/lendingdesk/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"go.uber.org/zap"

	"lendingdesk/internal/catalog"
	"lendingdesk/internal/circulation"
	"lendingdesk/internal/clients"
	"lendingdesk/internal/config"
	"lendingdesk/internal/eventstore"
	"lendingdesk/internal/lifecycle"
	"lendingdesk/internal/logger"
	"lendingdesk/internal/membership"
	"lendingdesk/internal/router"
	"lendingdesk/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	shutdownTracing, err := telemetry.Setup(appCtx, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("telemetry setup failed", zap.Error(err))
	}
	manager.Register("telemetry", lifecycle.ShutdownFunc(shutdownTracing))

	journal, err := openJournal(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("journal unavailable", zap.Error(err))
	}

	books, err := catalog.NewService(catalog.SeedBooks()...)
	if err != nil {
		zapLogger.Fatal("catalog seed rejected", zap.Error(err))
	}

	members := membership.NewService(membership.Options{
		RatePerMinute: cfg.Auth.RatePerMinute,
		Burst:         cfg.Auth.Burst,
		Journal:       journal,
	}, zapLogger)
	if cfg.Seed.DemoData {
		if err := membership.Seed(appCtx, members, membership.DemoRegistration()); err != nil {
			zapLogger.Fatal("demo member seed failed", zap.Error(err))
		}
	}

	var directory circulation.MemberDirectory = members
	if cfg.Membership.ServiceURL != "" {
		// Members registered here stay resolvable; unknown ones are looked up remotely.
		directory = clients.NewFallbackDirectory(members, clients.NewMembershipClient(cfg.Membership.ServiceURL, nil))
		zapLogger.Info("resolving members remotely", zap.String("url", cfg.Membership.ServiceURL))
	}
	lending := circulation.NewService(books, directory, journal, zapLogger)

	handler := router.New(router.Handlers{
		Catalog:     catalog.NewHandler(books),
		Circulation: circulation.NewHandler(lending, nil),
		Membership:  membership.NewHandler(members),
	}, router.Options{
		RequestTimeout: cfg.Context.RequestTimeout,
		Logger:         zapLogger,
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("app", cfg.AppName),
			zap.String("address", cfg.Address()),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			manager.Fail("http_server", err)
		}
	}()

	manager.Register("http_server", server.Shutdown)

	if err := manager.Wait(appCtx); err != nil {
		zapLogger.Error("desk stopping after failure", zap.Error(err))
	}
	cancel()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openJournal connects the Postgres journal when DATABASE_URL is set and falls
// back to an in-process store otherwise.
func openJournal(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (eventstore.Journal, error) {
	if cfg.Database.URL == "" {
		zapLogger.Info("journal kept in memory: DATABASE_URL not set")
		return eventstore.NewMemoryStore(), nil
	}

	db, err := eventstore.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return nil, err
	}
	manager.Register("postgres", func(context.Context) error {
		return db.Close()
	})

	store := eventstore.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	zapLogger.Info("journal connected to postgres")
	return store, nil
}
