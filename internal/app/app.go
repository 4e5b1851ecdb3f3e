package app

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

	"sensor-ingest/internal/config"
	"sensor-ingest/internal/database"
	"sensor-ingest/internal/event"
	"sensor-ingest/internal/handler"
	"sensor-ingest/internal/influx"
	"sensor-ingest/internal/middleware"
	"sensor-ingest/internal/mqtt"
	"sensor-ingest/internal/repository"
	"sensor-ingest/internal/router"
	"sensor-ingest/internal/service"
	"sensor-ingest/internal/websocket"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

type stores struct {
	users    repository.UserStore
	readings repository.ReadingStore
	health   interface{ Health(ctx context.Context) error }
	close    func()
}

func New(cfg *config.Config) (*App, error) {
	a := &App{}

	st, err := openStores(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	a.cleanupFuncs = append(a.cleanupFuncs, st.close)

	tokenService, err := service.NewTokenService(cfg.SecretKey, cfg.JWTTTL)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	bus := event.NewBus()
	authService := service.NewAuthService(st.users, tokenService, cfg.BcryptCost)
	readingService := service.NewReadingService(st.readings, bus)

	if cfg.InfluxEnabled() {
		if err := a.startInfluxMirror(cfg, bus); err != nil {
			a.cleanup()
			return nil, err
		}
	}

	if cfg.MQTTEnabled() {
		if err := a.startMQTTBridge(cfg, tokenService, readingService); err != nil {
			a.cleanup()
			return nil, err
		}
	}

	hub := websocket.NewHub(bus)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	a.cleanupFuncs = append(a.cleanupFuncs, stopHub)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Readings: handler.NewReadingHandler(readingService),
		Pages:    handler.NewPageHandler(readingService),
		Health:   handler.NewHealthHandler(st.health),
		Stream:   websocket.NewHandler(hub, cfg.CORSOrigins),
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if database.IsPostgresURL(cfg.DatabaseURL) {
		slog.Info("connecting to PostgreSQL")
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns), int32(cfg.DBMinConns))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		return &stores{
			users:    repository.NewUserRepository(db.Pool),
			readings: repository.NewReadingRepository(db.Pool),
			health:   db,
			close:    db.Close,
		}, nil
	}

	slog.Info("opening SQLite database", "path", cfg.DatabaseURL)
	db, err := database.OpenSQLite(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	return &stores{
		users:    repository.NewSQLiteUserRepository(db.DB),
		readings: repository.NewSQLiteReadingRepository(db.DB),
		health:   db,
		close:    db.Close,
	}, nil
}

func (a *App) startInfluxMirror(cfg *config.Config, bus *event.InMemoryBus) error {
	client, err := influx.Connect(influx.Config{
		URL:    cfg.InfluxURL,
		Token:  cfg.InfluxToken,
		Org:    cfg.InfluxOrg,
		Bucket: cfg.InfluxBucket,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	events, unsubscribe := bus.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	go influx.NewSink(client).Run(ctx, events)

	a.cleanupFuncs = append(a.cleanupFuncs, func() {
		cancel()
		unsubscribe()
		client.Close()
	})

	slog.Info("influx mirror enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	return nil
}

func (a *App) startMQTTBridge(cfg *config.Config, tokens *service.TokenService, readings *service.ReadingService) error {
	client, err := mqtt.Connect(mqtt.Config{
		BrokerURL: cfg.MQTTBrokerURL,
		ClientID:  cfg.MQTTClientID,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	if err := mqtt.NewIngestBridge(tokens, readings).Start(client, cfg.MQTTTopic); err != nil {
		client.Close()
		return fmt.Errorf("failed to start MQTT ingest: %w", err)
	}

	// Disconnect before the stores close so no message lands on a closed DB.
	a.cleanupFuncs = append(a.cleanupFuncs, client.Close)
	return nil
}

// cleanup runs in reverse registration order.
func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
