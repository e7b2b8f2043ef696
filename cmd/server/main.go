package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rl1809/food-ordering/internal/adapter/handler"
	"github.com/rl1809/food-ordering/internal/adapter/publisher"
	"github.com/rl1809/food-ordering/internal/adapter/security"
	"github.com/rl1809/food-ordering/internal/adapter/storage"
	"github.com/rl1809/food-ordering/internal/config"
	"github.com/rl1809/food-ordering/internal/core/service"
	"github.com/rl1809/food-ordering/internal/logging"
	"github.com/rl1809/food-ordering/internal/port"
)

const cacheSweepInterval = time.Minute

func main() {
	app := &cli.App{
		Name:  "food-ordering",
		Usage: "food ordering HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file loaded before reading the environment",
				Value:   ".env",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP and gRPC servers",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "manage the MySQL schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "apply pending migrations",
						Action: migrateUp,
					},
					{
						Name:  "down",
						Usage: "revert migrations",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to revert"},
						},
						Action: migrateDown,
					},
					{
						Name:   "version",
						Usage:  "print the applied schema version",
						Action: migrateVersion,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("food-ordering exited")
	}
}

func setup(c *cli.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

type backends struct {
	db           port.DatabaseRepository
	cache        port.CacheRepository
	publisher    port.EventPublisher
	dependencies []handler.Dependency
	closers      []func() error
	background   []func(ctx context.Context)
}

func (b *backends) close(log logrus.FieldLogger) {
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			log.WithError(err).Error("failed to close connection")
		}
	}
}

func openBackends(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backends, error) {
	b := &backends{}

	switch cfg.StorageDriver {
	case config.DriverMySQL:
		db, err := storage.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		adapter := storage.NewMySQLAdapter(db)
		b.db = adapter
		log.Info("connected to mysql")
	default:
		b.db = storage.NewMemoryAdapter()
	}
	b.dependencies = append(b.dependencies, handler.Dependency{Name: "storage", Pinger: b.db})

	switch cfg.CacheDriver {
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			b.close(log)
			return nil, err
		}
		b.closers = append(b.closers, rdb.Close)
		adapter := storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL, cfg.RedisStream)
		b.cache = adapter
		b.publisher = adapter
		b.dependencies = append(b.dependencies, handler.Dependency{Name: "cache", Pinger: adapter})
		log.Info("connected to redis")
	default:
		cache := storage.NewMemoryCache(cfg.IdempotencyTTL)
		b.cache = cache
		b.publisher = publisher.NewLogPublisher(log)
		b.dependencies = append(b.dependencies, handler.Dependency{Name: "cache", Pinger: cache})
		b.background = append(b.background, func(ctx context.Context) {
			sweepCache(ctx, cache, log)
		})
	}

	return b, nil
}

func serve(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}

	hasher, err := security.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		b.close(log)
		return err
	}

	// Initialize services
	events := service.NewEventQueue(cfg.QueueSize, log)
	menuService := service.NewMenuService(b.db, events, log)
	orderService := service.NewOrderService(b.db, b.db, b.cache, events, log)
	authService := service.NewAuthService(b.db, hasher, events, log)

	// Start event workers
	var workers sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		workers.Add(1)
		go func(id int) {
			defer workers.Done()
			service.DeliverEvents(id, events.Events(), b.publisher, log)
		}(i)
	}
	log.WithField("workers", cfg.WorkerCount).Info("started event workers")

	var background sync.WaitGroup
	for _, run := range b.background {
		background.Add(1)
		go func(run func(ctx context.Context)) {
			defer background.Done()
			run(ctx)
		}(run)
	}

	// Initialize gRPC server
	grpcServer, healthServer := handler.NewGRPCServer()
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		b.close(log)
		return err
	}

	background.Add(1)
	go func() {
		defer background.Done()
		handler.WatchHealth(ctx, healthServer, cfg.HealthInterval, b.dependencies, log)
	}()

	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server error")
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(menuService, orderService, authService, b.dependencies, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.WithField("signal", sig.String()).Info("shutting down")

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown incomplete")
	}
	log.Info("HTTP server stopped")

	// Stop gRPC server
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	// Stop background loops, then drain the event queue
	cancel()
	background.Wait()
	events.Close()
	workers.Wait()
	log.Info("workers stopped")

	b.close(log)
	log.Info("connections closed")
	return nil
}

func sweepCache(ctx context.Context, cache *storage.MemoryCache, log logrus.FieldLogger) {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := cache.Sweep(); removed > 0 {
				log.WithField("removed", removed).Debug("expired idempotency keys swept")
			}
		}
	}
}

func migrateUp(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	if err := storage.MigrateUp(cfg.MySQLDSN); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

func migrateDown(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	if err := storage.MigrateDown(cfg.MySQLDSN, c.Int("steps")); err != nil {
		return err
	}
	log.WithField("steps", c.Int("steps")).Info("migrations reverted")
	return nil
}

func migrateVersion(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	version, dirty, err := storage.SchemaVersion(cfg.MySQLDSN)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")
	return nil
}
