package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/rest"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/config"
	pg "github.com/ogurasousui/codex-employee-roster/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/logging"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/server"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		store  employee.Store
		tx     employee.TransactionManager
		pinger rest.Pinger
	)

	if cfg.Database.Enabled {
		dbPool, err := pg.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer dbPool.Close()

		store = postgres.NewEmployeeStore(dbPool)
		tx = pg.NewTransactionManager(dbPool)
		pinger = dbPool
	}

	employeeSvc := employee.NewService(nil, store, nil, tx, employee.WithLogger(logger))
	loaded, err := employeeSvc.Hydrate(ctx)
	if err != nil {
		return err
	}
	logger.Info("registry hydrated", "employees", loaded, "persistent", cfg.Database.Enabled)

	pipeline := importer.NewPipeline(employeeSvc, logger)
	statsSvc := company.NewService(employeeSvc.Registry())

	grpcHandler := handler.NewEmployeeGrpcHandler(employeeSvc, statsSvc, pipeline, feed.Options{MaxRecords: cfg.Import.MaxRecords})
	grpcServer := server.New(cfg.Server.ListenAddr, grpcHandler, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", cfg.Server.ListenAddr)
		return grpcServer.Run(gctx)
	})

	if cfg.HTTP.ListenAddr != "" {
		restHandler := rest.NewHandler(employeeSvc, statsSvc, pipeline, rest.Limits{
			MaxRecords:   cfg.Import.MaxRecords,
			MaxBodyBytes: cfg.Import.MaxBodyBytes,
		}, pinger)
		httpServer := &http.Server{
			Addr:         cfg.HTTP.ListenAddr,
			Handler:      restHandler.Router(),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}

		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", cfg.HTTP.ListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
