package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pemakaian/internal/amqp"
	"pemakaian/internal/backend"
	"pemakaian/internal/cache"
	"pemakaian/internal/cli"
	"pemakaian/internal/dataset"
	apphttp "pemakaian/internal/http"
	"pemakaian/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	store := dataset.NewStore(res.Backend, dataset.Options{
		Policy: cfg.MissingPolicy(),
		Source: cfg.DataBackend,
	}, logger)

	// Startup load is fatal: without data there is nothing to show.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), time.Minute)
	ds, err := store.Reload(loadCtx)
	loadCancel()
	if err != nil {
		logger.Error("Failed to load dataset", log.FieldError, err, log.FieldOperation, log.OpLoad, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	chartCache := cache.NewLRUCache[[]byte](cfg.ChartCacheSize, cfg.ChartCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(chartCache)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:       ":" + cfg.Port,
		Source:     store,
		Policy:     cfg.MissingPolicy(),
		ChartCache: chartCache,
		Logger:     logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without reload notifications", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting pemakaian server", "port", cfg.Port, "backend", cfg.DataBackend, "rows", ds.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return cacheManager.Run(gctx, time.Minute)
	})

	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeDatasetImported(gctx, func(ctx context.Context, msg *amqp.DatasetImportedMessage) error {
				logger.InfoContext(ctx, "Dataset import announced",
					log.FieldMessageID, msg.ID,
					log.FieldSource, msg.Source,
					log.FieldRows, msg.Rows)
				if _, err := store.Reload(ctx); err != nil {
					return err
				}
				cacheManager.PurgeAll()
				return nil
			})
		})
	}

	// A failing component stops the others too.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	if ctx.Err() != nil {
		<-done
	}
	logger.Info("Server stopped gracefully")
}
