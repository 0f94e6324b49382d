package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"familyfinance/internal/amqp"
	"familyfinance/internal/cli"
	"familyfinance/internal/config"
	apphttp "familyfinance/internal/http"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
	"familyfinance/internal/services"
	"familyfinance/internal/uploads"
)

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentApp)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to open record store", err, log.FieldBackend, cfg.DataBackend)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close record store", log.FieldError, err.Error())
		}
	}()

	records := repository.NewSet(result.Store, repository.WithStrictUpdates(cfg.StrictUpdates))

	// Change events are optional: without a broker the API keeps working
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, record change events disabled", log.FieldError, err.Error())
		} else {
			defer client.Close()
			publisher = client
		}
	}
	records = services.NotifySet(records, publisher, logger)

	files, uploadDir, err := newUploadStore(ctx, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize upload storage", err, "upload_backend", cfg.UploadBackend)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Records:           records,
		Stats:             services.NewAggregator(records, logger),
		Store:             result.Store,
		Uploads:           files,
		UploadDir:         uploadDir,
		UploadMaxBytes:    cfg.UploadMaxBytes,
		RequestTimeout:    cfg.RequestTimeout,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		Logger:            logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	var wg sync.WaitGroup
	refresher := services.NewBillRefresher(records.Bills,
		services.DueWindowChecker{WindowDays: cfg.BillDueWindowDays},
		cfg.BillRefreshInterval, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting familyfinance server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"upload_backend", cfg.UploadBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case sig := <-cli.ShutdownSignals():
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error())
	}
	cancel()
	wg.Wait()

	logger.Info("Server stopped gracefully")
	if exitCode != 0 {
		// deferred closers are skipped by os.Exit
		_ = result.Cleanup()
		os.Exit(exitCode)
	}
}

// newUploadStore returns the configured attachment store and, for the local
// backend, the directory to serve under /uploads/.
func newUploadStore(ctx context.Context, cfg *config.Config) (uploads.Store, string, error) {
	switch cfg.UploadBackend {
	case "s3":
		s3, err := uploads.NewS3(ctx, uploads.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			URLExpiry: cfg.S3URLExpiry,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	default:
		local, err := uploads.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir(), nil
	}
}
