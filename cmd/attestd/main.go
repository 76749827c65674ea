package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/attest-tracker/internal/async"
	"github.com/joseph-ayodele/attest-tracker/internal/common"
	"github.com/joseph-ayodele/attest-tracker/internal/extract"
	"github.com/joseph-ayodele/attest-tracker/internal/ingest"
	"github.com/joseph-ayodele/attest-tracker/internal/metrics"
	"github.com/joseph-ayodele/attest-tracker/internal/ocr"
	repo "github.com/joseph-ayodele/attest-tracker/internal/repository"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.LogLevel, os.Getenv("LOG_FORMAT") == "json")
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if len(cfg.Ingest.InboxDirs) == 0 {
		logger.Error("INBOX_DIRS env var is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, repo.ConfigFrom(cfg.Database), logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	engine, err := extract.NewEngine(logger, extract.WithRegionEnd(cfg.Extract.TableEndMarkers...))
	if err != nil {
		logger.Error("failed to build extraction engine", "error", err)
		os.Exit(1)
	}
	text := ocr.NewExtractor(ocr.Config{
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	docs := repo.NewDocumentRepository(store, logger)
	usecase := ingest.NewUsecase(docs, text, engine, logger)
	usecase.Observer = m

	queue := async.NewIngestQueue(usecase, logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(cfg.Ingest.ProcessTimeout),
		async.WithDepthReporter(m.SetQueueDepth),
	)

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       cfg.Ingest.InboxDirs,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to start inbox watcher", "error", err)
		os.Exit(1)
	}

	// gRPC health
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve error", "error", err)
			stop()
		}
	}()

	go probeStore(ctx, store, healthServer, logger)

	logger.Info("attestd running",
		"grpc_addr", cfg.Server.GRPCAddr,
		"metrics_addr", cfg.Server.MetricsAddr,
		"inbox_dirs", cfg.Ingest.InboxDirs,
		"workers", cfg.Ingest.Workers,
	)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case path, ok := <-events:
			if !ok {
				break loop
			}
			jobCtx, reqID := common.EnsureRequestID(ctx)
			if err := queue.Enqueue(jobCtx, async.Job{Path: path, RequestID: reqID}); err != nil {
				logger.Warn("dropping file", "path", path, "error", err)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("inbox watcher error", "error", err)
		}
	}

	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ingest.ProcessTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}

// probeStore flips the health status when the database stops answering.
func probeStore(ctx context.Context, store *repo.Store, hs *health.Server, logger *slog.Logger) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			status := grpc_health_v1.HealthCheckResponse_SERVING
			if err := store.HealthCheck(ctx, 2*time.Second); err != nil {
				logger.Warn("database health check failed", "error", err)
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}
