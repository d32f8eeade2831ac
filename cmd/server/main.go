package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/carbon-assessment/internal/audit"
	"github.com/xela07ax/carbon-assessment/internal/console/grpcapi"
	"github.com/xela07ax/carbon-assessment/internal/console/handler"
	"github.com/xela07ax/carbon-assessment/internal/console/server"
	"github.com/xela07ax/carbon-assessment/internal/console/service"
	"github.com/xela07ax/carbon-assessment/internal/health"
	"github.com/xela07ax/carbon-assessment/internal/infra"
	"github.com/xela07ax/carbon-assessment/internal/repository/postgres"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст жизненного цикла: SIGINT/SIGTERM отменяет его
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Инфраструктура и ресурсы
	db, err := postgres.Connect(appCtx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Схема обязана быть на месте до того, как начнем принимать запросы
	if err := postgres.EnsureSchema(appCtx, db); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	logger.Info("database schema is ready")

	// Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra.NewMetrics(reg)

	// 2. Слои (Dependency Injection)
	repo := postgres.NewAssessmentRepo(db)
	opts := []service.Option{
		service.WithMetrics(metrics),
		service.WithProbe(health.NewProbe(repo)),
	}

	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		opts = append(opts, service.WithCache(service.NewRedisCache(rdb, cfg.Cache, metrics, logger)))
		logger.Info("report cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	if cfg.Audit.Enabled {
		writer := audit.NewWriter(postgres.NewAuditRepo(db), logger, audit.Options{
			BufferSize:    cfg.Audit.BufferSize,
			BatchSize:     cfg.Audit.BatchSize,
			FlushInterval: cfg.Audit.FlushInterval,
			BufferFill:    metrics.AuditBufferFill,
		})
		writer.Start()
		// Stop до закрытия пула: финальный flush пишет в базу
		defer writer.Stop()
		opts = append(opts, service.WithAuditor(writer))
	}

	svc := service.NewAssessmentService(repo, logger, opts...)
	api := server.NewAPIServer(cfg, logger, metrics, handler.NewAssessmentHandler(svc))

	errCh := make(chan error, 3)

	// 3. Prometheus
	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	// 4. gRPC (только чтение)
	grpcSrv := grpcapi.NewGRPCServer(svc, logger)
	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.GRPC.Port)))
		if err != nil {
			return fmt.Errorf("failed to listen gRPC: %w", err)
		}
		go func() {
			logger.Info("gRPC server started", zap.String("addr", lis.Addr().String()))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	// 5. HTTP Server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("HTTP API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	// 6. Graceful Shutdown
	var runErr error
	select {
	case <-appCtx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcSrv.GracefulStop()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	logger.Info("server exited properly")
	return runErr
}
