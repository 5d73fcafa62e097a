// cmd/server/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webpool/internal/admin"
	"webpool/internal/config"
	"webpool/internal/logging"
	"webpool/internal/pool"
	"webpool/internal/registry"
	"webpool/internal/tracing"
	"webpool/internal/web"

	"github.com/google/uuid"
)

func main() {
	// 1. Load configuration, then logger and tracer
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := logging.New(os.Stdout, level)
	slog.SetDefault(logger)

	if cfg.TracingEnabled {
		tracerShutdown, err := tracing.InitTracer("webpool", os.Stderr)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := tracerShutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	nodeID := uuid.New().String()
	logger.Info("starting webpool node", "node_id", nodeID, "listen_addr", cfg.ListenAddr, "pool_size", cfg.PoolSize)

	// 2. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel, logger)

	// 3. Admin endpoints
	metricsServer := admin.NewMetricsServer(cfg.MetricsListenAddr, logger)
	if cfg.MetricsListenAddr != "" {
		metricsServer.Start()
		defer func() {
			ctx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	healthServer := admin.NewHealthServer(logger)
	if cfg.HealthListenAddr != "" {
		healthLis, err := net.Listen("tcp", cfg.HealthListenAddr)
		if err != nil {
			log.Fatalf("Failed to listen for gRPC health: %v", err)
		}
		go func() {
			if err := healthServer.Serve(healthLis); err != nil {
				logger.Error("gRPC health server failed", "error", err)
			}
		}()
		defer healthServer.Stop()
	}

	// 4. Worker pool
	workers, err := pool.New(cfg.PoolSize,
		pool.WithName("web"),
		pool.WithLogger(logger),
		pool.WithMaxQueued(cfg.MaxQueued),
	)
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}

	// 5. Listener
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.ListenAddr, err)
	}

	// 6. Register this node in etcd
	if cfg.RegistrationEnabled() {
		etcdClient, err := registry.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to create etcd client: %v", err)
		}
		defer etcdClient.Close()

		reg := registry.NewRegistry(etcdClient, logger)
		regCtx, regCancel := context.WithTimeout(rootCtx, cfg.EtcdTimeout)
		err = reg.Register(regCtx, nodeID, lis.Addr().String(), int64(cfg.RegistrationTTL.Seconds()))
		regCancel()
		if err != nil {
			log.Fatalf("Failed to register node: %v", err)
		}
		defer func() {
			deregCtx, deregCancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer deregCancel()
			if err := reg.Deregister(deregCtx); err != nil {
				logger.Error("failed to deregister node", "error", err)
			}
		}()
	}

	// 7. Serve until signal or connection limit
	handler := web.NewConnHandler(web.NewResponder(cfg.StaticRoot, cfg.SlowPathDelay), cfg.ReadTimeout, logger)
	server := web.NewServer(lis, workers, handler, cfg.MaxConnections, logger)
	if err := server.Serve(rootCtx); err != nil {
		logger.Error("server stopped with error", "error", err)
	}

	logger.Info("shutting down")
	healthServer.Draining()
	if err := workers.Shutdown(); err != nil {
		logger.Error("worker pool shutdown reported failures", "error", err)
	}
	logger.Info("webpool node shut down")
}

func setupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()
	}()
}
