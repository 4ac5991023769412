package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"product-catalog-api/internal/api"
	"product-catalog-api/internal/config"
	"product-catalog-api/internal/events"
	"product-catalog-api/internal/service"
	"product-catalog-api/internal/store"
)

const (
	defaultAppName = "ProductCatalogService" // App name for logger

	healthProbeInterval = 10 * time.Second
	consumerRetryDelay  = 5 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s, dual store: %t", cfg.AppEnv, cfg.LogLevel, cfg.DualStore)

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize database connection: %v", err)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()
	if err := db.PingContext(startupCtx); err != nil {
		logger.Fatalf("FATAL: Failed to ping database: %v", err)
	}
	pgStore := store.NewPostgresStore(db)
	if cfg.Postgres.BootstrapSchema {
		if err := pgStore.EnsureSchema(startupCtx); err != nil {
			logger.Fatalf("FATAL: Failed to bootstrap products schema: %v", err)
		}
		logger.Println("INFO: Products schema is in place.")
	}
	logger.Println("INFO: Database connection established and configured successfully.")

	// --- Redis (read store + change events) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(startupCtx).Err(); err != nil {
		// Not fatal: writes still go to Postgres, events are dropped until Redis is back.
		logger.Printf("WARN: Redis at %s is not reachable yet: %v", cfg.Redis.Addr, err)
	}
	broker := events.NewRedisBroker(rdb)
	publisher := events.NewAsyncPublisher(broker, cfg.Events.Channel, cfg.Events.QueueSize, logger)

	opts := []service.Option{
		service.WithPublisher(publisher),
		service.WithTimeout(cfg.StoreTimeout),
		service.WithLogger(logger),
	}
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	if cfg.DualStore {
		readStore := store.NewRedisStore(rdb)
		opts = append(opts, service.WithReadStore(readStore))
		consumer := events.NewConsumer(broker, cfg.Events.Channel, readStore, cfg.StoreTimeout, logger)
		go runConsumer(bgCtx, logger, consumer, consumerDone)
	} else {
		close(consumerDone)
	}
	products := service.NewProductService(pgStore, opts...)

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(products)
	webHandler, err := api.NewWebHandler(products)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load web templates: %v", err)
	}
	grpcAPIHandler := api.NewGRPCHandler(products)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, products)
	httpAPIHandler.RegisterRoutes(httpRouter) // /api/v1/products
	webHandler.RegisterRoutes(httpRouter)     // /web

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Setup & Start gRPC Server ---
	healthServer := health.NewServer()
	grpcServer := setupGRPCServer(logger, grpcAPIHandler, healthServer)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatalf("FATAL: Failed to listen for gRPC on port %s: %v", cfg.GrpcServer.Port, err)
	}
	go watchHealth(bgCtx, logger, products, healthServer)

	go func() {
		logger.Printf("INFO: gRPC server listening on port %s", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatalf("FATAL: gRPC server Serve error: %v", err)
		}
		logger.Println("INFO: gRPC server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, shutdownDeps{
		httpServer:       httpServer,
		grpcServer:       grpcServer,
		healthServer:     healthServer,
		cancelBackground: cancelBackground,
		consumerDone:     consumerDone,
		publisher:        publisher,
		redis:            rdb,
		dbStore:          pgStore,
	}, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
}

// runConsumer keeps the read store subscription alive until ctx is cancelled.
func runConsumer(ctx context.Context, logger *log.Logger, consumer *events.Consumer, done chan<- struct{}) {
	defer close(done)
	for {
		err := consumer.Run(ctx)
		if ctx.Err() != nil {
			logger.Println("INFO: Product change consumer stopped.")
			return
		}
		logger.Printf("WARN: Product change consumer exited: %v; resubscribing in %s", err, consumerRetryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(consumerRetryDelay):
		}
	}
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger) // Chi's request logger
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second)) // Default timeout for requests
	logger.Println("INFO: Base HTTP middleware registered.")
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, products *service.ProductService) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "healthy"
		if err := products.PingPrimary(ctx); err != nil {
			dbStatus = "unhealthy"
			logger.Printf("WARN: Health check DB ping failed: %v", err)
		}
		readStatus := "disabled"
		if enabled, err := products.PingReadStore(ctx); enabled {
			readStatus = "healthy"
			if err != nil {
				readStatus = "unhealthy"
				logger.Printf("WARN: Health check read store ping failed: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
			"readStore":   readStatus,
		})
	})
	logger.Printf("INFO: HTTP health check registered at %s", healthPath)
}

func setupGRPCServer(logger *log.Logger, grpcAPIHandler *api.GRPCHandler, healthServer *health.Server) *grpc.Server {
	s := grpc.NewServer()

	api.RegisterProductCatalogServer(s, grpcAPIHandler)
	logger.Println("INFO: ProductCatalog gRPC service registered.")

	grpc_health_v1.RegisterHealthServer(s, healthServer)
	logger.Println("INFO: gRPC health check service registered.")

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	logger.Println("INFO: gRPC reflection service registered.")

	return s
}

// watchHealth mirrors the primary store's reachability into the gRPC health service.
func watchHealth(ctx context.Context, logger *log.Logger, products *service.ProductService, hs *health.Server) {
	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		st := grpc_health_v1.HealthCheckResponse_SERVING
		if err := products.PingPrimary(probeCtx); err != nil {
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			logger.Printf("WARN: gRPC health probe failed: %v", err)
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(api.ProductCatalogServiceName, st)
	}

	probe()
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

type shutdownDeps struct {
	httpServer       *http.Server
	grpcServer       *grpc.Server
	healthServer     *health.Server
	cancelBackground context.CancelFunc // stops the consumer and the health watcher
	consumerDone     <-chan struct{}
	publisher        *events.AsyncPublisher
	redis            *redis.Client
	dbStore          *store.PostgresStore
}

func waitForShutdown(logger *log.Logger, deps shutdownDeps, shutdownComplete chan struct{}) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Health checkers see NOT_SERVING while in-flight RPCs drain.
	deps.healthServer.Shutdown()

	logger.Println("INFO: Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		deps.grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := deps.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	select {
	case <-stoppedGrpc:
		logger.Println("INFO: gRPC server gracefully shut down.")
	case <-shutdownCtx.Done():
		logger.Printf("WARN: gRPC server graceful shutdown timed out: %v", shutdownCtx.Err())
		deps.grpcServer.Stop()
		logger.Println("INFO: gRPC server forced stop.")
	}

	// Nothing writes after the servers stop, so the queue can be drained.
	deps.publisher.Close()
	logger.Printf("INFO: Event publisher closed (dropped: %d, failed: %d).", deps.publisher.Dropped(), deps.publisher.Failed())

	deps.cancelBackground()
	select {
	case <-deps.consumerDone:
	case <-shutdownCtx.Done():
		logger.Println("WARN: Product change consumer did not stop in time.")
	}

	if err := deps.redis.Close(); err != nil {
		logger.Printf("WARN: Error closing Redis client: %v", err)
	}
	if err := deps.dbStore.Close(); err != nil {
		logger.Printf("WARN: Error closing database connection: %v", err)
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
