package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	pb "medpresecure-booking/api/booking/v1"
	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/cache"
	"medpresecure-booking/internal/config"
	"medpresecure-booking/internal/gateway"
	"medpresecure-booking/internal/handler"
	"medpresecure-booking/internal/logger"
	"medpresecure-booking/internal/metrics"
	"medpresecure-booking/internal/middleware"
	"medpresecure-booking/internal/store"
	"medpresecure-booking/internal/store/memstore"
	"medpresecure-booking/internal/store/mongostore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("store", zap.Error(err))
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var slotCache booking.SlotCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			lg.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		slotCache = cache.NewRedis(rdb, cfg.AvailabilityTTL)
		lg.Info("availability cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	coord := booking.NewCoordinator(st, lg,
		booking.WithPolicy(cfg.Policy()),
		booking.WithMetrics(m),
		booking.WithTxTimeout(cfg.TxTimeout),
	)
	sched := booking.NewSchedule(st, lg, booking.ScheduleConfig{
		Policy:   cfg.Policy(),
		Location: cfg.Location,
		Cache:    slotCache,
		Metrics:  m,
	})
	h := handler.New(coord, sched, handler.Config{Horizon: cfg.BookingHorizon}, lg)

	// grpc server
	rl := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rl),
			middleware.Auth(cfg.JWTSecret),
		),
	)
	pb.RegisterBookingServiceServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		lg.Fatal("listen", zap.Error(err))
	}
	go func() {
		lg.Info("grpc listening", zap.String("port", cfg.GRPCPort))
		if err := srv.Serve(lis); err != nil {
			lg.Error("grpc", zap.Error(err))
		}
	}()

	httpSrv := &http.Server{
		Addr: ":" + cfg.WebPort,
		Handler: gateway.New(h, gateway.Config{
			Secret:    cfg.JWTSecret,
			RateLimit: cfg.HTTPRateLimit,
			Gatherer:  reg,
		}, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("http listening", zap.String("port", cfg.WebPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http", zap.Error(err))
		}
	}()

	lg.Info("booking service started",
		zap.String("store", cfg.StoreDriver),
		zap.Stringer("policy", cfg.Policy()),
		zap.String("timezone", cfg.Location.String()),
	)

	// graceful shutdown
	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http shutdown", zap.Error(err))
	}
	srv.GracefulStop()
}

func openStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (booking.Store, func(), error) {
	switch cfg.StoreDriver {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := client.Ping(ctx, nil); err != nil {
			closeFn()
			return nil, nil, err
		}
		lg.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))
		st := mongostore.New(client, cfg.MongoDatabase)
		if err := st.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return st, closeFn, nil

	case "memory":
		lg.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil

	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		lg.Info("connected to postgres")
		st := store.New(pool)

		// run migrations
		if migration, err := os.ReadFile(cfg.MigrationPath); err != nil {
			lg.Warn("migration file not found, skipping", zap.String("path", cfg.MigrationPath), zap.Error(err))
		} else if err := st.Migrate(ctx, string(migration)); err != nil {
			lg.Warn("migration warning", zap.Error(err))
		} else {
			lg.Info("migration applied")
		}
		return st, pool.Close, nil
	}
}
