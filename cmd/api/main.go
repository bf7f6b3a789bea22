package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"folio/internal/api"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/events"
	"folio/internal/media"
	"folio/internal/repository"
	"folio/internal/storage"
	"folio/internal/throttle"
)

const shutdownTimeout = 10 * time.Second

// redisPinger 适配健康检查接口。
type redisPinger struct{ client redis.UniversalClient }

func (p redisPinger) PingContext(ctx context.Context) error { return p.client.Ping(ctx).Err() }

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database, logger)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("get sql db: %v", err)
	}
	log.Printf("database connection ready")

	authService, err := auth.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	limits := throttle.Limits{
		PerHour:       cfg.Auth.LoginRateLimitPerHour,
		LockThreshold: cfg.Auth.LoginLockThreshold,
		LockTTL:       cfg.Auth.LoginLockTTL,
	}
	deps := api.Dependencies{
		Store:          repository.NewStore(db),
		Auth:           authService,
		Limiter:        throttle.NewMemoryLimiter(limits),
		Events:         events.NopPublisher{},
		AllowRegister:  cfg.Auth.AllowRegister,
		AllowedOrigins: cfg.API.AllowedOrigins(),
		Logger:         logger,
	}
	checks := map[string]api.Pinger{"database": sqlDB, "storage": storageClient}

	var relayOpts []media.Option
	if cfg.Media.ClamdAddr != "" {
		relayOpts = append(relayOpts, media.WithScanner(media.NewClamdScanner(cfg.Media.ClamdAddr)))
		logger.Info("upload scanning enabled", slog.String("clamd_addr", cfg.Media.ClamdAddr))
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, using in-process limiter without live events", slog.Any("error", err))
		} else {
			deps.Limiter = throttle.NewRedisLimiter(redisClient, limits)
			deps.Events = events.NewRedisPublisher(redisClient)
			deps.Subscriber = events.NewRedisSubscriber(redisClient)
			checks["redis"] = redisPinger{client: redisClient}

			asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
			defer asynqClient.Close()
			relayOpts = append(relayOpts, media.WithQueue(asynqClient))
			log.Printf("redis ready at %s", cfg.Redis.Addr())
		}
	}
	deps.Relay = media.NewRelay(storageClient, logger, relayOpts...)

	if len(deps.AllowedOrigins) == 0 {
		logger.Warn("CLIENT_URLS is empty: every origin is allowed with credentials")
	}

	router := api.NewRouter(logger, deps.AllowedOrigins)
	if proxies := cfg.API.Proxies(); len(proxies) > 0 {
		if err := router.SetTrustedProxies(proxies); err != nil {
			log.Fatalf("trusted proxies: %v", err)
		}
	}
	api.RegisterHealth(router, checks)
	api.RegisterRoutes(router, deps)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
