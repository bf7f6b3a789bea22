package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"folio/internal/config"
	"folio/internal/events"
	"folio/internal/metrics"
	"folio/internal/storage"
	"folio/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if !cfg.Redis.Enabled {
		log.Fatal("worker requires redis, set REDIS_ENABLED=true")
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, Password: cfg.Redis.Password})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	if cfg.Worker.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.Worker.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
		defer metricsServer.Close()
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr, Password: cfg.Redis.Password}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      &asynqLogger{logger: logger},
	})

	handler := worker.NewMediaDeleteHandler(storageClient, events.NewRedisPublisher(redisClient), logger)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	// Run 会阻塞直到收到 SIGTERM/SIGINT，并等待进行中的任务结束。
	if err := server.Run(worker.NewServeMux(handler)); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}

// asynqLogger 将 asynq 的日志转到 slog。
type asynqLogger struct {
	logger *slog.Logger
}

func (l *asynqLogger) Debug(args ...any) { l.logger.Debug("asynq", slog.Any("msg", args)) }
func (l *asynqLogger) Info(args ...any)  { l.logger.Info("asynq", slog.Any("msg", args)) }
func (l *asynqLogger) Warn(args ...any)  { l.logger.Warn("asynq", slog.Any("msg", args)) }
func (l *asynqLogger) Error(args ...any) { l.logger.Error("asynq", slog.Any("msg", args)) }
func (l *asynqLogger) Fatal(args ...any) {
	l.logger.Error("asynq", slog.Any("msg", args))
	os.Exit(1)
}
