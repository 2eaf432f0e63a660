package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/symptom-checker/internal/config"
	"github.com/suPer8Hu/symptom-checker/internal/db"
	"github.com/suPer8Hu/symptom-checker/internal/history"
	"github.com/suPer8Hu/symptom-checker/internal/logger"
	"github.com/suPer8Hu/symptom-checker/internal/store/rabbitmq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log := logger.New(cfg).Named("worker")
	defer func() { _ = log.Sync() }()

	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required for the worker")
	}

	gdb, err := db.Connect(cfg, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}

	// the worker writes straight to the database; no cache or queue of its own
	svc := history.NewService(history.NewRepo(gdb), nil, nil, cfg.HistoryCacheTTL, log)

	retry := rabbitmq.RetryPolicy{MaxAttempts: cfg.WorkerMaxAttempts, Delay: cfg.WorkerRetryDelay}
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerConcurrency, retry, log)
	if err != nil {
		log.Fatal("rabbit consumer", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx, pendingHandler(svc, log)); err != nil {
		log.Error("consumer stopped", zap.Error(err))
	}
	log.Info("worker shut down")
}

func pendingHandler(svc *history.Service, log *zap.Logger) rabbitmq.Handler {
	return func(ctx context.Context, body []byte) error {
		start := time.Now()
		rec, err := svc.HandlePending(ctx, body)
		if errors.Is(err, history.ErrInvalidPending) {
			return rabbitmq.Permanent(err)
		}
		if err != nil {
			return err
		}
		log.Info("pending record stored",
			zap.Uint64("id", rec.ID),
			zap.String("request_id", rec.RequestID),
			zap.Duration("cost", time.Since(start)),
		)
		return nil
	}
}
