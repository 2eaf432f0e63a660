package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/ai"
	"github.com/suPer8Hu/symptom-checker/internal/config"
	"github.com/suPer8Hu/symptom-checker/internal/db"
	"github.com/suPer8Hu/symptom-checker/internal/history"
	"github.com/suPer8Hu/symptom-checker/internal/httpapi"
	"github.com/suPer8Hu/symptom-checker/internal/httpapi/handlers"
	"github.com/suPer8Hu/symptom-checker/internal/logger"
	"github.com/suPer8Hu/symptom-checker/internal/store/rabbitmq"
	"github.com/suPer8Hu/symptom-checker/internal/store/redisstore"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
	"go.uber.org/zap"
)

var version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log := logger.New(cfg)
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.GinMode)

	gdb, err := db.Connect(cfg, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}

	ctx := context.Background()

	// optional read cache
	var cache history.Cache
	if cfg.RedisAddr != "" {
		rds, err := redisstore.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, history cache disabled", zap.Error(err))
		} else {
			defer rds.Close()
			cache = rds
		}
	}

	// optional retry queue for failed history writes
	var pub history.Publisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Warn("rabbitmq unavailable, failed history writes will not be queued", zap.Error(err))
		} else {
			defer p.Close()
			pub = p
		}
	}

	historySvc := history.NewService(history.NewRepo(gdb), cache, pub, cfg.HistoryCacheTTL, log.Named("history"))

	reg := ai.NewDefaultRegistry(cfg)
	providers, err := reg.Chain(ctx, cfg.ProviderChain())
	if err != nil {
		log.Fatal("build provider chain", zap.Error(err))
	}
	gw := symptom.NewGateway(providers, cfg.LLMCallTimeout, cfg.LLMTotalTimeout, log.Named("llm"))
	checkSvc := symptom.NewService(gw, historySvc, log.Named("check"))

	h := handlers.NewHandler(gdb, checkSvc, historySvc, log, version)
	router := httpapi.NewRouter(cfg, h, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.LLMTotalTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	log.Info("server listening",
		zap.String("port", cfg.Port),
		zap.Strings("providers", cfg.ProviderChain()),
		zap.String("db_driver", cfg.DBDriver),
	)
	waitForShutdown(server, log)
}

func waitForShutdown(server *http.Server, log *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
