package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/config"
	"github.com/veslo-ai/textlab/internal/db"
	"github.com/veslo-ai/textlab/internal/httpapi"
	"github.com/veslo-ai/textlab/internal/store/rabbitmq"
	"github.com/veslo-ai/textlab/internal/store/redisstore"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()
	gdb := db.Connect(cfg.DBDriver, cfg.DBDSN)

	cat, err := catalog.Load(gdb, cfg.AnalyzeTypesFile, cfg.TranslationModelsFile)
	if err != nil {
		log.Error("catalog load failed", "err", err)
		os.Exit(1)
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rds.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, rate limiting disabled", "err", err)
		rds = nil
	}
	cancelPing()

	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Warn("rabbit unavailable, async jobs disabled", "err", err)
		rabbit = nil
	} else {
		defer rabbit.Close()
	}

	router := httpapi.NewRouter(gdb, cfg, cat, rds, rabbit, log)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
