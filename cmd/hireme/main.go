package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	authservice "hireme/internal/app/services/auth"
	chatservice "hireme/internal/app/services/chat"
	"hireme/internal/infra/broker/kafka"
	"hireme/internal/infra/config"
	ginserver "hireme/internal/infra/http/gin"
	"hireme/internal/infra/obs"
	"hireme/internal/infra/security"
	"hireme/internal/infra/storage/gormdb"
	"hireme/internal/infra/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("dev").Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	db, err := gormdb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("database open failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := gormdb.Close(db); err != nil {
			logger.Error("database close failed", "error", err)
		}
	}()
	if err := gormdb.AutoMigrate(db); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	uowFactory := gormdb.Factory{DB: db}
	tokens := security.JWTCodec{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}

	authSvc := &authservice.Service{
		UoWFactory: uowFactory,
		Passwords:  security.BcryptHasher{},
		Tokens:     tokens,
		Logger:     logger,
	}

	hub := ws.NewHub()
	notifiers := chatservice.MultiNotifier{&ws.Notifier{Hub: hub}}

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Warn("kafka unavailable, realtime fan-out only", "error", err)
		} else {
			notifiers = append(notifiers, &kafka.Notifier{
				Broker: producer,
				Topic:  cfg.KafkaTopic,
				Logger: logger,
			})
		}
	}
	defer func() {
		if producer != nil {
			if err := producer.Close(); err != nil {
				logger.Error("kafka close failed", "error", err)
			}
		}
	}()

	chatSvc := &chatservice.Service{
		UoWFactory: uowFactory,
		Notifier:   notifiers,
		Logger:     logger,
	}

	wsHandler := &ws.Handler{
		Hub:                hub,
		Tokens:             tokens,
		Chat:               chatSvc,
		Logger:             logger,
		InsecureSkipVerify: cfg.WSInsecureSkipVerify,
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	}, ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authSvc, Logger: logger},
		Chat:           ginserver.ChatHandler{Service: chatSvc, Logger: logger},
		WS:             wsHandler.Serve,
		AuthMiddleware: ginserver.AuthMiddleware{Service: authSvc, Logger: logger}.Handle,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}
