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
	"github.com/sirupsen/logrus"

	"toilet_finder/internal/config"
	"toilet_finder/internal/controllers"
	"toilet_finder/internal/logger"
	"toilet_finder/internal/middleware"
	"toilet_finder/internal/notify"
	"toilet_finder/internal/routes"
	"toilet_finder/internal/services"
	"toilet_finder/internal/store"
)

func main() {
	cfg := config.Load()

	// Initialize structured logging to file
	logOut := logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: cfg.LogStdout})

	gin.SetMode(cfg.GinMode)
	middleware.Configure(cfg.JWTSecret, cfg.JWTTTL)

	st, err := openStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open store")
	}

	hub := notify.NewHub()
	defer hub.Close()

	ctrl := controllers.New(st, hub, controllers.Options{
		DuplicateRadius:     cfg.DuplicateRadius,
		DefaultSearchRadius: cfg.DefaultSearchRadius,
	})
	router, limiter := routes.SetupRouter(routes.Deps{
		Controller:    ctrl,
		AuthRateLimit: cfg.AuthRateLimit,
		RequestLog:    logOut,
	})
	defer limiter.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.EnableCORS(cfg.CORSOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.Store}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shut down")
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Store != config.StorePostgres {
		mem := store.NewMemoryStore()
		if cfg.SeedDemo {
			if err := services.SeedDemoData(context.Background(), mem); err != nil {
				return nil, err
			}
		}
		logrus.Info("Using in-memory store")
		return mem, nil
	}

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	gs := store.NewGormStore(db)
	if err := gs.Migrate(); err != nil {
		return nil, err
	}
	return gs, nil
}
