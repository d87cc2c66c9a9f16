package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/routes"
	log "github.com/sirupsen/logrus"
)

func init() {
	initializers.LoadEnv()
	initializers.InitLogger()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
	initializers.ConnectToRedis()
	initializers.InitUploader()
	initializers.InitMailer()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              ":" + initializers.Cfg.Port,
		Handler:           routes.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", initializers.Cfg.Port).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	if err := initializers.Cache.Close(); err != nil {
		log.WithError(err).Warn("Error closing cache")
	}
	if sqlDB, err := initializers.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
