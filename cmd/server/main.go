package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/config"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/db"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()
	log := config.NewLogger(cfg.Env)

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(log, cfg.DatabaseDSN); err != nil {
			log.WithError(err).Fatal("migrate-only failed")
		}
		log.Info("migrations completed; exiting as requested")
		return
	}

	dbConn, err := db.ConnectAndMigrate(log, cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	log.WithFields(logrus.Fields{"env": cfg.Env, "port": cfg.Port}).Info("starting server")

	handler := server.New(dbConn, server.Options{Log: log, UploadDir: cfg.UploadDir})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server gracefully stopped")
}
