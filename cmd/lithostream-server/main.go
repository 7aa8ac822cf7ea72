// lithostream-server exposes lithophane generation over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AtaCanYmc/LithoStream/api"
	"github.com/AtaCanYmc/LithoStream/internal/config"
	"github.com/AtaCanYmc/LithoStream/internal/fsutil"
	"github.com/AtaCanYmc/LithoStream/internal/logger"
)

var configPath = flag.String("config", "", "Path to a YAML config file (defaults apply when omitted)")

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer zl.Sync()

	if err := fsutil.EnsureDir(cfg.Files.TempDir); err != nil {
		zl.Fatal("temp dir", zap.String("dir", cfg.Files.TempDir), zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.NewServer(cfg, zl).ServeMux(),
	}

	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zl.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}
