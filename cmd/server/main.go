package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/janisto/subscriber-pipeline/internal/app"
	"github.com/janisto/subscriber-pipeline/internal/config"
	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.LogError(context.Background(), "configuration error", err)
		return 1
	}
	if cfg.Version == "dev" {
		cfg.Version = Version
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	pipeline, err := app.New(initCtx, cfg)
	cancelInit()
	if err != nil {
		applog.LogError(context.Background(), "pipeline init failed", err)
		return 1
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           pipeline.Handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		// Campaigns send sequentially within one request.
		WriteTimeout:   5 * time.Minute,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 64 << 10, // 64 KB
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	code := serve(srv, stop)

	if err := pipeline.Close(); err != nil {
		applog.LogError(context.Background(), "pipeline close error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
	return code
}

// serve runs srv until it fails or stop fires, then shuts it down.
func serve(srv *http.Server, stop <-chan os.Signal) int {
	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	code := 0
	select {
	case err := <-listenErr:
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		code = 1
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		applog.LogError(ctx, "server shutdown error", err)
	}
	return code
}
