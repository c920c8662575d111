// cmd/sniper/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/logger"
	"github.com/rovshanmuradov/raydium-sniper/internal/sniping"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, cleanup, err := logger.New(logger.Options{
		Debug:      cfg.DebugLogging,
		LogFile:    cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxAge:     cfg.LogMaxAge,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// Graceful shutdown по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := sniping.NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize sniper", zap.Error(err))
		cleanup()
		os.Exit(1)
	}

	if err := rt.Run(ctx); err != nil {
		log.Error("Sniper stopped with error", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}
