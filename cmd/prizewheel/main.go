package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/abrezinsky/prizewheel/internal/app"
	"github.com/abrezinsky/prizewheel/internal/config"
	"github.com/abrezinsky/prizewheel/internal/logger"
)

var (
	version = "dev"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal("Failed to load configuration: ", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("prizewheel %s\n", version)
		os.Exit(0)
	}

	appLog := logger.NewWithOptions(logger.Options{
		Level: logger.ParseLevel(cfg.Log.Level),
		File:  cfg.Log.File,
		JSON:  cfg.Log.JSON,
	})
	defer appLog.Sync()

	if cfg.File != "" {
		appLog.Info("Loaded config file", "path", cfg.File)
	}

	a, err := app.New(appLog, cfg)
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.Info("Starting prizewheel", "version", version, "db", cfg.Database.Path, "port", cfg.Server.Port)
	if err := a.Run(ctx); err != nil {
		appLog.Error("Server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
	appLog.Info("Server stopped")
}
