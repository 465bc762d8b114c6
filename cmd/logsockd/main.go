package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"logsock/internal/collector"
	"logsock/internal/service/web"
	"logsock/internal/shared/config"
	"logsock/internal/shared/logger"
	"logsock/internal/shared/types"
	"logsock/internal/sink"
	"logsock/internal/store"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	flag.Parse()

	// Optional .env next to the binary; absence is not an error.
	_ = godotenv.Load()

	iniPath := filepath.Join(*configDir, "logsock.ini")

	cfg := new(types.Config)
	if _, err := os.Stat(iniPath); err == nil {
		if err := config.LoadIni(cfg, iniPath); err != nil {
			// Use standard fmt before logger is initialized.
			fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
			os.Exit(1)
		}
	} else {
		config.LoadDefaults(cfg)
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	stats := new(types.Stats)
	ring := store.NewRing(cfg.HistorySize)
	hub := web.NewHub()
	go hub.Run()

	server := collector.New(cfg, stats,
		sink.NewConsole(nil),
		sink.NewStore(ring),
		sink.NewHub(hub),
	)
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start collector.")
	}

	var wg sync.WaitGroup
	web.StartServer(&wg, cfg, web.NewHandler(cfg, stats, ring), hub)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("Shutting down.")

	if err := server.Close(); err != nil {
		logger.Error().Err(err).Msg("Error while closing collector.")
	}
}
