package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leadprep/internal/config"
	"leadprep/internal/crm"
	"leadprep/internal/logging"
	"leadprep/internal/pipeline"
	"leadprep/internal/server"
	"leadprep/internal/workbench"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = log.Sync() }()

	if cfg.CRMAPIKey == "" {
		log.Warn("GOHIGHLEVEL_API_KEY is not set; delivery requests will fail")
	}

	srv := server.New(cfg, workbench.NewStore(), pipeline.NewProcessingService(log), crm.NewClient(cfg, log), log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(srv.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
