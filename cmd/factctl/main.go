// Command factctl is an interactive shell over one UI session: the list and
// detail screens driven from a terminal.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/zhangshi0512/FactsHub/infrastructure/config"
	"github.com/zhangshi0512/FactsHub/infrastructure/di"
)

func main() {
	var (
		configPath = flag.StringP("config", "c", os.Getenv("FACTSHUB_CONFIG"), "path to a YAML config file")
		backend    = flag.StringP("backend", "b", "", "remote store backend: supabase, dynamodb, sqlite or memory")
		logLevel   = flag.StringP("log-level", "l", "", "log level: debug, info, warn or error")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *backend != "" {
		cfg.Backend = config.Backend(*backend)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	} else if *configPath == "" && os.Getenv("FACTSHUB_LOG_LEVEL") == "" {
		cfg.Logging.Level = "warn"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	if container.CategoryWatcher != nil {
		go container.CategoryWatcher.Run(ctx)
	}

	session := container.SessionFactory.New(uuid.NewString())
	sh := newShell(session, container.Categories, os.Stdout)
	if err := sh.Run(ctx, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
