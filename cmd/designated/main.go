package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openstack/designate-sub004/internal/api"
	"github.com/openstack/designate-sub004/internal/central"
	"github.com/openstack/designate-sub004/internal/config"
	"github.com/openstack/designate-sub004/internal/lock"
	"github.com/openstack/designate-sub004/internal/logging"
	"github.com/openstack/designate-sub004/internal/notify"
	"github.com/openstack/designate-sub004/internal/quota"
	"github.com/openstack/designate-sub004/internal/storage"
	"github.com/openstack/designate-sub004/internal/worker"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to JSON configuration file (or set DESIGNATED_CONFIG)")
		host       = flag.String("host", "", "Override API bind host")
		port       = flag.Int("port", 0, "Override API bind port")
		dbPath     = flag.String("db", "", "Override database path")
		textLogs   = flag.Bool("text-logs", false, "Log in text format instead of JSON")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(config.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *host != "" {
		cfg.API.Host = *host
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *textLogs {
		cfg.Logging.Format = "text"
	}
	if *debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		IncludePID:  cfg.Logging.IncludePID,
		ExtraFields: cfg.Logging.ExtraFields,
	})

	storageTimeout, err := cfg.StorageTimeout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid storage timeout: %v\n", err)
		os.Exit(1)
	}
	db, err := storage.Open(cfg.Storage.Path, storageTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	locks := lock.NewLocalManager()
	sync := worker.NewSynchronizer(cfg, db, locks, logger)
	svc := central.NewService(cfg, db, locks,
		quota.NewEnforcer(cfg.Quota, db),
		&notify.LogNotifier{Logger: logger},
		sync, logger)
	server := api.New(cfg, svc, logger)

	logger.Info("designated starting",
		"addr", server.Addr(),
		"db", cfg.Storage.Path,
		"workers", cfg.Worker.Threads,
		"default_pool", cfg.DefaultPoolID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		sync.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "api server exited with error: %v\n", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", "error", err)
	}
	<-workersDone
}
