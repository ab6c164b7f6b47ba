package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/reactions/client/game"
	"github.com/cbodonnell/reactions/client/network"
	"github.com/cbodonnell/reactions/pkg/api"
	"github.com/cbodonnell/reactions/pkg/assets"
	"github.com/cbodonnell/reactions/pkg/cache"
	"github.com/cbodonnell/reactions/pkg/config"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/repositories"
	"github.com/cbodonnell/reactions/pkg/state"
	"github.com/cbodonnell/reactions/pkg/version"
	"github.com/cbodonnell/reactions/pkg/workers"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file")
	logLevel := flag.String("log-level", "", "Log level (overrides the config file)")
	serverURL := flag.String("server-url", "", "Authority URL (overrides the config file)")
	apiAddr := flag.String("api-addr", "", "Control API address (overrides the config file)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *apiAddr != "" {
		cfg.APIAddr = *apiAddr
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)
	log.Info("Starting client version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("Client exited with error: %v", err)
		os.Exit(1)
	}
	log.Info("Client stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	repository, err := repositories.Open(ctx, repositories.OpenOptions{
		Driver:    cfg.StoreDriver,
		DSN:       cfg.StoreDSN,
		Namespace: cfg.StoreNamespace,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repository.Close(closeCtx); err != nil {
			log.Error("Failed to close store: %v", err)
		}
	}()

	saved, loadErr := repository.Load(ctx)
	if loadErr != nil {
		log.Error("Failed to load persisted state: %v", loadErr)
	}

	saveWorker := workers.NewSaveWorker(workers.NewSaveWorkerOptions{
		Repository: repository,
	})

	installID, created := game.InstallID(saved)
	if created {
		log.Info("Generated install id %s", installID)
		saveWorker.Save(repositories.KeyInstallID, installID)
	}

	client, err := network.NewClient(network.NewClientOptions{
		ServerURL: cfg.ServerURL,
		Timeout:   cfg.RequestTimeout,
		InstallID: installID,
	})
	if err != nil {
		return fmt.Errorf("failed to create network client: %v", err)
	}
	defer client.Close()

	fs := afero.NewOsFs()
	fetcher := assets.NewFetcher(assets.NewFetcherOptions{
		Fs:         fs,
		HTTPClient: &http.Client{},
		CacheDir:   cfg.CacheDir,
	})
	observer := func(p assets.Progress) {
		log.Trace("Asset %d: %d/%d bytes", p.AssetID, p.BytesWritten, p.BytesExpected)
	}

	g := game.NewGame(game.NewGameOptions{
		Client:       client,
		Fetcher:      cache.NewAssetFetcher(fetcher, observer),
		Fs:           fs,
		Saver:        saveWorker,
		StateManager: state.NewInMemoryStateManager(),
	})
	g.Restore(saved, loadErr)

	scheduler := workers.NewScheduler(workers.NewSchedulerOptions{
		Runtime:           g,
		PollInterval:      cfg.PollInterval,
		CountdownInterval: cfg.CountdownInterval,
	})
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Addr:    cfg.APIAddr,
		Runtime: g,
	})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		saveWorker.Start(egCtx)
		return nil
	})
	eg.Go(func() error {
		return g.Start(egCtx)
	})
	eg.Go(func() error {
		scheduler.Start(egCtx)
		return nil
	})
	eg.Go(func() error {
		return apiServer.Start()
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return apiServer.Stop(shutdownCtx)
	})
	return eg.Wait()
}
