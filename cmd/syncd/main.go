// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkazmin/go-media-cache/internal/config"
	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/internal/notify"
	"github.com/pkazmin/go-media-cache/internal/provider"
	"github.com/pkazmin/go-media-cache/internal/schedule"
	"github.com/pkazmin/go-media-cache/internal/service"
	"github.com/pkazmin/go-media-cache/internal/store"
	"github.com/pkazmin/go-media-cache/internal/tracker"
	"github.com/pkazmin/go-media-cache/internal/worker"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const shutdownTimeout = 10 * time.Second

func main() {
	printBuildInfo()

	log := logger.NewLogger("media-cache-syncd")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	db, err := store.NewConnect(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to cache store")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error migrating cache store")
	}

	repos := store.NewRepositories(db, log)

	local, err := provider.NewHTTPClient(provider.HTTPClientConfig{
		Authority: cfg.Providers.LocalAuthority,
		BaseURL:   cfg.Providers.LocalBaseURL,
		Timeout:   cfg.Providers.RequestTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("error creating local provider client")
	}

	providers := provider.NewRegistry(local, log)

	if cfg.Providers.CloudAuthority != "" && cfg.Providers.CloudBaseURL != "" {
		cloud, cloudErr := provider.NewHTTPClient(provider.HTTPClientConfig{
			Authority: cfg.Providers.CloudAuthority,
			BaseURL:   cfg.Providers.CloudBaseURL,
			Timeout:   cfg.Providers.RequestTimeout,
		})
		if cloudErr != nil {
			log.Fatal().Err(cloudErr).Msg("error creating cloud provider client")
		}
		providers.SetCloudProvider(cloud)
	}

	trk := tracker.New(log)
	bus := notify.NewBus(log)
	workers := worker.New(repos, providers, trk, bus, cfg.Sync, log)

	device := schedule.NewDeviceState()
	queue := schedule.NewQueue(device, log)
	scheduler := schedule.NewScheduler(queue, trk, workers, cfg.Sync, log)

	coordinator := service.NewCoordinator(repos, providers, scheduler, workers, trk, bus, cfg, log)
	coordinator.Start()

	log.Info().Msg("media cache sync engine started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := queue.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("work queue did not drain before the deadline")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
