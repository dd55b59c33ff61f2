package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ormasrl/tenderdesk/internal/auth"
	"github.com/ormasrl/tenderdesk/internal/clock"
	"github.com/ormasrl/tenderdesk/internal/config"
	"github.com/ormasrl/tenderdesk/internal/db"
	"github.com/ormasrl/tenderdesk/internal/excel"
	httphandler "github.com/ormasrl/tenderdesk/internal/http"
	"github.com/ormasrl/tenderdesk/internal/http/middleware"
	"github.com/ormasrl/tenderdesk/internal/logger"
	"github.com/ormasrl/tenderdesk/internal/notify"
	"github.com/ormasrl/tenderdesk/internal/pdf"
	"github.com/ormasrl/tenderdesk/internal/repository"
	"github.com/ormasrl/tenderdesk/internal/service"
	"github.com/ormasrl/tenderdesk/internal/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	clk := clock.System()
	tenderRepo := repository.NewTenderRepository(database)
	registryRepo := repository.NewRegistryRepository(database)
	bookingRepo := repository.NewBookingRepository(database)

	notifier := notify.NewLogDispatcher(log)

	tenderService := service.NewTenderService(tenderRepo)
	registryService := service.NewRegistryService(
		registryRepo,
		notifier,
		excel.NewGenerator(),
		pdf.NewGenerator(),
		clk,
	)
	bookingService := service.NewBookingService(bookingRepo, clk, cfg.Booking.LookbackDays)

	runner := sweep.NewRunner(registryRepo, tenderRepo, notifier, log)

	if cfg.Sweep.Enabled {
		go runSweepLoop(runner, clk, cfg.Sweep.Interval, log)
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(tenderService, registryService, bookingService, runner, clk, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting tenderdesk service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// runSweepLoop drives the re-evaluation pass on a fixed cadence. Overlap
// with a manually triggered run is safe; the sweep is idempotent and every
// write is version-guarded.
func runSweepLoop(runner *sweep.Runner, clk clock.Clock, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := runner.RunOnce(context.Background(), clk.Now()); err != nil {
			log.Error().Err(err).Msg("sweep run failed")
		}
	}
}
