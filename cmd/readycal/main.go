package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"readycal/internal/calendar"
	"readycal/internal/config"
	appLog "readycal/internal/log"
	"readycal/internal/source"
	"readycal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	cacheDir   string
	debug      bool
}

func main() {
	appLog.Info("readycal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"ics_count", len(conf.ICS),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	loader := source.NewLoader(conf, flags.cacheDir)
	controller := calendar.New(loader, conf.NutritionPlan.SoldierID)

	// Initial one-time merge. A failure inside degrades to an empty
	// calendar; the process still serves.
	controller.Load(ctx)

	// Optional periodic refresh.
	var scheduler *cron.Cron
	if conf.RefreshCron != "" {
		scheduler = cron.New()
		_, cronErr := scheduler.AddFunc(conf.RefreshCron, func() {
			appLog.Info("scheduled refresh starting")
			controller.Refresh(ctx)
		})
		if cronErr != nil {
			appLog.Error("invalid refresh cron expression; periodic refresh disabled", cronErr, "refresh", conf.RefreshCron)
		} else {
			scheduler.Start()
			defer scheduler.Stop()
		}
	}

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, controller).Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}

	appLog.Info("readycal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/readycal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "/var/lib/readycal/source-cache", "Directory for remote source cache")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
