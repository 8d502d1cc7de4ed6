package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"visionix/internal/config"
	"visionix/internal/handlers"
	"visionix/internal/logger"
	"visionix/internal/metrics"
	"visionix/internal/middleware"
	"visionix/internal/poller"
	"visionix/internal/state"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "visionix",
		Short:         "Inspection host status and metrics agent",
		Long:          "Relays camera/HDMI/OCR/AC/DC inspection state and host resource readings to the equipment-management system via a Prometheus scrape endpoint and a small status-update API.",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := cfg.Load(cmd); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := state.NewStore()
	m := metrics.New(store, log)

	// 100 requests per minute per IP
	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/100), 10)
	router := handlers.NewRouter(store, m, log, limiter)

	srv := &http.Server{
		Addr:           ":" + strconv.Itoa(cfg.Port),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	var devicePoller *poller.Poller
	if cfg.Poll.Enabled {
		devicePoller = poller.New(
			store, log,
			poller.TargetsFromConfig(cfg.Devices),
			time.Duration(cfg.Poll.IntervalSeconds)*time.Second,
			time.Duration(cfg.Poll.TimeoutSeconds)*time.Second,
		)
		devicePoller.Start()
		log.Info("device poller started",
			zap.Int("interval_seconds", cfg.Poll.IntervalSeconds),
			zap.Int("devices", len(cfg.Devices)))
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		// Bind failure aborts before serving anything.
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	if devicePoller != nil {
		devicePoller.Stop()
	}
	limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
