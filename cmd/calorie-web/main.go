// Command calorie-web serves the prediction form on a local address.
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

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/calorieburn/internal/artifact"
	"github.com/YuminosukeSato/calorieburn/internal/config"
	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/internal/predictor"
	"github.com/YuminosukeSato/calorieburn/internal/web"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file (optional)")
	modelPath := flag.String("model", "", "Artifact path (overrides config)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	if err := log.SetupLogger(cfg.LogOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLoggerWithName("calorie-web")

	// 学習済みモデルが無ければ入力を受け付ける前に終了する
	bundle, err := artifact.Load(cfg.Model.Path)
	if err != nil {
		logger.Error("cannot start without a trained artifact", err,
			log.ArtifactPathKey, cfg.Model.Path,
			log.ErrorCodeKey, log.ErrorArtifactLoad,
		)
		os.Exit(1)
	}

	pred, err := predictor.FromBundle(bundle,
		predictor.WithBounds(cfg.Bounds),
		predictor.WithCache(cfg.Web.CacheSize),
	)
	if err != nil {
		logger.Error("cannot build predictor", err)
		os.Exit(1)
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           web.NewServer(pred, features.DefaultCatalog(), bundle.WorkoutOptions).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("serving prediction form",
			"http.addr", cfg.Web.Addr,
			log.RunIDKey, bundle.Metadata.RunID,
			log.R2ScoreKey, bundle.Metadata.R2,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", err)
	}
}
