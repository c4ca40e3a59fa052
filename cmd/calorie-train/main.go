// Command calorie-train builds the calorie pipeline from exercise.csv and
// calories.csv and writes the artifact used by calorie-web and calorie-predict.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/calorieburn/internal/config"
	"github.com/YuminosukeSato/calorieburn/internal/trainer"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file (optional)")
	exercise := flag.String("exercise", "", "Path to exercise.csv (overrides config)")
	calories := flag.String("calories", "", "Path to calories.csv (overrides config)")
	out := flag.String("out", "", "Artifact output path (overrides config)")
	plot := flag.String("plot", "", "Write a held-out parity plot to this path (png/svg/pdf)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *exercise != "" {
		cfg.Data.ExercisePath = *exercise
	}
	if *calories != "" {
		cfg.Data.CaloriesPath = *calories
	}
	if *out != "" {
		cfg.Model.Path = *out
	}
	if *plot != "" {
		cfg.Model.PlotPath = *plot
	}

	if err := log.SetupLogger(cfg.LogOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLoggerWithName("calorie-train")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := trainer.Run(ctx, cfg)
	if err != nil {
		logger.Error("training failed", err)
		os.Exit(1)
	}

	fmt.Printf("R2 Score: %.6f\n", res.Report.R2)
	fmt.Printf("Model saved as '%s'\n", cfg.Model.Path)
}
