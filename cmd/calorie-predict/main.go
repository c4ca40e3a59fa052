// Command calorie-predict prints one calorie and fat-loss estimate.
//
// Exit codes: 0 success, 1 artifact or configuration error, 2 invalid input.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/calorieburn/internal/artifact"
	"github.com/YuminosukeSato/calorieburn/internal/config"
	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/internal/predictor"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
)

const (
	exitOK           = 0
	exitLoadError    = 1
	exitInvalidInput = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("calorie-predict", flag.ContinueOnError)
	fs.SetOutput(stderr)

	def := features.DefaultBounds().DefaultInput()
	configPath := fs.String("config", "", "Path to the YAML configuration file (optional)")
	modelPath := fs.String("model", "", "Artifact path (overrides config)")
	gender := fs.String("gender", def.Gender, "male or female")
	age := fs.Float64("age", def.Age, "Age in years")
	height := fs.Float64("height", def.Height, "Height in cm")
	weight := fs.Float64("weight", def.Weight, "Weight in kg")
	workout := fs.String("workout", "", "Workout name, e.g. Running")
	duration := fs.Float64("duration", def.Duration, "Duration in minutes")
	heartRate := fs.Float64("heart-rate", def.HeartRate, "Heart rate in bpm")
	bodyTemp := fs.Float64("body-temp", def.BodyTemp, "Body temperature in °C")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitLoadError
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if err := log.SetupLogger(cfg.LogOptions()); err != nil {
		fmt.Fprintf(stderr, "Failed to set up logging: %v\n", err)
		return exitLoadError
	}

	bundle, err := artifact.Load(cfg.Model.Path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitLoadError
	}
	pred, err := predictor.FromBundle(bundle, predictor.WithBounds(cfg.Bounds))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitLoadError
	}

	est, err := pred.Predict(features.Input{
		Gender:      *gender,
		Age:         *age,
		Height:      *height,
		Weight:      *weight,
		WorkoutName: *workout,
		Duration:    *duration,
		HeartRate:   *heartRate,
		BodyTemp:    *bodyTemp,
	})
	if err != nil {
		var iie *errors.InvalidInputError
		if errors.As(err, &iie) {
			fmt.Fprintln(stderr, iie.Reason)
			return exitInvalidInput
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitLoadError
	}

	fmt.Fprintf(stdout, "Calories Burned: %s\n", est.CaloriesText())
	fmt.Fprintf(stdout, "Fat Loss: %s\n", est.FatLossText())
	if !est.KnownWorkout {
		fmt.Fprintf(stdout, "Note: %q was not in the training data; the estimate ignores the workout type.\n", *workout)
	}
	if msg := est.Encouragement(); msg != "" {
		fmt.Fprintln(stdout, msg)
	}
	return exitOK
}
