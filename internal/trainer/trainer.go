// Package trainer builds the calorie pipeline from the joined dataset,
// reports held-out quality and writes the artifact.
package trainer

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/calorieburn/internal/artifact"
	"github.com/YuminosukeSato/calorieburn/internal/config"
	"github.com/YuminosukeSato/calorieburn/internal/dataset"
	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/internal/report"
	"github.com/YuminosukeSato/calorieburn/metrics"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
	"github.com/YuminosukeSato/calorieburn/preprocessing"
	"github.com/YuminosukeSato/calorieburn/sklearn/compose"
	"github.com/YuminosukeSato/calorieburn/sklearn/ensemble"
	"github.com/YuminosukeSato/calorieburn/sklearn/model_selection"
	"github.com/YuminosukeSato/calorieburn/sklearn/pipeline"
)

// Result is the outcome of a training run.
type Result struct {
	Bundle *artifact.Bundle
	Report metrics.Report
}

// NewPipeline returns the unfitted pipeline: StandardScaler on the numerical
// columns, OneHotEncoder on the categorical ones, then a random forest.
func NewPipeline(tc config.TrainingConf) *pipeline.Pipeline {
	pre := compose.NewColumnTransformer(
		compose.NumericStep("num", preprocessing.NewStandardScalerDefault(), features.NumericalColumns()...),
		compose.CategoricalStep("cat",
			preprocessing.NewOneHotEncoder(preprocessing.WithHandleUnknown(tc.HandleUnknown)),
			features.CategoricalColumns()...),
	)
	rf := ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(tc.NEstimators),
		ensemble.WithRandomState(tc.RandomState),
		ensemble.WithMaxDepth(tc.MaxDepth),
		ensemble.WithNJobs(tc.NJobs),
	)
	return pipeline.New(pre, rf)
}

// Fit splits ds, fits a pipeline on the training part and scores the held-out
// part. Nothing is written to disk.
func Fit(ctx context.Context, ds *dataset.Dataset, tc config.TrainingConf) (*Result, *Holdout, error) {
	logger := log.GetLoggerWithName("trainer")

	train, test, err := model_selection.TrainTestSplit(ds.Len(), tc.TestSize, tc.SplitSeed)
	if err != nil {
		return nil, nil, errors.Wrap(err, "split dataset")
	}
	logger.Info("dataset split",
		log.OperationKey, log.OperationSplit,
		log.TrainSamplesKey, len(train),
		log.TestSamplesKey, len(test),
		log.TestSizeKey, tc.TestSize,
		log.RandomSeedKey, tc.SplitSeed,
	)
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "training cancelled")
	}

	p := NewPipeline(tc)
	logger.Info("pipeline configured",
		log.ModelNameKey, "Pipeline",
		log.ParamsKey, p.GetParams(),
	)
	yTrain := ds.Target(train)
	if err := p.Fit(ds.Frame(train), mat.NewDense(len(yTrain), 1, yTrain)); err != nil {
		return nil, nil, errors.Wrap(err, "fit pipeline")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "training cancelled")
	}

	yTest := ds.Target(test)
	pred, err := p.Predict(ds.Frame(test))
	if err != nil {
		return nil, nil, errors.Wrap(err, "predict held-out partition")
	}
	rep, err := metrics.Evaluate(mat.NewDense(len(yTest), 1, yTest), pred)
	if err != nil {
		return nil, nil, errors.Wrap(err, "score held-out partition")
	}

	md := artifact.NewMetadata()
	md.NTrainSamples = len(train)
	md.NTestSamples = len(test)
	md.R2, md.MAE, md.RMSE = rep.R2, rep.MAE, rep.RMSE
	md.NEstimators = tc.NEstimators
	md.RandomState = tc.RandomState
	md.Features = p.FeatureNamesOut()

	logger.Info("held-out evaluation",
		log.PhaseKey, log.PhaseValidation,
		log.RunIDKey, md.RunID,
		log.R2ScoreKey, rep.R2,
		log.MAEKey, rep.MAE,
		log.RMSEKey, rep.RMSE,
	)

	holdout := &Holdout{Actual: yTest, Predicted: mat.Col(nil, 0, pred)}
	return &Result{
		Bundle: &artifact.Bundle{
			Pipeline:       p,
			WorkoutOptions: ds.WorkoutOptions(),
			Metadata:       md,
		},
		Report: rep,
	}, holdout, nil
}

// Holdout holds the held-out labels and predictions.
type Holdout struct {
	Actual    []float64
	Predicted []float64
}

// Run is the full batch: load, fit, score, save and optionally plot.
// Any error aborts the run before the artifact is written.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	logger := log.GetLoggerWithName("trainer")
	start := time.Now()

	ds, err := dataset.Load(ctx, cfg.Data.ExercisePath, cfg.Data.CaloriesPath)
	if err != nil {
		return nil, err
	}

	res, holdout, err := Fit(ctx, ds, cfg.Training)
	if err != nil {
		return nil, err
	}

	if cfg.Model.PlotPath != "" {
		title := "Held-out calories (R² " + report.FormatScore(res.Report.R2) + ")"
		if err := report.ParityPlot(cfg.Model.PlotPath, title, holdout.Actual, holdout.Predicted); err != nil {
			return nil, errors.Wrap(err, "write parity plot")
		}
	}

	if err := artifact.Save(cfg.Model.Path, res.Bundle); err != nil {
		return nil, err
	}

	logger.Info("training finished",
		log.ArtifactPathKey, cfg.Model.Path,
		log.RunIDKey, res.Bundle.Metadata.RunID,
		log.CategoriesKey, len(res.Bundle.WorkoutOptions),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}
