// Package predictor turns validated form input into calorie and fat-loss
// estimates using a fitted pipeline.
package predictor

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/calorieburn/core/dataframe"
	"github.com/YuminosukeSato/calorieburn/internal/artifact"
	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
)

// FramePredictor is the part of a fitted pipeline the predictor needs.
type FramePredictor interface {
	Predict(df *dataframe.Frame) (mat.Matrix, error)
}

// Estimate is the result of one prediction.
type Estimate struct {
	Calories     float64
	FatLossGrams float64
	BMI          float64
	// KnownWorkout is false when the workout type was not seen in training;
	// its one-hot block was then encoded as all zeros.
	KnownWorkout bool
}

// CaloriesText formats calories as shown on the form.
func (e Estimate) CaloriesText() string { return fmt.Sprintf("%.0f kcal", e.Calories) }

// FatLossText formats fat loss as shown on the form.
func (e Estimate) FatLossText() string { return fmt.Sprintf("%.1f g", e.FatLossGrams) }

// Encouragement returns the success line shown under the result, or "" when
// there is no fat loss to report.
func (e Estimate) Encouragement() string {
	if e.FatLossGrams <= 0 {
		return ""
	}
	return fmt.Sprintf("Great job! That's equivalent to burning %.1f grams of pure body fat.", e.FatLossGrams)
}

// Predictor is an immutable handle over a fitted pipeline. It is safe for
// concurrent use.
type Predictor struct {
	model  FramePredictor
	bounds features.Bounds
	known  map[string]struct{}
	cache  *lru.Cache[features.Record, Estimate]
	logger log.Logger
}

// Option configures a Predictor.
type Option func(*Predictor) error

// WithBounds sets the input ranges. Defaults to features.DefaultBounds.
func WithBounds(b features.Bounds) Option {
	return func(p *Predictor) error {
		p.bounds = b
		return nil
	}
}

// WithWorkoutOptions sets the workout types seen in training, used to fill
// Estimate.KnownWorkout.
func WithWorkoutOptions(opts []string) Option {
	return func(p *Predictor) error {
		p.known = make(map[string]struct{}, len(opts))
		for _, o := range opts {
			p.known[o] = struct{}{}
		}
		return nil
	}
}

// WithCache memoizes up to size recent estimates. size <= 0 disables it.
func WithCache(size int) Option {
	return func(p *Predictor) error {
		if size <= 0 {
			p.cache = nil
			return nil
		}
		c, err := lru.New[features.Record, Estimate](size)
		if err != nil {
			return errors.Wrap(err, "create prediction cache")
		}
		p.cache = c
		return nil
	}
}

// New builds a Predictor over a fitted model.
func New(m FramePredictor, opts ...Option) (*Predictor, error) {
	if m == nil {
		return nil, errors.NewValueError("predictor.New", "model must not be nil")
	}
	p := &Predictor{
		model:  m,
		bounds: features.DefaultBounds(),
		logger: log.GetLoggerWithName("predictor"),
	}
	for _, o := range opts {
		if err := o(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FromBundle builds a Predictor from a loaded artifact.
func FromBundle(b *artifact.Bundle, opts ...Option) (*Predictor, error) {
	if b == nil || b.Pipeline == nil {
		return nil, errors.NewValueError("predictor.FromBundle", "bundle has no pipeline")
	}
	return New(b.Pipeline, append([]Option{WithWorkoutOptions(b.WorkoutOptions)}, opts...)...)
}

// Bounds returns the input ranges in use.
func (p *Predictor) Bounds() features.Bounds { return p.bounds }

// Predict validates in and returns the estimate. Invalid input is rejected
// with an InvalidInputError before the model is called.
func (p *Predictor) Predict(in features.Input) (Estimate, error) {
	rec, err := features.Prepare(in, p.bounds)
	if err != nil {
		return Estimate{}, err
	}

	if p.cache != nil {
		if est, ok := p.cache.Get(rec); ok {
			p.logger.Debug("estimate served from cache", log.CacheHitKey, true, log.WorkoutKey, rec.WorkoutType)
			return est, nil
		}
	}

	out, err := p.model.Predict(features.Frame([]features.Record{rec}))
	if err != nil {
		return Estimate{}, errors.Wrap(err, "predict calories")
	}
	calories := out.At(0, 0)

	est := Estimate{
		Calories:     calories,
		FatLossGrams: features.FatLossGrams(calories),
		BMI:          rec.BMI,
		KnownWorkout: p.isKnown(rec.WorkoutType),
	}
	if p.cache != nil {
		p.cache.Add(rec, est)
	}

	p.logger.Debug("estimate computed",
		log.OperationKey, log.OperationPredict,
		log.WorkoutKey, rec.WorkoutType,
		log.KnownWorkoutKey, est.KnownWorkout,
		log.CaloriesKey, est.Calories,
		log.FatLossKey, est.FatLossGrams,
	)
	return est, nil
}

func (p *Predictor) isKnown(workout string) bool {
	if p.known == nil {
		return true
	}
	_, ok := p.known[workout]
	return ok
}
