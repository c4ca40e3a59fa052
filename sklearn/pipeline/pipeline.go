// Package pipeline は前処理と回帰モデルを1つの推定器にまとめる Pipeline を提供する。
package pipeline

import (
	"encoding/gob"
	"fmt"
	"time"

	"github.com/YuminosukeSato/calorieburn/core/dataframe"
	"github.com/YuminosukeSato/calorieburn/core/model"
	"github.com/YuminosukeSato/calorieburn/metrics"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&Pipeline{})
}

// Pipeline は Frame を受け取り、Preprocessor で数値行列へ変換してから Regressor に渡す。
// 学習と推論で同じ前処理が適用されることを保証する。
type Pipeline struct {
	model.BaseEstimator

	Preprocessor model.FrameTransformer
	Regressor    model.Regressor
}

// New は新しいPipelineを作成する
//
// 使用例:
//
//	p := pipeline.New(ct, ensemble.NewRandomForestRegressor(ensemble.WithRandomState(42)))
//	err := p.Fit(trainFrame, yTrain)
func New(pre model.FrameTransformer, reg model.Regressor) *Pipeline {
	return &Pipeline{Preprocessor: pre, Regressor: reg}
}

// Fit は前処理を学習し、変換後のデータで回帰モデルを学習する
func (p *Pipeline) Fit(df *dataframe.Frame, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Pipeline.Fit")

	if p.Preprocessor == nil || p.Regressor == nil {
		return errors.NewValidationError("pipeline", "both preprocessor and regressor are required", nil)
	}

	logger := log.GetLoggerWithName("pipeline")
	start := time.Now()

	X, err := p.Preprocessor.FitTransform(df)
	if err != nil {
		return errors.Wrap(err, "preprocessor")
	}
	if err := p.Regressor.Fit(X, y); err != nil {
		return errors.Wrap(err, "regressor")
	}
	p.SetFitted()

	_, c := X.Dims()
	logger.Info("pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, df.NRows(),
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は学習済みの前処理と回帰モデルで予測する (n×1)。再学習はしない。
func (p *Pipeline) Predict(df *dataframe.Frame) (mat.Matrix, error) {
	if err := p.RequireFitted("Pipeline", "Predict"); err != nil {
		return nil, err
	}
	X, err := p.Preprocessor.Transform(df)
	if err != nil {
		return nil, errors.Wrap(err, "preprocessor")
	}
	return p.Regressor.Predict(X)
}

// Evaluate はR²、MAE、RMSEを計算する
func (p *Pipeline) Evaluate(df *dataframe.Frame, y mat.Matrix) (metrics.Report, error) {
	pred, err := p.Predict(df)
	if err != nil {
		return metrics.Report{}, err
	}
	return metrics.Evaluate(y, pred)
}

// Score は決定係数R²を返す
func (p *Pipeline) Score(df *dataframe.Frame, y mat.Matrix) (float64, error) {
	report, err := p.Evaluate(df, y)
	if err != nil {
		return 0, err
	}
	return report.R2, nil
}

// FeatureNamesOut は回帰モデルに渡される列名を返す
func (p *Pipeline) FeatureNamesOut() []string {
	if p.Preprocessor == nil {
		return nil
	}
	return p.Preprocessor.FeatureNamesOut()
}

// GetParams は前処理と回帰モデルのパラメータを
// "preprocessor__..." と "regressor__..." の形でまとめて返す
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	model.NestedParams(params, "preprocessor", p.Preprocessor)
	model.NestedParams(params, "regressor", p.Regressor)
	return params
}

// String はPipelineの文字列表現を返す
func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(preprocessor=%v, regressor=%v)", p.Preprocessor, p.Regressor)
}
