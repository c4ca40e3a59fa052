// Package ensemble はバギングによる回帰木のアンサンブルを提供する。
package ensemble

import (
	"encoding/gob"
	"fmt"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/calorieburn/core/model"
	"github.com/YuminosukeSato/calorieburn/core/parallel"
	"github.com/YuminosukeSato/calorieburn/metrics"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
	"github.com/YuminosukeSato/calorieburn/sklearn/tree"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&RandomForestRegressor{})
}

// RandomForestRegressor はscikit-learn互換のランダムフォレスト回帰
//
// 各木は RandomState+i をシードとするブートストラップ標本で学習する。
// シードは木の添字だけで決まるので、並列度によらず結果は同一になる。
type RandomForestRegressor struct {
	model.BaseEstimator

	// ハイパーパラメータ
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 は全特徴量 (scikit-learnの回帰のデフォルト 1.0 と同じ)
	Bootstrap       bool
	RandomState     int64
	NJobs           int // 学習時の並列数。0以下ならCPUコア数

	// 学習結果
	Trees              []*tree.DecisionTreeRegressor
	NFeatures          int
	FeatureImportances []float64
}

// ForestOption は RandomForestRegressor の設定関数
type ForestOption func(*RandomForestRegressor)

// WithNEstimators は木の本数を設定する
func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}

// WithMaxDepth は各木の最大深さを設定する
func WithMaxDepth(d int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}

// WithMinSamplesSplit は分割に必要な最小サンプル数を設定する
func WithMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定する
func WithMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}

// WithMaxFeatures は各ノードで評価する特徴量数を設定する
func WithMaxFeatures(k int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = k }
}

// WithBootstrap はブートストラップ標本を使うかを設定する
func WithBootstrap(b bool) ForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}

// WithRandomState は乱数シードを設定する
func WithRandomState(seed int64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

// WithNJobs は学習の並列数を設定する
func WithNJobs(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.NJobs = n }
}

// NewRandomForestRegressor は新しいランダムフォレスト回帰を作成する
//
// 使用例:
//
//	rf := ensemble.NewRandomForestRegressor(
//		ensemble.WithNEstimators(100),
//		ensemble.WithRandomState(42),
//	)
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit は全ての木を学習する
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	if rf.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", rf.NEstimators)
	}
	cols, target, err := tree.ColumnsAndTarget("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "RandomForestRegressor")
	start := time.Now()
	n := len(target)

	trees := make([]*tree.DecisionTreeRegressor, rf.NEstimators)
	errs := make([]error, rf.NEstimators)

	parallel.ParallelizeWorkers(rf.NEstimators, rf.NJobs, func(s, e int) {
		for i := s; i < e; i++ {
			seed := rf.RandomState + int64(i)
			idx := make([]int, n)
			if rf.Bootstrap {
				rng := rand.New(rand.NewSource(seed))
				for j := range idx {
					idx[j] = rng.Intn(n)
				}
			} else {
				for j := range idx {
					idx[j] = j
				}
			}

			t := tree.NewDecisionTreeRegressor(
				tree.WithMaxDepth(rf.MaxDepth),
				tree.WithMinSamplesSplit(rf.MinSamplesSplit),
				tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
				tree.WithMaxFeatures(rf.MaxFeatures),
				tree.WithRandomState(seed),
			)
			// ワーカー内のpanicは呼び出し側のRecoverに届かないのでここで捕まえる
			err := errors.SafeExecute("RandomForestRegressor.fitTree", func() error {
				return t.FitColumns(cols, target, idx)
			})
			if err != nil {
				errs[i] = errors.Wrapf(err, "tree %d", i)
				continue
			}
			trees[i] = t
		}
	})

	for _, e := range errs {
		if e != nil {
			return e
		}
	}

	rf.Trees = trees
	rf.NFeatures = len(cols)
	rf.FeatureImportances = make([]float64, len(cols))
	for _, t := range trees {
		for j, v := range t.FeatureImportances {
			rf.FeatureImportances[j] += v / float64(len(trees))
		}
	}
	rf.SetFitted()

	logger.Info("forest fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, len(cols),
		log.NEstimatorsKey, rf.NEstimators,
		log.RandomSeedKey, rf.RandomState,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は全ての木の予測値の平均を n×1 行列で返す
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.RequireFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != rf.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", rf.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		// 木の順に加算するので結果はビット単位で再現する
		sum := 0.0
		for _, t := range rf.Trees {
			sum += t.PredictRow(row)
		}
		out.Set(i, 0, sum/float64(len(rf.Trees)))
	}
	return out, nil
}

// Score は決定係数R²を返す
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	report, err := metrics.Evaluate(y, pred)
	if err != nil {
		return 0, err
	}
	return report.R2, nil
}

// GetParams はハイパーパラメータを返す
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
		"bootstrap":         rf.Bootstrap,
		"random_state":      rf.RandomState,
		"n_jobs":            rf.NJobs,
	}
}

// String はランダムフォレストの文字列表現を返す
func (rf *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, random_state=%d, fitted=%t)",
		rf.NEstimators, rf.RandomState, rf.IsFitted())
}

var _ model.Regressor = (*RandomForestRegressor)(nil)
