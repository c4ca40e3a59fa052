// Package tree は CART 決定木による回帰を提供する。
package tree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/calorieburn/core/model"
	"github.com/YuminosukeSato/calorieburn/metrics"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// leafFeature は葉ノードを表す Feature の値
const leafFeature = -1

// Node は決定木の1ノード。
// 木は Nodes スライスに前順で格納され、子は添字で参照する（gobでそのまま保存できる）。
type Node struct {
	Feature   int     // 分割に使う特徴量。葉なら -1
	Threshold float64 // x[Feature] <= Threshold なら左
	Left      int
	Right     int
	Value     float64 // ノードに含まれるサンプルの平均
	NSamples  int
	Impurity  float64 // 二乗誤差（分散）
}

// IsLeaf は葉ノードかどうかを返す
func (n Node) IsLeaf() bool { return n.Feature == leafFeature }

// DecisionTreeRegressor はscikit-learn互換の回帰木 (criterion="squared_error")
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// ハイパーパラメータ
	MaxDepth        int   // 0 は制限なし
	MinSamplesSplit int   // 分割を試みる最小サンプル数
	MinSamplesLeaf  int   // 葉に必要な最小サンプル数
	MaxFeatures     int   // 0 は全特徴量、>0 なら各ノードでランダムに選ぶ特徴量の数
	RandomState     int64 // 特徴量サンプリングのシード

	// 学習結果
	Nodes               []Node
	NFeatures           int
	FeatureImportances []float64
	Depth               int
}

// Option は DecisionTreeRegressor の設定関数
type Option func(*DecisionTreeRegressor)

// WithMaxDepth は木の最大深さを設定する
func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }

// WithMinSamplesSplit は分割に必要な最小サンプル数を設定する
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定する
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures は各ノードで評価する特徴量数を設定する
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }

// WithRandomState は乱数シードを設定する
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor は新しい回帰木を作成する
//
// 使用例:
//
//	dt := tree.NewDecisionTreeRegressor(tree.WithMaxDepth(8), tree.WithRandomState(42))
//	err := dt.Fit(X, y)
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *DecisionTreeRegressor) validateParams() error {
	if t.MaxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be >= 0", t.MaxDepth)
	}
	if t.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be >= 2", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", t.MinSamplesLeaf)
	}
	if t.MaxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be >= 0", t.MaxFeatures)
	}
	return nil
}

// Fit は回帰木を学習する
//
// パラメータ:
//   - X: n_samples × n_features
//   - y: n_samples × 1
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	cols, target, err := ColumnsAndTarget("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	idx := make([]int, len(target))
	for i := range idx {
		idx[i] = i
	}
	return t.FitColumns(cols, target, idx)
}

// FitColumns は列優先のデータとサンプル添字から木を学習する。
// idx は重複を含んでよい（ブートストラップ標本）。cols と y は変更しない。
func (t *DecisionTreeRegressor) FitColumns(cols [][]float64, y []float64, idx []int) error {
	if err := t.validateParams(); err != nil {
		return err
	}
	if len(cols) == 0 || len(idx) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}

	b := &builder{
		tree:        t,
		cols:        cols,
		y:           y,
		rng:         rand.New(rand.NewSource(t.RandomState)),
		importances: make([]float64, len(cols)),
		order:       make([]int, len(idx)),
		scratch:     make([]int, len(idx)),
	}

	t.NFeatures = len(cols)
	t.Nodes = t.Nodes[:0]
	t.Depth = 0

	work := append([]int(nil), idx...)
	b.build(work, 0)

	total := 0.0
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for j := range b.importances {
			b.importances[j] /= total
		}
	}
	t.FeatureImportances = b.importances

	t.SetFitted()
	return nil
}

type builder struct {
	tree        *DecisionTreeRegressor
	cols        [][]float64
	y           []float64
	rng         *rand.Rand
	importances []float64
	order       []int
	scratch     []int
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// build は idx のサンプルでノードを作り、そのノードの添字を返す
func (b *builder) build(idx []int, depth int) int {
	t := b.tree
	n := len(idx)

	var sum, sumSq float64
	for _, i := range idx {
		v := b.y[i]
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	impurity := math.Max(sumSq/float64(n)-mean*mean, 0)

	if depth > t.Depth {
		t.Depth = depth
	}

	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Feature:  leafFeature,
		Left:     -1,
		Right:    -1,
		Value:    mean,
		NSamples: n,
		Impurity: impurity,
	})

	if n < t.MinSamplesSplit || n < 2*t.MinSamplesLeaf ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) || impurity <= 1e-12 {
		return id
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	// 左右に分配 (安定)
	left := b.scratch[:0]
	var right []int
	for _, i := range idx {
		if b.cols[best.feature][i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	nLeft := len(left)
	copy(idx, left)
	copy(idx[nLeft:], right)

	b.importances[best.feature] += best.gain

	l := b.build(idx[:nLeft], depth+1)
	r := b.build(idx[nLeft:], depth+1)

	node := &t.Nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r
	return id
}

// bestSplit は二乗誤差の減少量が最大になる分割を探す。
// 減少量 = sumL²/nL + sumR²/nR - sum²/n
func (b *builder) bestSplit(idx []int, sum float64) (split, bool) {
	t := b.tree
	n := len(idx)
	features := b.candidateFeatures()
	parent := sum * sum / float64(n)

	best := split{feature: -1}
	order := b.order[:n]
	for _, f := range features {
		col := b.cols[f]
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return col[order[a]] < col[order[c]] })

		if col[order[0]] == col[order[n-1]] {
			continue
		}

		var sumL float64
		for k := 0; k < n-1; k++ {
			sumL += b.y[order[k]]
			nL := k + 1
			nR := n - nL
			if nL < t.MinSamplesLeaf {
				continue
			}
			if nR < t.MinSamplesLeaf {
				break
			}
			lo, hi := col[order[k]], col[order[k+1]]
			if lo == hi {
				continue
			}
			sumR := sum - sumL
			gain := sumL*sumL/float64(nL) + sumR*sumR/float64(nR) - parent
			if gain > best.gain {
				threshold := lo + (hi-lo)/2
				// 中点が丸めで hi に一致した場合は lo を使う
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, gain: gain}
			}
		}
	}
	return best, best.feature >= 0 && best.gain > 1e-12
}

func (b *builder) candidateFeatures() []int {
	p := len(b.cols)
	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	k := b.tree.MaxFeatures
	if k <= 0 || k >= p {
		return features
	}
	// Fisher-Yates の先頭k個
	for i := 0; i < k; i++ {
		j := i + b.rng.Intn(p-i)
		features[i], features[j] = features[j], features[i]
	}
	return features[:k]
}

// Predict は各サンプルの予測値を n×1 行列で返す
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", t.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, t.PredictRow(row))
	}
	return out, nil
}

// PredictRow は1サンプルの予測値を返す。学習済みであることを前提とする。
func (t *DecisionTreeRegressor) PredictRow(row []float64) float64 {
	id := 0
	for {
		node := &t.Nodes[id]
		if node.IsLeaf() {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			id = node.Left
		} else {
			id = node.Right
		}
	}
}

// Score は決定係数R²を返す
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	report, err := metrics.Evaluate(y, pred)
	if err != nil {
		return 0, err
	}
	return report.R2, nil
}

// NLeaves は葉の数を返す
func (t *DecisionTreeRegressor) NLeaves() int {
	n := 0
	for _, node := range t.Nodes {
		if node.IsLeaf() {
			n++
		}
	}
	return n
}

// GetParams はハイパーパラメータを返す
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"max_features":      t.MaxFeatures,
		"random_state":      t.RandomState,
	}
}

// String は回帰木の文字列表現を返す
func (t *DecisionTreeRegressor) String() string {
	if !t.IsFitted() {
		return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d)", t.MaxDepth)
	}
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, depth=%d, n_leaves=%d)",
		t.MaxDepth, t.Depth, t.NLeaves())
}

// Columns は X を列優先のスライスに変換する
func Columns(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		col := make([]float64, r)
		mat.Col(col, j, X)
		cols[j] = col
	}
	return cols
}

// ColumnsAndTarget は Fit 用に X と y を検証し、列優先データと目的変数を返す
func ColumnsAndTarget(op string, X, y mat.Matrix) ([][]float64, []float64, error) {
	r, c := X.Dims()
	yr, yc := y.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if r != yr {
		return nil, nil, errors.NewDimensionError(op, r, yr, 0)
	}
	if yc != 1 {
		return nil, nil, errors.NewDimensionError(op, 1, yc, 1)
	}
	if err := errors.CheckMatrix(op, X); err != nil {
		return nil, nil, err
	}
	if err := errors.CheckMatrix(op, y); err != nil {
		return nil, nil, err
	}
	target := make([]float64, r)
	mat.Col(target, 0, y)
	return Columns(X), target, nil
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)
