package preprocessing

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/calorieburn/core/model"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// 未知カテゴリの扱い
const (
	// HandleUnknownError は未知カテゴリを検出するとエラーを返す
	HandleUnknownError = "error"
	// HandleUnknownIgnore は未知カテゴリを全て0のベクトルとして符号化する
	HandleUnknownIgnore = "ignore"
)

// OneHotEncoder はscikit-learn互換のワンホットエンコーダー
//
// 各列のカテゴリは学習データに現れた値を辞書順に並べたもの。
// 変換後の列は (列0のカテゴリ..., 列1のカテゴリ..., ...) の順に並ぶ。
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories は列ごとの学習済みカテゴリ（ソート済み）
	Categories [][]string

	// NFeatures は入力列の数
	NFeatures int

	// HandleUnknown は "error" または "ignore" (デフォルト: "error")
	HandleUnknown string
}

// OneHotOption はOneHotEncoderの設定関数
type OneHotOption func(*OneHotEncoder)

// WithHandleUnknown は未知カテゴリの扱いを設定する
func WithHandleUnknown(policy string) OneHotOption {
	return func(e *OneHotEncoder) {
		e.HandleUnknown = policy
	}
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
//
// 使用例:
//
//	enc := preprocessing.NewOneHotEncoder(preprocessing.WithHandleUnknown("ignore"))
//	err := enc.Fit([][]string{{"male", "Running"}, {"female", "Yoga"}})
func NewOneHotEncoder(opts ...OneHotOption) *OneHotEncoder {
	e := &OneHotEncoder{HandleUnknown: HandleUnknownError}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *OneHotEncoder) validateParams() error {
	switch e.HandleUnknown {
	case HandleUnknownError, HandleUnknownIgnore:
		return nil
	default:
		return errors.NewValidationError("handle_unknown", `must be "error" or "ignore"`, e.HandleUnknown)
	}
}

// Fit は各列のカテゴリ語彙を学習する
//
// パラメータ:
//   - X: n_samples × n_features の文字列データ
func (e *OneHotEncoder) Fit(X [][]string) error {
	if err := e.validateParams(); err != nil {
		return err
	}
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	c := len(X[0])
	sets := make([]map[string]struct{}, c)
	for j := range sets {
		sets[j] = make(map[string]struct{})
	}
	for i, row := range X {
		if len(row) != c {
			return errors.NewDimensionError(fmt.Sprintf("OneHotEncoder.Fit(row %d)", i), c, len(row), 1)
		}
		for j, v := range row {
			sets[j][v] = struct{}{}
		}
	}

	e.NFeatures = c
	e.Categories = make([][]string, c)
	for j, set := range sets {
		cats := make([]string, 0, len(set))
		for v := range set {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}

	e.SetFitted()
	return nil
}

// NOutputs は変換後の列数を返す
func (e *OneHotEncoder) NOutputs() int {
	n := 0
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

// Transform は学習済みの語彙でワンホット符号化する
//
// 未知カテゴリは HandleUnknown="ignore" なら該当列のブロックが全て0になり、
// "error" なら ValidationError を返す。
func (e *OneHotEncoder) Transform(X [][]string) (*mat.Dense, error) {
	if err := e.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	offsets := make([]int, e.NFeatures)
	width := 0
	for j, cats := range e.Categories {
		offsets[j] = width
		width += len(cats)
	}

	result := mat.NewDense(len(X), width, nil)
	for i, row := range X {
		if len(row) != e.NFeatures {
			return nil, errors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, len(row), 1)
		}
		for j, v := range row {
			k, ok := e.index(j, v)
			if !ok {
				if e.HandleUnknown == HandleUnknownIgnore {
					continue
				}
				return nil, errors.Mark(
					errors.NewValidationError(fmt.Sprintf("column %d", j), "found unknown category during transform", v),
					errors.ErrUnknownCategory)
			}
			result.Set(i, offsets[j]+k, 1)
		}
	}
	return result, nil
}

// FitTransform は学習と変換を同時に実行する
func (e *OneHotEncoder) FitTransform(X [][]string) (*mat.Dense, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// Known は列jの語彙にvが含まれるかを返す
func (e *OneHotEncoder) Known(j int, v string) bool {
	if j < 0 || j >= len(e.Categories) {
		return false
	}
	_, ok := e.index(j, v)
	return ok
}

func (e *OneHotEncoder) index(j int, v string) (int, bool) {
	cats := e.Categories[j]
	k := sort.SearchStrings(cats, v)
	if k < len(cats) && cats[k] == v {
		return k, true
	}
	return 0, false
}

// FeatureNamesOut は "入力列名_カテゴリ" 形式の出力列名を返す
func (e *OneHotEncoder) FeatureNamesOut(inputNames []string) []string {
	out := make([]string, 0, e.NOutputs())
	for j, cats := range e.Categories {
		prefix := fmt.Sprintf("x%d", j)
		if j < len(inputNames) {
			prefix = inputNames[j]
		}
		for _, c := range cats {
			out = append(out, prefix+"_"+c)
		}
	}
	return out
}

// GetParams はエンコーダーのパラメータを取得する
func (e *OneHotEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"handle_unknown": e.HandleUnknown,
	}
}

// String はエンコーダーの文字列表現を返す
func (e *OneHotEncoder) String() string {
	if !e.IsFitted() {
		return fmt.Sprintf("OneHotEncoder(handle_unknown=%q)", e.HandleUnknown)
	}
	return fmt.Sprintf("OneHotEncoder(handle_unknown=%q, n_features=%d, n_outputs=%d)",
		e.HandleUnknown, e.NFeatures, e.NOutputs())
}
