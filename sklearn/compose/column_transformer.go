// Package compose は列ごとに異なる前処理を適用する ColumnTransformer を提供する。
package compose

import (
	"encoding/gob"
	"fmt"

	"github.com/YuminosukeSato/calorieburn/core/dataframe"
	"github.com/YuminosukeSato/calorieburn/core/model"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
	"github.com/YuminosukeSato/calorieburn/preprocessing"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&ColumnTransformer{})
	gob.Register(&preprocessing.StandardScaler{})
	gob.Register(&preprocessing.OneHotEncoder{})
}

// CategoricalTransformer は文字列列を数値行列へ変換する前処理器
type CategoricalTransformer interface {
	Fit(X [][]string) error
	Transform(X [][]string) (*mat.Dense, error)
}

// namedOutputs は入力列名から出力列名を作れる前処理器
type namedOutputs interface {
	FeatureNamesOut(inputNames []string) []string
}

// Step はColumnTransformerの1要素。
// Numeric と Categorical のどちらか一方だけを設定する。
type Step struct {
	Name        string
	Columns     []string
	Numeric     model.Transformer
	Categorical CategoricalTransformer
}

// NumericStep は数値列用のStepを作成する
func NumericStep(name string, t model.Transformer, columns ...string) Step {
	return Step{Name: name, Columns: columns, Numeric: t}
}

// CategoricalStep は文字列列用のStepを作成する
func CategoricalStep(name string, t CategoricalTransformer, columns ...string) Step {
	return Step{Name: name, Columns: columns, Categorical: t}
}

// ColumnTransformer はscikit-learnのColumnTransformer相当。
// 各Stepの出力を宣言順に横に連結する。どのStepにも含まれない列は捨てる (remainder="drop")。
type ColumnTransformer struct {
	model.BaseEstimator

	Steps []Step

	// OutputNames は学習時に確定した出力列名
	OutputNames []string
}

// NewColumnTransformer は新しいColumnTransformerを作成する
//
// 使用例:
//
//	ct := compose.NewColumnTransformer(
//		compose.NumericStep("num", preprocessing.NewStandardScalerDefault(), "Age", "Weight"),
//		compose.CategoricalStep("cat", preprocessing.NewOneHotEncoder(), "Gender"),
//	)
func NewColumnTransformer(steps ...Step) *ColumnTransformer {
	return &ColumnTransformer{Steps: steps}
}

func (ct *ColumnTransformer) validateSteps() error {
	if len(ct.Steps) == 0 {
		return errors.NewValidationError("steps", "at least one transformer is required", 0)
	}
	seen := make(map[string]bool, len(ct.Steps))
	for _, s := range ct.Steps {
		if seen[s.Name] {
			return errors.NewValidationError("steps", "duplicate transformer name", s.Name)
		}
		seen[s.Name] = true
		if len(s.Columns) == 0 {
			return errors.NewValidationError(s.Name, "no columns selected", s.Columns)
		}
		if (s.Numeric == nil) == (s.Categorical == nil) {
			return errors.NewValidationError(s.Name, "exactly one of Numeric or Categorical must be set", nil)
		}
	}
	return nil
}

// Fit は各Stepを対応する列で学習する
func (ct *ColumnTransformer) Fit(df *dataframe.Frame) (err error) {
	defer errors.Recover(&err, "ColumnTransformer.Fit")

	if err := ct.validateSteps(); err != nil {
		return err
	}
	if df.NRows() == 0 {
		return errors.NewModelError("ColumnTransformer.Fit", "empty data", errors.ErrEmptyData)
	}

	names := make([]string, 0)
	for _, s := range ct.Steps {
		if s.Numeric != nil {
			X, err := df.NumericMatrix(s.Columns)
			if err != nil {
				return errors.Wrapf(err, "transformer %q", s.Name)
			}
			if err := s.Numeric.Fit(X); err != nil {
				return errors.Wrapf(err, "transformer %q", s.Name)
			}
			names = append(names, s.Columns...)
			continue
		}

		X, err := stringRows(df, s.Columns)
		if err != nil {
			return errors.Wrapf(err, "transformer %q", s.Name)
		}
		if err := s.Categorical.Fit(X); err != nil {
			return errors.Wrapf(err, "transformer %q", s.Name)
		}
		if n, ok := s.Categorical.(namedOutputs); ok {
			names = append(names, n.FeatureNamesOut(s.Columns)...)
		} else {
			names = append(names, s.Columns...)
		}
	}

	ct.OutputNames = names
	ct.SetFitted()

	log.GetLoggerWithName("compose").Debug("column transformer fitted",
		log.SamplesKey, df.NRows(),
		log.FeaturesKey, len(names),
	)
	return nil
}

// Transform は学習済みの各Stepで変換し、結果を連結する
func (ct *ColumnTransformer) Transform(df *dataframe.Frame) (*mat.Dense, error) {
	if err := ct.RequireFitted("ColumnTransformer", "Transform"); err != nil {
		return nil, err
	}
	n := df.NRows()
	if n == 0 {
		return nil, errors.NewModelError("ColumnTransformer.Transform", "empty data", errors.ErrEmptyData)
	}

	blocks := make([]mat.Matrix, 0, len(ct.Steps))
	width := 0
	for _, s := range ct.Steps {
		var block mat.Matrix
		if s.Numeric != nil {
			X, err := df.NumericMatrix(s.Columns)
			if err != nil {
				return nil, errors.Wrapf(err, "transformer %q", s.Name)
			}
			block, err = s.Numeric.Transform(X)
			if err != nil {
				return nil, errors.Wrapf(err, "transformer %q", s.Name)
			}
		} else {
			X, err := stringRows(df, s.Columns)
			if err != nil {
				return nil, errors.Wrapf(err, "transformer %q", s.Name)
			}
			block, err = s.Categorical.Transform(X)
			if err != nil {
				return nil, errors.Wrapf(err, "transformer %q", s.Name)
			}
		}
		_, c := block.Dims()
		width += c
		blocks = append(blocks, block)
	}

	if width != len(ct.OutputNames) {
		return nil, errors.NewDimensionError("ColumnTransformer.Transform", len(ct.OutputNames), width, 1)
	}

	out := mat.NewDense(n, width, nil)
	offset := 0
	for _, b := range blocks {
		_, c := b.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < c; j++ {
				out.Set(i, offset+j, b.At(i, j))
			}
		}
		offset += c
	}
	return out, nil
}

// FitTransform は学習と変換を同時に実行する
func (ct *ColumnTransformer) FitTransform(df *dataframe.Frame) (*mat.Dense, error) {
	if err := ct.Fit(df); err != nil {
		return nil, err
	}
	return ct.Transform(df)
}

// FeatureNamesOut は変換後の列名を返す
func (ct *ColumnTransformer) FeatureNamesOut() []string {
	return append([]string(nil), ct.OutputNames...)
}

// InputColumns は変換に使う入力列名を宣言順に返す
func (ct *ColumnTransformer) InputColumns() []string {
	var cols []string
	for _, s := range ct.Steps {
		cols = append(cols, s.Columns...)
	}
	return cols
}

// GetParams は各ステップのパラメータを "ステップ名__パラメータ名" で返す
func (ct *ColumnTransformer) GetParams() map[string]interface{} {
	params := map[string]interface{}{"remainder": "drop"}
	for _, s := range ct.Steps {
		if s.Numeric != nil {
			model.NestedParams(params, s.Name, s.Numeric)
		} else {
			model.NestedParams(params, s.Name, s.Categorical)
		}
	}
	return params
}

// String はColumnTransformerの文字列表現を返す
func (ct *ColumnTransformer) String() string {
	return fmt.Sprintf("ColumnTransformer(n_transformers=%d, n_outputs=%d)", len(ct.Steps), len(ct.OutputNames))
}

func stringRows(df *dataframe.Frame, cols []string) ([][]string, error) {
	columns := make([][]string, len(cols))
	for j, name := range cols {
		v, err := df.Categorical(name)
		if err != nil {
			return nil, err
		}
		columns[j] = v
	}
	rows := make([][]string, df.NRows())
	for i := range rows {
		row := make([]string, len(cols))
		for j := range cols {
			row[j] = columns[j][i]
		}
		rows[i] = row
	}
	return rows, nil
}

var _ model.FrameTransformer = (*ColumnTransformer)(nil)
