package model

import (
	"github.com/YuminosukeSato/calorieburn/core/dataframe"
	"gonum.org/v1/gonum/mat"
)

// Transformer は数値行列を変換するインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// FrameTransformer は列名付きのFrameを数値行列へ変換するインターフェース
// 数値列と文字列列が混在する表形式データの前処理に使う
type FrameTransformer interface {
	Fit(df *dataframe.Frame) error
	Transform(df *dataframe.Frame) (*mat.Dense, error)
	FitTransform(df *dataframe.Frame) (*mat.Dense, error)
	// FeatureNamesOut は変換後の各列の名前を返す
	FeatureNamesOut() []string
}
