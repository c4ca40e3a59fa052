// Package model_selection はデータ分割のユーティリティを提供する。
package model_selection

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/calorieburn/pkg/errors"
)

// TrainTestSplit は n 個のサンプル添字をシード付きでシャッフルし、
// 学習用とテスト用に分割する。
//
// テスト件数は scikit-learn と同じく ceil(n × testSize)。
// 同じ (n, testSize, seed) からは常に同じ分割が得られる。
//
// 使用例:
//
//	train, test, err := model_selection.TrainTestSplit(df.NRows(), 0.2, 42)
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, errors.NewValidationError("n_samples", "at least 2 samples are required to split", n)
	}
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in the open interval (0, 1)", testSize)
	}

	nTest := int(math.Ceil(float64(n) * testSize))
	nTrain := n - nTest
	if nTrain < 1 {
		return nil, nil, errors.NewValidationError("test_size",
			"resulting train set is empty; lower test_size or add samples", testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}
