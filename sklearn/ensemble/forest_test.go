package ensemble

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"testing"

	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// makeRegression は y = 3*x0 - 2*x1 + ノイズ のデータを作る
func makeRegression(n int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := rng.Float64() * 10
		x1 := rng.Float64() * 5
		x2 := rng.Float64() // ノイズ特徴量
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		X.Set(i, 2, x2)
		y.Set(i, 0, 3*x0-2*x1+rng.NormFloat64()*0.1)
	}
	return X, y
}

func TestRandomForestRegressor_FitPredict(t *testing.T) {
	X, y := makeRegression(300, 1)
	XTest, yTest := makeRegression(100, 2)

	rf := NewRandomForestRegressor(WithNEstimators(20), WithRandomState(42))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if len(rf.Trees) != 20 {
		t.Fatalf("len(Trees) = %d, want 20", len(rf.Trees))
	}

	score, err := rf.Score(XTest, yTest)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if score < 0.9 {
		t.Errorf("held-out R² = %v, want >= 0.9", score)
	}

	sum := 0.0
	for _, v := range rf.FeatureImportances {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("FeatureImportances sum = %v, want 1", sum)
	}
	if rf.FeatureImportances[2] > rf.FeatureImportances[0] {
		t.Errorf("noise feature more important than signal: %v", rf.FeatureImportances)
	}
}

// TestRandomForestRegressor_DeterministicAcrossNJobs tests that parallelism does not change the model
func TestRandomForestRegressor_DeterministicAcrossNJobs(t *testing.T) {
	X, y := makeRegression(150, 3)

	serial := NewRandomForestRegressor(WithNEstimators(10), WithRandomState(42), WithNJobs(1))
	parallel := NewRandomForestRegressor(WithNEstimators(10), WithRandomState(42), WithNJobs(4))
	if err := serial.Fit(X, y); err != nil {
		t.Fatalf("serial Fit() error: %v", err)
	}
	if err := parallel.Fit(X, y); err != nil {
		t.Fatalf("parallel Fit() error: %v", err)
	}

	p1, _ := serial.Predict(X)
	p2, _ := parallel.Predict(X)
	if !mat.Equal(p1, p2) {
		t.Error("predictions differ between NJobs=1 and NJobs=4")
	}

	again, _ := serial.Predict(X)
	if !mat.Equal(p1, again) {
		t.Error("repeated Predict() is not bit-identical")
	}

	other := NewRandomForestRegressor(WithNEstimators(10), WithRandomState(7))
	if err := other.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	p3, _ := other.Predict(X)
	if mat.Equal(p1, p3) {
		t.Error("different RandomState produced identical forests")
	}
}

func TestRandomForestRegressor_NoBootstrapSingleTree(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	rf := NewRandomForestRegressor(WithNEstimators(1), WithBootstrap(false))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	pred, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if !mat.Equal(pred, y) {
		t.Errorf("single unbootstrapped tree should memorize training data, got %v", mat.Formatted(pred.T()))
	}
}

func TestRandomForestRegressor_Errors(t *testing.T) {
	rf := NewRandomForestRegressor()
	_, err := rf.Predict(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	bad := NewRandomForestRegressor(WithNEstimators(0))
	var ve *errors.ValidationError
	if err := bad.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2})); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	leaf := NewRandomForestRegressor(WithNEstimators(2), WithMinSamplesLeaf(0))
	if err := leaf.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2})); err == nil {
		t.Error("invalid tree parameters should surface from Fit")
	}
}

func TestRandomForestRegressor_Gob(t *testing.T) {
	X, y := makeRegression(80, 5)
	rf := NewRandomForestRegressor(WithNEstimators(5), WithRandomState(42))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	var loaded RandomForestRegressor
	if err := gob.NewDecoder(&buf).Decode(&loaded); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	want, _ := rf.Predict(X)
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatalf("Predict() after decode error: %v", err)
	}
	if !mat.Equal(got, want) {
		t.Error("decoded forest predicts differently")
	}
}
