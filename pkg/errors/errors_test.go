package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "empty data",
			err:     fmt.Errorf("test error"),
			wantMsg: "calorieburn: Fit: empty data: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "calorieburn: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 9, 8, 1)

	want := "calorieburn: Predict: dimension mismatch on axis 1 (features). Expected 9, got 8"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("RandomForestRegressor", "Predict")

	var nfErr *NotFittedError
	if !As(err, &nfErr) {
		t.Fatal("Error should be castable to *NotFittedError")
	}
	if nfErr.ModelName != "RandomForestRegressor" || nfErr.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nfErr)
	}
}

func TestInvalidInputError(t *testing.T) {
	err := NewInvalidInputError("workout_name", "Please enter a workout name.", "")

	if !IsInvalidInput(err) {
		t.Fatal("IsInvalidInput() = false, want true")
	}
	if IsArtifactLoad(err) {
		t.Error("IsArtifactLoad() = true, want false")
	}

	wrapped := Wrap(err, "predict")
	var inErr *InvalidInputError
	if !As(wrapped, &inErr) {
		t.Fatal("wrapped error should still be castable to *InvalidInputError")
	}
	if inErr.Field != "workout_name" {
		t.Errorf("Field = %q, want workout_name", inErr.Field)
	}
}

func TestArtifactLoadError(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := NewArtifactLoadError("rf_model.gob", "corrupt artifact", cause)

	if !IsArtifactLoad(err) {
		t.Fatal("IsArtifactLoad() = false, want true")
	}
	if !Is(err, cause) {
		t.Error("ArtifactLoadError should unwrap to its cause")
	}
	want := `calorieburn: cannot load artifact "rf_model.gob": corrupt artifact: unexpected EOF`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestDatasetError(t *testing.T) {
	err := NewDatasetError("calories.csv", "join produced zero rows", nil)

	var dsErr *DatasetError
	if !As(err, &dsErr) {
		t.Fatal("Error should be castable to *DatasetError")
	}
	if !strings.Contains(err.Error(), "join produced zero rows") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "load %s", "exercise.csv")

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Wrapped error should match ErrEmptyData")
	}
	if !strings.HasPrefix(wrapped.Error(), "load exercise.csv") {
		t.Errorf("unexpected message: %v", wrapped)
	}
}

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if err := CheckMatrix("ok", ok); err != nil {
		t.Errorf("CheckMatrix() unexpected error: %v", err)
	}

	bad := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, math.Inf(1)})
	err := CheckMatrix("bad", bad)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if len(numErr.Values) != 2 {
		t.Errorf("expected 2 unstable values, got %d", len(numErr.Values))
	}

	if err := CheckScalar("scalar", math.NaN()); err == nil {
		t.Error("CheckScalar(NaN) should fail")
	}
}

func TestWarnUsesHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	w := NewUndefinedMetricWarning("r2_score", "constant y_true", 0)
	Warn(w)
	if got != w {
		t.Errorf("handler received %v, want %v", got, w)
	}
}
