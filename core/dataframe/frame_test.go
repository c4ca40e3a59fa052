package dataframe

import (
	"testing"

	"github.com/YuminosukeSato/calorieburn/pkg/errors"
)

func newTestFrame(t *testing.T) *Frame {
	t.Helper()
	df := New(3)
	if err := df.AddCategorical("Workout_Type", []string{"Yoga", "Running", "Yoga"}); err != nil {
		t.Fatal(err)
	}
	if err := df.AddNumeric("Duration", []float64{30, 45, 60}); err != nil {
		t.Fatal(err)
	}
	return df
}

func TestFrame_AddAndRead(t *testing.T) {
	df := newTestFrame(t)

	if df.NRows() != 3 {
		t.Errorf("NRows() = %d, want 3", df.NRows())
	}
	cols := df.Columns()
	if len(cols) != 2 || cols[0] != "Workout_Type" || cols[1] != "Duration" {
		t.Errorf("Columns() = %v", cols)
	}
	if k, _ := df.KindOf("Duration"); k != Numeric {
		t.Errorf("KindOf(Duration) = %v", k)
	}

	d, err := df.Numeric("Duration")
	if err != nil || d[1] != 45 {
		t.Errorf("Numeric(Duration) = %v, %v", d, err)
	}
	if _, err := df.Numeric("Workout_Type"); err == nil {
		t.Error("Numeric() on a categorical column should fail")
	}
	if _, err := df.Categorical("Missing"); err == nil {
		t.Error("Categorical() on a missing column should fail")
	}
}

func TestFrame_AddErrors(t *testing.T) {
	df := newTestFrame(t)

	err := df.AddNumeric("Age", []float64{1, 2})
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError for short column, got %v", err)
	}
	if err := df.AddNumeric("Duration", []float64{1, 2, 3}); err == nil {
		t.Error("duplicate column should fail")
	}
}

func TestFrame_Take(t *testing.T) {
	df := newTestFrame(t)

	sub, err := df.Take([]int{2, 0})
	if err != nil {
		t.Fatalf("Take() error: %v", err)
	}
	w, _ := sub.Categorical("Workout_Type")
	d, _ := sub.Numeric("Duration")
	if sub.NRows() != 2 || w[0] != "Yoga" || d[0] != 60 || d[1] != 30 {
		t.Errorf("Take() gave workouts %v durations %v", w, d)
	}

	if _, err := df.Take([]int{3}); err == nil {
		t.Error("Take() with out-of-range index should fail")
	}
}

func TestFrame_NumericMatrixAndUnique(t *testing.T) {
	df := newTestFrame(t)

	m, err := df.NumericMatrix([]string{"Duration"})
	if err != nil {
		t.Fatalf("NumericMatrix() error: %v", err)
	}
	if r, c := m.Dims(); r != 3 || c != 1 || m.At(2, 0) != 60 {
		t.Errorf("unexpected matrix %v", m)
	}

	u, err := df.Unique("Workout_Type")
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 2 || u[0] != "Running" || u[1] != "Yoga" {
		t.Errorf("Unique() = %v", u)
	}
}
