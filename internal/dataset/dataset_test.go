package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
)

const exerciseCSV = `User_ID,Gender,Age,Height,Weight,Duration,Heart_Rate,Body_Temp,Workout_Type
1,male,68,190,94,29,105,40.8,Running
2,female,20,166,60,14,94,40.3,Yoga
3,male,69,179,79,5,88,38.7,Cycling
4,female,34,179,71,13,100,40.5,Running
`

// column order differs from the exercise file on purpose
const caloriesCSV = `Calories,User_ID
231,1
66,2
26,3
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_InnerJoin(t *testing.T) {
	dir := t.TempDir()
	ex := writeFile(t, dir, "exercise.csv", exerciseCSV)
	cal := writeFile(t, dir, "calories.csv", caloriesCSV)

	ds, err := Load(context.Background(), ex, cal)
	require.NoError(t, err)

	// User 4 has no calories row and is dropped
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []float64{231, 66, 26}, ds.Calories)
	assert.Equal(t, "Running", ds.Records[0].WorkoutType)
	assert.InDelta(t, 94/(1.9*1.9), ds.Records[0].BMI, 1e-12)
	assert.Equal(t, []string{"Cycling", "Running", "Yoga"}, ds.WorkoutOptions())

	df := ds.Frame([]int{2, 0})
	w, err := df.Categorical(features.ColWorkoutType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cycling", "Running"}, w)
	assert.Equal(t, []float64{26, 231}, ds.Target([]int{2, 0}))
}

func TestLoad_DuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	ex := writeFile(t, dir, "exercise.csv", exerciseCSV)
	cal := writeFile(t, dir, "calories.csv", "User_ID,Calories\n1,100\n1,200\n")

	ds, err := Load(context.Background(), ex, cal)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200}, ds.Calories)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	ex := writeFile(t, dir, "exercise.csv", exerciseCSV)
	cal := writeFile(t, dir, "calories.csv", caloriesCSV)

	tests := []struct {
		name     string
		exercise string
		calories string
	}{
		{"missing exercise file", filepath.Join(dir, "nope.csv"), cal},
		{"missing calories file", ex, filepath.Join(dir, "nope.csv")},
		{"missing column", writeFile(t, dir, "noworkout.csv",
			"User_ID,Gender,Age,Height,Weight,Duration,Heart_Rate,Body_Temp\n1,male,1,1,1,1,1,1\n"), cal},
		{"unparsable number", writeFile(t, dir, "badnum.csv",
			"User_ID,Gender,Age,Height,Weight,Duration,Heart_Rate,Body_Temp,Workout_Type\n1,male,old,190,94,29,105,40.8,Running\n"), cal},
		{"zero height", writeFile(t, dir, "zeroheight.csv",
			"User_ID,Gender,Age,Height,Weight,Duration,Heart_Rate,Body_Temp,Workout_Type\n1,male,30,0,94,29,105,40.8,Running\n"), cal},
		{"empty join", ex, writeFile(t, dir, "other.csv", "User_ID,Calories\n99,10\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.exercise, tt.calories)
			require.Error(t, err)
			var de *errors.DatasetError
			assert.True(t, errors.As(err, &de), "expected DatasetError, got %v", err)
		})
	}
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	ex := writeFile(t, dir, "exercise.csv", exerciseCSV)
	cal := writeFile(t, dir, "calories.csv", caloriesCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, ex, cal)
	assert.ErrorIs(t, err, context.Canceled)
}
