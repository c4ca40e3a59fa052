package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/calorieburn/pkg/errors"
)

func validInput() Input {
	in := DefaultBounds().DefaultInput()
	in.WorkoutName = "Running"
	return in
}

func TestBMI(t *testing.T) {
	bmi, err := BMI(70, 170)
	require.NoError(t, err)
	assert.InDelta(t, 24.22, bmi, 0.005)

	// weight / (height/100)^2 の恒等式
	for _, tc := range []struct{ w, h float64 }{{30, 100}, {200, 250}, {82.5, 181}} {
		got, err := BMI(tc.w, tc.h)
		require.NoError(t, err)
		assert.InDelta(t, tc.w/math.Pow(tc.h/100, 2), got, 1e-12)
	}

	for _, tc := range []struct {
		name string
		w, h float64
	}{
		{"zero height", 70, 0},
		{"negative weight", -1, 170},
		{"NaN height", 70, math.NaN()},
		{"Inf weight", math.Inf(1), 170},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BMI(tc.w, tc.h)
			assert.True(t, errors.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestFatLossGrams(t *testing.T) {
	assert.Equal(t, 0.0, FatLossGrams(0))
	assert.InDelta(t, 1000.0, FatLossGrams(7700), 1e-9)
	assert.InDelta(t, 38.96, FatLossGrams(300), 0.005)
}

func TestValidate(t *testing.T) {
	b := DefaultBounds()
	require.NoError(t, Validate(validInput(), b))

	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"empty workout", func(in *Input) { in.WorkoutName = "" }, "workout_name"},
		{"whitespace workout", func(in *Input) { in.WorkoutName = "   " }, "workout_name"},
		{"unknown gender", func(in *Input) { in.Gender = "other" }, "gender"},
		{"age too low", func(in *Input) { in.Age = 9 }, "age"},
		{"height too high", func(in *Input) { in.Height = 251 }, "height"},
		{"weight NaN", func(in *Input) { in.Weight = math.NaN() }, "weight"},
		{"duration zero", func(in *Input) { in.Duration = 0 }, "duration"},
		{"heart rate too high", func(in *Input) { in.HeartRate = 221 }, "heart_rate"},
		{"body temp too low", func(in *Input) { in.BodyTemp = 35.9 }, "body_temp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := Validate(in, b)
			require.Error(t, err)
			var iie *errors.InvalidInputError
			require.True(t, errors.As(err, &iie))
			assert.Equal(t, tt.field, iie.Field)
		})
	}

	in := validInput()
	in.WorkoutName = ""
	err := Validate(in, b)
	var iie *errors.InvalidInputError
	require.True(t, errors.As(err, &iie))
	assert.Equal(t, EmptyWorkoutMessage, iie.Reason)
}

func TestValidate_BoundsInclusive(t *testing.T) {
	b := DefaultBounds()
	in := validInput()
	in.Age, in.Height, in.Weight = 10, 250, 30
	in.Duration, in.HeartRate, in.BodyTemp = 300, 60, 42
	assert.NoError(t, Validate(in, b))
}

func TestValidate_UnknownWorkoutAccepted(t *testing.T) {
	in := validInput()
	in.WorkoutName = "Underwater Basket Weaving"
	assert.NoError(t, Validate(in, DefaultBounds()))
}

func TestPrepare(t *testing.T) {
	in := validInput()
	in.WorkoutName = "  Yoga "

	rec, err := Prepare(in, DefaultBounds())
	require.NoError(t, err)
	assert.Equal(t, "Yoga", rec.WorkoutType)
	assert.InDelta(t, 24.22, rec.BMI, 0.005)
	assert.Equal(t, in.Duration, rec.Duration)

	in.WorkoutName = ""
	_, err = Prepare(in, DefaultBounds())
	assert.True(t, errors.IsInvalidInput(err))
}

func TestFrame(t *testing.T) {
	rec, err := Prepare(validInput(), DefaultBounds())
	require.NoError(t, err)

	df := Frame([]Record{rec, rec})
	assert.Equal(t, 2, df.NRows())
	assert.Equal(t, FeatureColumns(), df.Columns())

	bmi, err := df.Numeric(ColBMI)
	require.NoError(t, err)
	assert.Equal(t, rec.BMI, bmi[1])

	workouts, err := df.Categorical(ColWorkoutType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Running", "Running"}, workouts)
}

func TestValidate_MessagesUseLabels(t *testing.T) {
	in := validInput()
	in.HeartRate = 221

	err := Validate(in, DefaultBounds())
	var iie *errors.InvalidInputError
	require.True(t, errors.As(err, &iie))
	assert.Equal(t, FieldHeartRate, iie.Field)
	assert.Equal(t, "Heart rate must be between 60 and 220", iie.Reason)

	assert.Equal(t, "Body temperature", Label(FieldBodyTemp))
	assert.Equal(t, "unknown_field", Label("unknown_field"))
}
